package auth

import (
	"errors"
	"time"

	"github.com/adityarh/antarin/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents JWT claims
type Claims struct {
	UserID    uuid.UUID  `json:"user_id"`
	Phone     string     `json:"phone"`
	Role      model.Role `json:"role"`
	TokenType string     `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates access/refresh token pairs. Refresh tokens
// carry a unique ID so the auth service can rotate them through redis.
type JWTManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessExpiry, refreshExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// RefreshExpiry exposes the refresh TTL for session bookkeeping
func (j *JWTManager) RefreshExpiry() time.Duration {
	return j.refreshExpiry
}

// GenerateAccessToken creates a short-lived access token
func (j *JWTManager) GenerateAccessToken(userID uuid.UUID, phone string, role model.Role) (string, error) {
	return j.generate(userID, phone, role, TokenTypeAccess, j.accessExpiry, uuid.NewString())
}

// GenerateRefreshToken creates a long-lived refresh token and returns its
// token ID alongside, so the caller can register the session
func (j *JWTManager) GenerateRefreshToken(userID uuid.UUID, phone string, role model.Role) (token string, tokenID string, err error) {
	tokenID = uuid.NewString()
	token, err = j.generate(userID, phone, role, TokenTypeRefresh, j.refreshExpiry, tokenID)
	return token, tokenID, err
}

func (j *JWTManager) generate(userID uuid.UUID, phone string, role model.Role, tokenType string, expiry time.Duration, id string) (string, error) {
	claims := &Claims{
		UserID:    userID,
		Phone:     phone,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "antarin",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ValidateToken parses and validates a token of the expected type
func (j *JWTManager) ValidateToken(tokenString, expectedType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != expectedType {
		return nil, errors.New("wrong token type")
	}

	return claims, nil
}
