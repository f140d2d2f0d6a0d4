package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/adityarh/antarin/internal/model"
	"github.com/adityarh/antarin/pkg/auth"
	"github.com/adityarh/antarin/pkg/sms"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

// UserStore is the persistence collaborator for accounts
type UserStore interface {
	Create(user *model.User) error
	FindByID(id uuid.UUID) (*model.User, error)
	FindByPhone(phone string) (*model.User, error)
	VerifyPhone(userID uuid.UUID) error
	UpdatePassword(userID uuid.UUID, hashedPassword string) error
	GetOrCreateGoogleUser(info model.GoogleUserInfo) (*model.User, error)
	AddDevice(userID uuid.UUID, fcmToken, deviceType string) error
	List(role model.Role, limit, offset int) ([]model.User, error)
}

// PasswordResetMailer delivers reset codes to email-based operator accounts
type PasswordResetMailer interface {
	SendPasswordReset(toEmail, name, code string, expiryMinutes int) error
}

// AuthService handles registration, login, token rotation and password reset.
// It is the caller of the OTP lifecycle: it asks OTPService for codes and
// hands the plaintext to the SMS gateway (or the mailer for operators).
type AuthService struct {
	userRepo       UserStore
	otp            *OTPService
	jwtManager     *auth.JWTManager
	sessions       SessionStore
	smsSender      sms.Sender
	mailer         PasswordResetMailer
	googleClientID string
}

func NewAuthService(
	userRepo UserStore,
	otp *OTPService,
	jwtManager *auth.JWTManager,
	sessions SessionStore,
	smsSender sms.Sender,
	mailer PasswordResetMailer,
	googleClientID string,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		otp:            otp,
		jwtManager:     jwtManager,
		sessions:       sessions,
		smsSender:      smsSender,
		mailer:         mailer,
		googleClientID: googleClientID,
	}
}

// ==================== Register (Phone + OTP) ====================

// Register creates a new unverified account and sends a verification code
func (s *AuthService) Register(req model.RegisterRequest) (*model.OTPSentResponse, error) {
	existing, err := s.userRepo.FindByPhone(req.Phone)
	if err == nil {
		if existing.IsPhoneVerified() {
			return nil, ErrPhoneTaken
		}
		// Registered but never verified - resend the code
		return s.sendOTP(existing, model.OTPPurposeVerifyPhone)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = model.RoleRider
	}

	user := &model.User{
		Name:         req.Name,
		Phone:        req.Phone,
		Password:     string(hashedPassword),
		Role:         role,
		AuthProvider: model.AuthProviderPhone,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.sendOTP(user, model.OTPPurposeVerifyPhone)
}

// VerifyPhone verifies the registration code and activates the account
func (s *AuthService) VerifyPhone(req model.VerifyPhoneRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByPhone(req.Phone)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if _, err := s.otp.Verify(req.Phone, model.OTPPurposeVerifyPhone, req.Code); err != nil {
		return nil, err
	}

	if err := s.userRepo.VerifyPhone(user.ID); err != nil {
		return nil, fmt.Errorf("failed to verify phone: %w", err)
	}
	now := time.Now()
	user.PhoneVerifiedAt = &now

	return s.loginResponse(user)
}

// ResendOTP re-issues a code, subject to the resend cooldown
func (s *AuthService) ResendOTP(req model.ResendOTPRequest) (*model.OTPSentResponse, error) {
	user, err := s.userRepo.FindByPhone(req.Phone)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if req.Purpose == model.OTPPurposeVerifyPhone && user.IsPhoneVerified() {
		return nil, errors.New("phone already verified")
	}
	return s.sendOTP(user, req.Purpose)
}

// ==================== Login (Phone/Password) ====================

// Login authenticates by phone and password. Accounts flagged RequireOTP get
// an OTP challenge instead of tokens; the flow completes via LoginWithOTP.
func (s *AuthService) Login(req model.LoginRequest) (*model.LoginResponse, *model.OTPChallengeResponse, error) {
	user, err := s.userRepo.FindByPhone(req.Phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if user.AuthProvider == model.AuthProviderGoogle {
		return nil, nil, ErrGoogleAccount
	}
	if !user.IsPhoneVerified() {
		return nil, nil, ErrPhoneNotVerified
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if user.RequireOTP {
		sent, err := s.sendOTP(user, model.OTPPurposeLogin)
		if err != nil {
			return nil, nil, err
		}
		return nil, &model.OTPChallengeResponse{
			Message:   "Enter the code we sent to finish signing in",
			Phone:     sent.Phone,
			ExpiresIn: sent.ExpiresIn,
		}, nil
	}

	resp, err := s.loginResponse(user)
	return resp, nil, err
}

// LoginWithOTP completes an OTP step-up login
func (s *AuthService) LoginWithOTP(req model.LoginOTPRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByPhone(req.Phone)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if _, err := s.otp.Verify(req.Phone, model.OTPPurposeLogin, req.Code); err != nil {
		return nil, err
	}
	return s.loginResponse(user)
}

// ==================== Token refresh / logout ====================

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. A token that was already rotated is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	userID, err := s.sessions.ConsumeRefresh(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if userID != claims.UserID {
		return nil, ErrInvalidRefresh
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.issueTokens(user)
}

// Logout blacklists the access token until it expires and drops the refresh session
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	claims, err := s.jwtManager.ValidateToken(accessToken, auth.TokenTypeAccess)
	if err != nil {
		return err
	}
	if err := s.sessions.BlacklistAccess(ctx, accessToken, time.Until(claims.ExpiresAt.Time)); err != nil {
		return err
	}

	if refreshToken != "" {
		if rc, err := s.jwtManager.ValidateToken(refreshToken, auth.TokenTypeRefresh); err == nil {
			_ = s.sessions.DeleteRefresh(ctx, rc.ID)
		}
	}
	return nil
}

// ==================== Forgot/Reset Password ====================

// ForgotPassword sends a password reset code. Pending reset codes are revoked
// first so only the newest one can succeed.
func (s *AuthService) ForgotPassword(req model.ForgotPasswordRequest) (*model.OTPSentResponse, error) {
	user, err := s.userRepo.FindByPhone(req.Phone)
	if err != nil {
		// Don't reveal whether the phone exists
		return &model.OTPSentResponse{
			Message:   "If the phone is registered, a reset code has been sent",
			Phone:     req.Phone,
			ExpiresIn: int(s.otp.cfg.TTL.Seconds()),
		}, nil
	}
	if user.AuthProvider == model.AuthProviderGoogle {
		return nil, ErrGoogleAccount
	}

	if err := s.otp.RevokeActive(user.Phone, model.OTPPurposeReset); err != nil {
		return nil, err
	}
	return s.sendOTP(user, model.OTPPurposeReset)
}

// ResetPassword verifies the reset code and sets a new password
func (s *AuthService) ResetPassword(req model.ResetPasswordRequest) error {
	user, err := s.userRepo.FindByPhone(req.Phone)
	if err != nil {
		return ErrUserNotFound
	}

	if _, err := s.otp.Verify(req.Phone, model.OTPPurposeReset, req.Code); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(user.ID, string(hashedPassword))
}

// ==================== Google Sign-In ====================

// LoginWithGoogle validates a Google ID token and signs the rider in
func (s *AuthService) LoginWithGoogle(req model.GoogleLoginRequest) (*model.LoginResponse, error) {
	payload, err := idtoken.Validate(context.Background(), req.IDToken, s.googleClientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", err)
	}

	email, ok := payload.Claims["email"].(string)
	if !ok {
		return nil, errors.New("email not found in token")
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)
	verified, _ := payload.Claims["email_verified"].(bool)

	user, err := s.userRepo.GetOrCreateGoogleUser(model.GoogleUserInfo{
		GoogleID: payload.Subject,
		Email:    email,
		Name:     name,
		Picture:  picture,
		Verified: verified,
	})
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return s.loginResponse(user)
}

// ==================== Profile / devices ====================

// GetProfile returns the current user's profile
func (s *AuthService) GetProfile(userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	resp := user.ToResponse()
	return &resp, nil
}

// RegisterDevice registers a device token for push notifications
func (s *AuthService) RegisterDevice(userID uuid.UUID, req model.RegisterDeviceRequest) error {
	return s.userRepo.AddDevice(userID, req.FCMToken, req.DeviceType)
}

// ListUsers returns accounts for the operator console, optionally filtered
// by role, newest first.
func (s *AuthService) ListUsers(role model.Role, limit, offset int) ([]model.UserResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.userRepo.List(role, limit, offset)
	if err != nil {
		return nil, err
	}
	resps := make([]model.UserResponse, 0, len(users))
	for _, u := range users {
		resps = append(resps, u.ToResponse())
	}
	return resps, nil
}

// ==================== Internal Helpers ====================

// sendOTP issues a fresh code and hands it to the delivery gateway.
// Delivery runs in a goroutine: issuance does not wait on the provider.
// Admin operators (email accounts) get the code by mail, everyone else by SMS.
func (s *AuthService) sendOTP(user *model.User, purpose model.OTPPurpose) (*model.OTPSentResponse, error) {
	result, err := s.otp.Issue(user.Phone, purpose, &user.ID)
	if err != nil {
		return nil, err
	}

	if user.Role == model.RoleAdmin && user.Email != nil && s.mailer != nil {
		email, name := *user.Email, user.Name
		go func() {
			if err := s.mailer.SendPasswordReset(email, name, result.Code, result.ExpiresIn/60); err != nil {
				log.Printf("❌ Failed to send reset email to %s: %v", email, err)
			}
		}()
	} else if s.smsSender != nil {
		message := fmt.Sprintf("Antarin: your verification code is %s. Valid for %d minutes.",
			result.Code, result.ExpiresIn/60)
		phone := user.Phone
		go func() {
			if err := s.smsSender.SendSMS(context.Background(), phone, message); err != nil {
				log.Printf("❌ Failed to send SMS to %s: %v", phone, err)
			}
		}()
	}

	return &model.OTPSentResponse{
		Message:   "Verification code sent",
		Phone:     user.Phone,
		ExpiresIn: result.ExpiresIn,
	}, nil
}

func (s *AuthService) loginResponse(user *model.User) (*model.LoginResponse, error) {
	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{
		TokenPair: *pair,
		User:      user.ToResponse(),
	}, nil
}

func (s *AuthService) issueTokens(user *model.User) (*model.TokenPair, error) {
	access, err := s.jwtManager.GenerateAccessToken(user.ID, user.Phone, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, tokenID, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Phone, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.sessions.SaveRefresh(context.Background(), tokenID, user.ID, s.jwtManager.RefreshExpiry()); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
