package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role defines what a user can do in the system
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

// AuthProvider defines how the user authenticates
type AuthProvider string

const (
	AuthProviderPhone  AuthProvider = "phone"
	AuthProviderGoogle AuthProvider = "google"
)

// User represents a registered account: rider, driver or admin operator.
// Riders and drivers sign up with a phone number and verify it via OTP;
// admin operators are seeded with an email and reset passwords over email.
type User struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string       `json:"name" gorm:"size:100;not null"`
	Phone        string       `json:"phone" gorm:"uniqueIndex;size:20;not null"`
	Email        *string      `json:"email" gorm:"uniqueIndex;size:255"` // NULL for phone-only accounts
	Password     string       `json:"-" gorm:"size:255"`                 // NULL for Google accounts
	Role         Role         `json:"role" gorm:"size:20;default:'rider';not null"`
	AuthProvider AuthProvider `json:"auth_provider" gorm:"size:20;default:'phone'"`
	GoogleID     *string      `json:"-" gorm:"uniqueIndex;size:255"`

	PhoneVerifiedAt *time.Time `json:"phone_verified_at" gorm:"type:timestamptz"` // NULL = not verified
	RequireOTP      bool       `json:"require_otp" gorm:"default:false"`          // OTP step-up on every login

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsPhoneVerified checks whether the account completed OTP verification
func (u *User) IsPhoneVerified() bool {
	return u.PhoneVerifiedAt != nil
}

// UserResponse is the safe version of User for API responses
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         *string   `json:"email,omitempty"`
	Role          Role      `json:"role"`
	PhoneVerified bool      `json:"phone_verified"`
	RequireOTP    bool      `json:"require_otp"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToResponse converts User to safe UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Phone:         u.Phone,
		Email:         u.Email,
		Role:          u.Role,
		PhoneVerified: u.IsPhoneVerified(),
		RequireOTP:    u.RequireOTP,
		CreatedAt:     u.CreatedAt,
	}
}

// UserDevice represents a user's device for push notifications
type UserDevice struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID `json:"user_id" gorm:"not null;index"`
	FCMToken     string    `json:"fcm_token" gorm:"not null;uniqueIndex:idx_user_token"`
	DeviceType   string    `json:"device_type" gorm:"size:20;default:'unknown'"` // android, ios, web
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// GoogleUserInfo holds the claims extracted from a Google ID token
type GoogleUserInfo struct {
	GoogleID string `json:"sub"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Verified bool   `json:"email_verified"`
}
