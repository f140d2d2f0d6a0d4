package model

import (
	"time"

	"github.com/google/uuid"
)

// OTPPurpose scopes a code to the flow that requested it
type OTPPurpose string

const (
	OTPPurposeRegister    OTPPurpose = "register"
	OTPPurposeLogin       OTPPurpose = "login"
	OTPPurposeReset       OTPPurpose = "reset"
	OTPPurposeVerifyPhone OTPPurpose = "verify_phone"
)

// OTPUsedReason records why a record reached its terminal state
type OTPUsedReason string

const (
	OTPUsedConsumed  OTPUsedReason = "consumed"
	OTPUsedExpired   OTPUsedReason = "expired"
	OTPUsedExhausted OTPUsedReason = "exhausted"
	OTPUsedRevoked   OTPUsedReason = "revoked"
)

// OtpRecord represents one issued verification code. Codes are scoped per
// (phone, purpose); the newest not-yet-used record is the authoritative one.
// The plaintext code is never persisted, only its bcrypt hash.
type OtpRecord struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Phone       string         `json:"phone" gorm:"size:20;not null;index:idx_otp_phone_purpose"`
	Purpose     OTPPurpose     `json:"purpose" gorm:"size:20;not null;index:idx_otp_phone_purpose"`
	CodeHash    string         `json:"-" gorm:"size:255;not null"`
	Attempts    int            `json:"attempts" gorm:"not null;default:0"`
	MaxAttempts int            `json:"max_attempts" gorm:"not null;default:3"`
	IsUsed      bool           `json:"is_used" gorm:"not null;default:false"`
	UsedReason  *OTPUsedReason `json:"used_reason" gorm:"size:20"` // NULL while active
	UserID      *uuid.UUID     `json:"user_id" gorm:"type:uuid;index"`
	ExpiresAt   time.Time      `json:"expires_at" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
}

// IsExpired checks the record against the given instant
func (o *OtpRecord) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
