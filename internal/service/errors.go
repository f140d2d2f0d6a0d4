package service

import (
	"errors"
	"fmt"
)

// OTP lifecycle failures. All are recoverable by the caller; mutating
// failure paths persist the terminal state before the error is returned.
var (
	ErrOTPNotFound      = errors.New("no active verification code")
	ErrOTPExpired       = errors.New("verification code expired")
	ErrAttemptsExceeded = errors.New("too many incorrect attempts")
	ErrInvalidCode      = errors.New("incorrect verification code")
)

// CooldownError is returned by Issue when the previous code is too fresh to
// replace. RemainingSeconds tells the caller how long to wait.
type CooldownError struct {
	RemainingSeconds int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new code", e.RemainingSeconds)
}

// Auth / account failures
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrPhoneNotVerified   = errors.New("phone number not verified")
	ErrInvalidRefresh     = errors.New("invalid or expired refresh token")
	ErrGoogleAccount      = errors.New("this account uses Google sign-in")
)

// Wallet failures
var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient coin balance")
)

// Driver / order failures
var (
	ErrDriverNotFound     = errors.New("driver profile not found")
	ErrDriverExists       = errors.New("driver profile already exists")
	ErrDriverNotApproved  = errors.New("driver profile not approved")
	ErrDocumentNotFound   = errors.New("document not uploaded yet")
	ErrOrderNotFound      = errors.New("order not found")
	ErrActiveOrderExists  = errors.New("an active order already exists")
	ErrInvalidOrderStatus = errors.New("order is not in a valid state for this action")
	ErrNotOrderParty      = errors.New("order does not belong to this user")
)
