package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/adityarh/antarin/internal/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OTPStore is the persistence collaborator of the OTP lifecycle
type OTPStore interface {
	Create(otp *model.OtpRecord) error
	FindLatestActive(phone string, purpose model.OTPPurpose) (*model.OtpRecord, error)
	IncrementAttempts(id uuid.UUID) (bool, error)
	MarkUsed(id uuid.UUID, reason model.OTPUsedReason) error
	MarkUsedBulk(phone string, purpose model.OTPPurpose, reason model.OTPUsedReason) error
}

// OTPConfig tunes the lifecycle; zero values fall back to the defaults below
type OTPConfig struct {
	CodeLength     int
	TTL            time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
}

const (
	defaultCodeLength     = 6
	defaultTTL            = 5 * time.Minute
	defaultMaxAttempts    = 3
	defaultResendCooldown = 60 * time.Second
)

// OTPService owns creation, verification, expiry and revocation of one-time
// codes. Delivery to the phone is the caller's responsibility: Issue returns
// the plaintext code exactly once and never persists it.
type OTPService struct {
	store OTPStore
	cfg   OTPConfig
	now   func() time.Time
}

func NewOTPService(store OTPStore, cfg OTPConfig) *OTPService {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = defaultCodeLength
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.ResendCooldown <= 0 {
		cfg.ResendCooldown = defaultResendCooldown
	}
	return &OTPService{store: store, cfg: cfg, now: time.Now}
}

// IssueResult is handed back to the caller for delivery and acknowledgment
type IssueResult struct {
	Code      string // plaintext, for the SMS gateway only
	ExpiresAt time.Time
	ExpiresIn int // seconds
}

// Issue creates a fresh code for (phone, purpose), subject to the resend
// cooldown against the most recent active record. Exactly one new record is
// persisted per successful call; prior records are left untouched.
func (s *OTPService) Issue(phone string, purpose model.OTPPurpose, userID *uuid.UUID) (*IssueResult, error) {
	now := s.now()

	prev, err := s.store.FindLatestActive(phone, purpose)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if prev != nil {
		elapsed := now.Sub(prev.CreatedAt)
		if elapsed < s.cfg.ResendCooldown {
			remaining := int(math.Ceil((s.cfg.ResendCooldown - elapsed).Seconds()))
			return nil, &CooldownError{RemainingSeconds: remaining}
		}
	}

	code, err := generateOTPCode(s.cfg.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}

	record := &model.OtpRecord{
		Phone:       phone,
		Purpose:     purpose,
		CodeHash:    string(hash),
		Attempts:    0,
		MaxAttempts: s.cfg.MaxAttempts,
		UserID:      userID,
		ExpiresAt:   now.Add(s.cfg.TTL),
	}
	if err := s.store.Create(record); err != nil {
		return nil, fmt.Errorf("save code: %w", err)
	}

	return &IssueResult{
		Code:      code,
		ExpiresAt: record.ExpiresAt,
		ExpiresIn: int(s.cfg.TTL.Seconds()),
	}, nil
}

// Verify matches the supplied code against the newest active record.
// Expiry is checked before the attempts ceiling; both transitions are
// persisted before the error returns, so the terminal state is observable
// by every subsequent call. A matched record is single-use.
func (s *OTPService) Verify(phone string, purpose model.OTPPurpose, code string) (*model.OtpRecord, error) {
	record, err := s.store.FindLatestActive(phone, purpose)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOTPNotFound
		}
		return nil, err
	}

	if record.IsExpired(s.now()) {
		if err := s.store.MarkUsed(record.ID, model.OTPUsedExpired); err != nil {
			return nil, err
		}
		return nil, ErrOTPExpired
	}

	// Ceiling is a precondition: the caller gets exactly MaxAttempts wrong
	// tries, and lockout lands on the call after the counter reaches it.
	if record.Attempts >= record.MaxAttempts {
		if err := s.store.MarkUsed(record.ID, model.OTPUsedExhausted); err != nil {
			return nil, err
		}
		return nil, ErrAttemptsExceeded
	}

	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)) != nil {
		if _, err := s.store.IncrementAttempts(record.ID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCode
	}

	if err := s.store.MarkUsed(record.ID, model.OTPUsedConsumed); err != nil {
		return nil, err
	}
	record.IsUsed = true
	reason := model.OTPUsedConsumed
	record.UsedReason = &reason
	return record, nil
}

// RevokeActive invalidates every pending code for (phone, purpose).
// No-op when none are active.
func (s *OTPService) RevokeActive(phone string, purpose model.OTPPurpose) error {
	return s.store.MarkUsedBulk(phone, purpose, model.OTPUsedRevoked)
}

// generateOTPCode draws a uniform random digit string; leading zeros allowed
func generateOTPCode(length int) (string, error) {
	code := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += fmt.Sprintf("%d", n.Int64())
	}
	return code, nil
}
