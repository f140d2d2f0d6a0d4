package repository

import (
	"time"

	"github.com/adityarh/antarin/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTPRepository handles database operations for OTP records
type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create inserts a new OTP record
func (r *OTPRepository) Create(otp *model.OtpRecord) error {
	return r.db.Create(otp).Error
}

// FindLatestActive returns the most recently created not-yet-used record for
// (phone, purpose). Expired records are still returned here: expiry is decided
// by the service at verification time so the terminal transition gets persisted.
func (r *OTPRepository) FindLatestActive(phone string, purpose model.OTPPurpose) (*model.OtpRecord, error) {
	var otp model.OtpRecord
	err := r.db.
		Where("phone = ? AND purpose = ? AND is_used = false", phone, purpose).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

// IncrementAttempts bumps the attempt counter with a conditional update so two
// concurrent verifies cannot lose an increment or push past the ceiling.
// Returns false when the guard rejected the update (record used or at ceiling).
func (r *OTPRepository) IncrementAttempts(id uuid.UUID) (bool, error) {
	res := r.db.Model(&model.OtpRecord{}).
		Where("id = ? AND is_used = false AND attempts < max_attempts", id).
		Update("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkUsed moves one record to its terminal state with the given reason
func (r *OTPRepository) MarkUsed(id uuid.UUID, reason model.OTPUsedReason) error {
	return r.db.Model(&model.OtpRecord{}).
		Where("id = ? AND is_used = false", id).
		Updates(map[string]interface{}{
			"is_used":     true,
			"used_reason": reason,
		}).Error
}

// MarkUsedBulk revokes every active record for (phone, purpose).
// No-op when none are active.
func (r *OTPRepository) MarkUsedBulk(phone string, purpose model.OTPPurpose, reason model.OTPUsedReason) error {
	return r.db.Model(&model.OtpRecord{}).
		Where("phone = ? AND purpose = ? AND is_used = false", phone, purpose).
		Updates(map[string]interface{}{
			"is_used":     true,
			"used_reason": reason,
		}).Error
}

// CleanupExpired removes stale expired records (housekeeping, run by an
// external periodic job; the lifecycle itself never deletes)
func (r *OTPRepository) CleanupExpired(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	return r.db.
		Where("expires_at < ?", cutoff).
		Delete(&model.OtpRecord{}).Error
}
