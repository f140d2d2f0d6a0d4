package repository

import (
	"github.com/adityarh/antarin/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DriverRepository handles database operations for driver profiles
type DriverRepository struct {
	db *gorm.DB
}

func NewDriverRepository(db *gorm.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

// Create inserts a new driver profile
func (r *DriverRepository) Create(profile *model.DriverProfile) error {
	return r.db.Create(profile).Error
}

// FindByUserID returns the profile owned by a driver account
func (r *DriverRepository) FindByUserID(userID uuid.UUID) (*model.DriverProfile, error) {
	var profile model.DriverProfile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update saves mutable profile fields
func (r *DriverRepository) Update(profile *model.DriverProfile) error {
	return r.db.Save(profile).Error
}

// UpdateDocumentURL stores the object URL of an uploaded document
func (r *DriverRepository) UpdateDocumentURL(userID uuid.UUID, column, url string) error {
	return r.db.Model(&model.DriverProfile{}).
		Where("user_id = ?", userID).
		Update(column, url).Error
}

// SetAvailability toggles whether the driver is taking orders.
// Only approved profiles pass the guard.
func (r *DriverRepository) SetAvailability(userID uuid.UUID, available bool) (bool, error) {
	res := r.db.Model(&model.DriverProfile{}).
		Where("user_id = ? AND status = ?", userID, model.DriverStatusApproved).
		Update("is_available", available)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetReview records the admin approve/reject decision
func (r *DriverRepository) SetReview(profileID uuid.UUID, status model.DriverStatus, reason string) error {
	updates := map[string]interface{}{
		"status":        status,
		"reject_reason": reason,
	}
	if status == model.DriverStatusRejected {
		updates["is_available"] = false
	}
	return r.db.Model(&model.DriverProfile{}).
		Where("id = ?", profileID).
		Updates(updates).Error
}

// FindFirstAvailable picks the next free approved driver for the vehicle type.
// Plain first-match on oldest profile; there is no scoring or geo ranking.
func (r *DriverRepository) FindFirstAvailable(vehicleType model.VehicleType) (*model.DriverProfile, error) {
	var profile model.DriverProfile
	err := r.db.
		Where("status = ? AND is_available = true AND vehicle_type = ?",
			model.DriverStatusApproved, vehicleType).
		Order("updated_at ASC").
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListByStatus returns profiles in a review state, oldest first
func (r *DriverRepository) ListByStatus(status model.DriverStatus, limit, offset int) ([]model.DriverProfile, error) {
	var profiles []model.DriverProfile
	err := r.db.
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&profiles).Error
	return profiles, err
}
