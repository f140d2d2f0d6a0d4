package repository

import (
	"time"

	"github.com/adityarh/antarin/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for User
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by UUID
func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByPhone finds a user by phone number
func (r *UserRepository) FindByPhone(phone string) (*model.User, error) {
	var user model.User
	err := r.db.Where("phone = ?", phone).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email (admin operators, Google accounts)
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyPhone stamps the phone verification time
func (r *UserRepository) VerifyPhone(userID uuid.UUID) error {
	now := time.Now()
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("phone_verified_at", now).Error
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", hashedPassword).Error
}

// GetOrCreateGoogleUser finds a user by Google ID, linking or creating as needed
func (r *UserRepository) GetOrCreateGoogleUser(info model.GoogleUserInfo) (*model.User, error) {
	user, err := r.FindByGoogleID(info.GoogleID)
	if err == nil {
		return user, nil
	}

	// Link by email when the account already exists
	existing, err := r.FindByEmail(info.Email)
	if err == nil {
		if err := r.db.Model(existing).Update("google_id", info.GoogleID).Error; err != nil {
			return nil, err
		}
		existing.GoogleID = &info.GoogleID
		return existing, nil
	}

	now := time.Now()
	user = &model.User{
		Name:            info.Name,
		Phone:           "g-" + info.GoogleID, // placeholder until the rider adds a phone
		Email:           &info.Email,
		Role:            model.RoleRider,
		AuthProvider:    model.AuthProviderGoogle,
		GoogleID:        &info.GoogleID,
		PhoneVerifiedAt: &now, // Google accounts skip phone OTP on signup
	}
	if err := r.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByGoogleID finds a user by Google OAuth ID
func (r *UserRepository) FindByGoogleID(googleID string) (*model.User, error) {
	var user model.User
	err := r.db.Where("google_id = ?", googleID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users filtered by role, newest first
func (r *UserRepository) List(role model.Role, limit, offset int) ([]model.User, error) {
	var users []model.User
	q := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	err := q.Find(&users).Error
	return users, err
}

// AddDevice upserts an FCM device token for push notifications
func (r *UserRepository) AddDevice(userID uuid.UUID, fcmToken, deviceType string) error {
	device := model.UserDevice{
		UserID:       userID,
		FCMToken:     fcmToken,
		DeviceType:   deviceType,
		LastActiveAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fcm_token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "device_type", "last_active_at"}),
	}).Create(&device).Error
}

// GetUserDevices returns all registered devices of a user
func (r *UserRepository) GetUserDevices(userID uuid.UUID) ([]model.UserDevice, error) {
	var devices []model.UserDevice
	err := r.db.Where("user_id = ?", userID).Find(&devices).Error
	return devices, err
}
