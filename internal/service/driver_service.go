package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"

	"github.com/adityarh/antarin/internal/model"
	"github.com/adityarh/antarin/pkg/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DriverStore is the persistence collaborator for driver profiles
type DriverStore interface {
	Create(profile *model.DriverProfile) error
	FindByUserID(userID uuid.UUID) (*model.DriverProfile, error)
	Update(profile *model.DriverProfile) error
	UpdateDocumentURL(userID uuid.UUID, column, url string) error
	SetAvailability(userID uuid.UUID, available bool) (bool, error)
	SetReview(profileID uuid.UUID, status model.DriverStatus, reason string) error
	ListByStatus(status model.DriverStatus, limit, offset int) ([]model.DriverProfile, error)
}

// Document kinds accepted for upload
const (
	DocKindLicense = "license"
	DocKindVehicle = "vehicle"
)

// DriverService manages driver profiles, documents and availability
type DriverService struct {
	driverRepo DriverStore
	storage    storage.Storage
}

func NewDriverService(driverRepo DriverStore, storage storage.Storage) *DriverService {
	return &DriverService{driverRepo: driverRepo, storage: storage}
}

// CreateProfile registers the vehicle and license data of a driver account.
// The profile starts in pending review and cannot take orders yet.
func (s *DriverService) CreateProfile(userID uuid.UUID, req model.DriverProfileRequest) (*model.DriverProfile, error) {
	if _, err := s.driverRepo.FindByUserID(userID); err == nil {
		return nil, ErrDriverExists
	}

	profile := &model.DriverProfile{
		UserID:        userID,
		VehicleType:   req.VehicleType,
		VehiclePlate:  req.VehiclePlate,
		LicenseNumber: req.LicenseNumber,
		Status:        model.DriverStatusPending,
	}
	if err := s.driverRepo.Create(profile); err != nil {
		return nil, fmt.Errorf("failed to create driver profile: %w", err)
	}
	return profile, nil
}

// GetProfile returns the caller's driver profile
func (s *DriverService) GetProfile(userID uuid.UUID) (*model.DriverProfile, error) {
	profile, err := s.driverRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}
	return profile, nil
}

// UpdateProfile edits vehicle data. Any edit sends the profile back to
// pending review.
func (s *DriverService) UpdateProfile(userID uuid.UUID, req model.DriverProfileRequest) (*model.DriverProfile, error) {
	profile, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	profile.VehicleType = req.VehicleType
	profile.VehiclePlate = req.VehiclePlate
	profile.LicenseNumber = req.LicenseNumber
	profile.Status = model.DriverStatusPending
	profile.IsAvailable = false
	if err := s.driverRepo.Update(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UploadDocument stores a license or vehicle paper and records its object key.
// Re-uploads replace the stored object.
func (s *DriverService) UploadDocument(ctx context.Context, userID uuid.UUID, kind string, file multipart.File, header *multipart.FileHeader) (*model.DriverDocumentResponse, error) {
	profile, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	var column, oldKey string
	switch kind {
	case DocKindLicense:
		column = "license_doc_url"
		oldKey = profile.LicenseDocURL
	case DocKindVehicle:
		column = "vehicle_doc_url"
		oldKey = profile.VehicleDocURL
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}

	result, err := s.storage.UploadDocument(ctx, file, header, "driver-docs/"+kind)
	if err != nil {
		return nil, err
	}
	if err := s.driverRepo.UpdateDocumentURL(userID, column, result.Key); err != nil {
		return nil, err
	}
	if oldKey != "" {
		if err := s.storage.Delete(ctx, oldKey); err != nil {
			log.Printf("⚠️ Failed to delete replaced document %s: %v", oldKey, err)
		}
	}

	return &model.DriverDocumentResponse{URL: result.URL, Key: result.Key, Kind: kind}, nil
}

// DocumentLink issues a fresh time-limited read URL for a stored document
func (s *DriverService) DocumentLink(ctx context.Context, userID uuid.UUID, kind string) (*model.DriverDocumentResponse, error) {
	profile, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	var key string
	switch kind {
	case DocKindLicense:
		key = profile.LicenseDocURL
	case DocKindVehicle:
		key = profile.VehicleDocURL
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
	if key == "" {
		return nil, ErrDocumentNotFound
	}

	url, err := s.storage.PresignedURL(ctx, key)
	if err != nil {
		return nil, err
	}
	return &model.DriverDocumentResponse{URL: url, Key: key, Kind: kind}, nil
}

// SetAvailability toggles whether the driver receives orders.
// Rejected or pending profiles cannot go online.
func (s *DriverService) SetAvailability(userID uuid.UUID, available bool) error {
	ok, err := s.driverRepo.SetAvailability(userID, available)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDriverNotApproved
	}
	return nil
}

// Review records the admin approve/reject decision on a profile
func (s *DriverService) Review(profileID uuid.UUID, req model.DriverReviewRequest) error {
	return s.driverRepo.SetReview(profileID, req.Status, req.RejectReason)
}

// ListByStatus returns profiles awaiting or past review (admin)
func (s *DriverService) ListByStatus(status model.DriverStatus, limit, offset int) ([]model.DriverProfile, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.driverRepo.ListByStatus(status, limit, offset)
}
