package model

import (
	"time"

	"github.com/google/uuid"
)

// DriverStatus is the admin verification state of a driver profile
type DriverStatus string

const (
	DriverStatusPending  DriverStatus = "pending"
	DriverStatusApproved DriverStatus = "approved"
	DriverStatusRejected DriverStatus = "rejected"
)

// VehicleType enumerates the supported ride classes
type VehicleType string

const (
	VehicleMotorbike VehicleType = "motorbike"
	VehicleCar       VehicleType = "car"
)

// DriverProfile holds the vehicle and licensing data of a driver account.
// Document URLs point to objects uploaded through the storage layer; only
// approved drivers can toggle availability and receive orders.
type DriverProfile struct {
	ID            uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	VehicleType   VehicleType  `json:"vehicle_type" gorm:"size:20;not null"`
	VehiclePlate  string       `json:"vehicle_plate" gorm:"size:20;not null"`
	LicenseNumber string       `json:"license_number" gorm:"size:50;not null"`
	LicenseDocURL string       `json:"license_doc_url" gorm:"size:500;default:''"`
	VehicleDocURL string       `json:"vehicle_doc_url" gorm:"size:500;default:''"`
	Status        DriverStatus `json:"status" gorm:"size:20;default:'pending';not null"`
	RejectReason  string       `json:"reject_reason,omitempty" gorm:"size:255;default:''"`
	IsAvailable   bool         `json:"is_available" gorm:"default:false;index"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// IsApproved reports whether the profile passed admin review
func (d *DriverProfile) IsApproved() bool {
	return d.Status == DriverStatusApproved
}
