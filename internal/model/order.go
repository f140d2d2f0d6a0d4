package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a ride order
type OrderStatus string

const (
	OrderStatusSearching OrderStatus = "searching"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusOngoing   OrderStatus = "ongoing"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether the order can no longer change state
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Order is a ride request from a rider, optionally assigned to a driver.
// Fare is the client-side estimate in coins, accepted as-is.
type Order struct {
	ID       uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RiderID  uuid.UUID  `json:"rider_id" gorm:"type:uuid;not null;index"`
	DriverID *uuid.UUID `json:"driver_id" gorm:"type:uuid;index"` // NULL while searching

	PickupAddress  string  `json:"pickup_address" gorm:"size:255;not null"`
	PickupLat      float64 `json:"pickup_lat" gorm:"not null"`
	PickupLng      float64 `json:"pickup_lng" gorm:"not null"`
	DestAddress    string  `json:"dest_address" gorm:"size:255;not null"`
	DestLat        float64 `json:"dest_lat" gorm:"not null"`
	DestLng        float64 `json:"dest_lng" gorm:"not null"`

	VehicleType VehicleType `json:"vehicle_type" gorm:"size:20;not null"`
	Fare        int64       `json:"fare" gorm:"not null"`
	Status      OrderStatus `json:"status" gorm:"size:20;default:'searching';not null;index"`

	AcceptedAt  *time.Time `json:"accepted_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Rider  User  `json:"-" gorm:"foreignKey:RiderID"`
	Driver *User `json:"-" gorm:"foreignKey:DriverID"`
}
