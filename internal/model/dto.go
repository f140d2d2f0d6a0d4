package model

import "github.com/google/uuid"

// ========== Auth DTOs ==========

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Phone    string `json:"phone" binding:"required,min=8,max=20"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role" binding:"omitempty,oneof=rider driver"`
}

type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"` // Google ID token from frontend
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LoginResponse struct {
	TokenPair
	User UserResponse `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// OTPChallengeResponse is returned when a login needs an OTP step-up
type OTPChallengeResponse struct {
	Message   string `json:"message"`
	Phone     string `json:"phone"`
	ExpiresIn int    `json:"expires_in"` // seconds until code expires
}

// ========== OTP DTOs ==========

type VerifyPhoneRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required,len=6"`
}

type ResendOTPRequest struct {
	Phone   string     `json:"phone" binding:"required"`
	Purpose OTPPurpose `json:"purpose" binding:"required,oneof=register login reset verify_phone"`
}

type OTPSentResponse struct {
	Message   string `json:"message"`
	Phone     string `json:"phone"`
	ExpiresIn int    `json:"expires_in"` // seconds until code expires
}

type LoginOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required,len=6"`
}

type ForgotPasswordRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type ResetPasswordRequest struct {
	Phone       string `json:"phone" binding:"required"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type RegisterDeviceRequest struct {
	FCMToken   string `json:"fcm_token" binding:"required"`
	DeviceType string `json:"device_type" binding:"required"`
}

// ========== Driver DTOs ==========

type DriverProfileRequest struct {
	VehicleType   VehicleType `json:"vehicle_type" binding:"required,oneof=motorbike car"`
	VehiclePlate  string      `json:"vehicle_plate" binding:"required,max=20"`
	LicenseNumber string      `json:"license_number" binding:"required,max=50"`
}

type DriverAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

type DriverReviewRequest struct {
	Status       DriverStatus `json:"status" binding:"required,oneof=approved rejected"`
	RejectReason string       `json:"reject_reason" binding:"max=255"`
}

type DriverDocumentResponse struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Kind string `json:"kind"`
}

// ========== Wallet DTOs ==========

type TopUpRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Amount int64     `json:"amount" binding:"required,gt=0"`
	Note   string    `json:"note" binding:"max=255"`
}

type WalletResponse struct {
	WalletID uuid.UUID `json:"wallet_id"`
	Balance  int64     `json:"balance"`
}

type TransactionListRequest struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ========== Order DTOs ==========

type CreateOrderRequest struct {
	PickupAddress string      `json:"pickup_address" binding:"required,max=255"`
	PickupLat     float64     `json:"pickup_lat" binding:"required"`
	PickupLng     float64     `json:"pickup_lng" binding:"required"`
	DestAddress   string      `json:"dest_address" binding:"required,max=255"`
	DestLat       float64     `json:"dest_lat" binding:"required"`
	DestLng       float64     `json:"dest_lng" binding:"required"`
	VehicleType   VehicleType `json:"vehicle_type" binding:"required,oneof=motorbike car"`
	Fare          int64       `json:"fare" binding:"required,gt=0"`
}

type OrderListRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit,default=20"`
	Offset int    `form:"offset,default=0"`
}

// ========== WebSocket Event DTOs ==========

type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocket event types pushed to riders and drivers
const (
	WSEventOrderAccepted  = "order_accepted"
	WSEventOrderStarted   = "order_started"
	WSEventOrderCompleted = "order_completed"
	WSEventOrderCancelled = "order_cancelled"
	WSEventOrderSearching = "order_searching"
)

type OrderEvent struct {
	OrderID  uuid.UUID   `json:"order_id"`
	Status   OrderStatus `json:"status"`
	DriverID *uuid.UUID  `json:"driver_id,omitempty"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"` // seconds, set on cooldown errors
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
