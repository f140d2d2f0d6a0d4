package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/adityarh/antarin/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStore is the persistence collaborator for ride orders
type OrderStore interface {
	Create(order *model.Order) error
	FindByID(id uuid.UUID) (*model.Order, error)
	Assign(orderID, driverID uuid.UUID) (bool, error)
	UpdateStatus(orderID uuid.UUID, from, to model.OrderStatus) (bool, error)
	ListByRider(riderID uuid.UUID, status string, limit, offset int) ([]model.Order, error)
	ListByDriver(driverID uuid.UUID, status string, limit, offset int) ([]model.Order, error)
	ListAll(status string, limit, offset int) ([]model.Order, error)
	HasActiveOrder(riderID uuid.UUID) (bool, error)
}

// DispatchPool finds and holds drivers for assignment
type DispatchPool interface {
	FindFirstAvailable(vehicleType model.VehicleType) (*model.DriverProfile, error)
	SetAvailability(userID uuid.UUID, available bool) (bool, error)
}

// OrderNotifier pushes order events to phones (FCM)
type OrderNotifier interface {
	SendOrderAssigned(ctx context.Context, driverID uuid.UUID, order *model.Order) error
	SendOrderStatus(ctx context.Context, riderID uuid.UUID, order *model.Order) error
}

// EventPusher delivers live order events to connected clients (websocket hub)
type EventPusher interface {
	SendToUser(userID uuid.UUID, event *model.WSEvent)
}

// OrderService owns the order state machine, dispatch and fare settlement.
// Dispatch is a plain first-available-driver match; there is no scoring,
// geo ranking or reassignment.
type OrderService struct {
	orderRepo         OrderStore
	drivers           DispatchPool
	wallet            *WalletService
	notifier          OrderNotifier
	pusher            EventPusher
	commissionPercent int
}

func NewOrderService(orderRepo OrderStore, drivers DispatchPool, wallet *WalletService, notifier OrderNotifier, pusher EventPusher, commissionPercent int) *OrderService {
	return &OrderService{
		orderRepo:         orderRepo,
		drivers:           drivers,
		wallet:            wallet,
		notifier:          notifier,
		pusher:            pusher,
		commissionPercent: commissionPercent,
	}
}

// Create places a new ride order and tries to dispatch it immediately.
// The rider must cover the fare up front and may only have one ride in flight.
func (s *OrderService) Create(riderID uuid.UUID, req model.CreateOrderRequest) (*model.Order, error) {
	active, err := s.orderRepo.HasActiveOrder(riderID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveOrderExists
	}

	ok, err := s.wallet.HasBalance(riderID, req.Fare)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}

	order := &model.Order{
		RiderID:       riderID,
		PickupAddress: req.PickupAddress,
		PickupLat:     req.PickupLat,
		PickupLng:     req.PickupLng,
		DestAddress:   req.DestAddress,
		DestLat:       req.DestLat,
		DestLng:       req.DestLng,
		VehicleType:   req.VehicleType,
		Fare:          req.Fare,
		Status:        model.OrderStatusSearching,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.dispatch(order)
	return s.orderRepo.FindByID(order.ID)
}

// RetryDispatch re-runs assignment for an order stuck in searching (operator)
func (s *OrderService) RetryDispatch(orderID uuid.UUID) (*model.Order, error) {
	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusSearching {
		return nil, ErrInvalidOrderStatus
	}
	s.dispatch(order)
	return s.orderRepo.FindByID(order.ID)
}

// dispatch assigns the first free approved driver for the vehicle type.
// When none is available the order simply stays searching.
func (s *OrderService) dispatch(order *model.Order) {
	driver, err := s.drivers.FindFirstAvailable(order.VehicleType)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("❌ Dispatch lookup failed for order %s: %v", order.ID, err)
		}
		s.push(order.RiderID, model.WSEventOrderSearching, order)
		return
	}

	assigned, err := s.orderRepo.Assign(order.ID, driver.UserID)
	if err != nil || !assigned {
		return
	}

	if _, err := s.drivers.SetAvailability(driver.UserID, false); err != nil {
		log.Printf("⚠️ Failed to hold driver %s: %v", driver.UserID, err)
	}

	order.DriverID = &driver.UserID
	order.Status = model.OrderStatusAccepted

	if s.notifier != nil {
		if err := s.notifier.SendOrderAssigned(context.Background(), driver.UserID, order); err != nil {
			log.Printf("⚠️ Failed to push assignment to driver %s: %v", driver.UserID, err)
		}
	}
	s.push(order.RiderID, model.WSEventOrderAccepted, order)
}

// Start moves an accepted order to ongoing (driver picked the rider up)
func (s *OrderService) Start(driverID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.ownedByDriver(driverID, orderID)
	if err != nil {
		return nil, err
	}

	ok, err := s.orderRepo.UpdateStatus(orderID, model.OrderStatusAccepted, model.OrderStatusOngoing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOrderStatus
	}

	order.Status = model.OrderStatusOngoing
	s.notifyRider(order)
	return s.orderRepo.FindByID(orderID)
}

// Complete finishes a ride and settles the fare: the rider is debited the
// full fare, the driver is credited the fare minus the platform commission,
// and the driver goes back into the dispatch pool.
func (s *OrderService) Complete(driverID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.ownedByDriver(driverID, orderID)
	if err != nil {
		return nil, err
	}

	ok, err := s.orderRepo.UpdateStatus(orderID, model.OrderStatusOngoing, model.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOrderStatus
	}
	order.Status = model.OrderStatusCompleted

	ref := order.ID.String()
	if err := s.wallet.Debit(order.RiderID, order.Fare, ref, "ride fare"); err != nil {
		// Balance was checked at creation; a failure here means a concurrent
		// spend. The order stays completed and the debt is logged for ops.
		log.Printf("❌ Fare debit failed for order %s: %v", order.ID, err)
	} else {
		payout := order.Fare - order.Fare*int64(s.commissionPercent)/100
		if err := s.wallet.Credit(driverID, payout, ref, "ride payout"); err != nil {
			log.Printf("❌ Driver payout failed for order %s: %v", order.ID, err)
		}
	}

	if _, err := s.drivers.SetAvailability(driverID, true); err != nil {
		log.Printf("⚠️ Failed to release driver %s: %v", driverID, err)
	}

	s.notifyRider(order)
	return s.orderRepo.FindByID(orderID)
}

// Cancel aborts an order. Riders may cancel while searching; drivers while
// accepted (before pickup). A cancelling driver is released back to the pool.
func (s *OrderService) Cancel(userID uuid.UUID, role model.Role, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}

	var from model.OrderStatus
	switch role {
	case model.RoleRider:
		if order.RiderID != userID {
			return nil, ErrNotOrderParty
		}
		from = model.OrderStatusSearching
	case model.RoleDriver:
		if order.DriverID == nil || *order.DriverID != userID {
			return nil, ErrNotOrderParty
		}
		from = model.OrderStatusAccepted
	default:
		if order.Status.IsTerminal() {
			return nil, ErrInvalidOrderStatus
		}
		from = order.Status
	}

	ok, err := s.orderRepo.UpdateStatus(orderID, from, model.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOrderStatus
	}
	order.Status = model.OrderStatusCancelled

	if order.DriverID != nil {
		if _, err := s.drivers.SetAvailability(*order.DriverID, true); err != nil {
			log.Printf("⚠️ Failed to release driver %s: %v", *order.DriverID, err)
		}
	}
	s.notifyRider(order)
	return s.orderRepo.FindByID(orderID)
}

// Get returns an order to one of its parties or an admin
func (s *OrderService) Get(requesterID uuid.UUID, role model.Role, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && order.RiderID != requesterID &&
		(order.DriverID == nil || *order.DriverID != requesterID) {
		return nil, ErrNotOrderParty
	}
	return order, nil
}

// ListForRider returns the rider's order history
func (s *OrderService) ListForRider(riderID uuid.UUID, req model.OrderListRequest) ([]model.Order, error) {
	return s.orderRepo.ListByRider(riderID, req.Status, clampLimit(req.Limit), req.Offset)
}

// ListForDriver returns the driver's order history
func (s *OrderService) ListForDriver(driverID uuid.UUID, req model.OrderListRequest) ([]model.Order, error) {
	return s.orderRepo.ListByDriver(driverID, req.Status, clampLimit(req.Limit), req.Offset)
}

// ListAll returns every order (admin)
func (s *OrderService) ListAll(req model.OrderListRequest) ([]model.Order, error) {
	return s.orderRepo.ListAll(req.Status, clampLimit(req.Limit), req.Offset)
}

// ==================== Internal Helpers ====================

func (s *OrderService) findOrder(orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ownedByDriver(driverID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.DriverID == nil || *order.DriverID != driverID {
		return nil, ErrNotOrderParty
	}
	return order, nil
}

func (s *OrderService) notifyRider(order *model.Order) {
	if s.notifier != nil {
		if err := s.notifier.SendOrderStatus(context.Background(), order.RiderID, order); err != nil {
			log.Printf("⚠️ Failed to push status to rider %s: %v", order.RiderID, err)
		}
	}
	var eventType string
	switch order.Status {
	case model.OrderStatusOngoing:
		eventType = model.WSEventOrderStarted
	case model.OrderStatusCompleted:
		eventType = model.WSEventOrderCompleted
	case model.OrderStatusCancelled:
		eventType = model.WSEventOrderCancelled
	default:
		eventType = model.WSEventOrderAccepted
	}
	s.push(order.RiderID, eventType, order)
}

func (s *OrderService) push(userID uuid.UUID, eventType string, order *model.Order) {
	if s.pusher == nil {
		return
	}
	s.pusher.SendToUser(userID, &model.WSEvent{
		Type: eventType,
		Payload: model.OrderEvent{
			OrderID:  order.ID,
			Status:   order.Status,
			DriverID: order.DriverID,
		},
	})
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
