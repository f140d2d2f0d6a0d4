package repository

import (
	"time"

	"github.com/adityarh/antarin/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository handles database operations for ride orders
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order
func (r *OrderRepository) Create(order *model.Order) error {
	return r.db.Create(order).Error
}

// FindByID finds an order by UUID
func (r *OrderRepository) FindByID(id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Assign attaches a driver to a searching order. The status guard makes the
// assignment safe against a concurrent cancel or a second dispatch.
func (r *OrderRepository) Assign(orderID, driverID uuid.UUID) (bool, error) {
	now := time.Now()
	res := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusSearching).
		Updates(map[string]interface{}{
			"driver_id":   driverID,
			"status":      model.OrderStatusAccepted,
			"accepted_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateStatus moves an order along its state machine with a guard on the
// expected previous status.
func (r *OrderRepository) UpdateStatus(orderID uuid.UUID, from, to model.OrderStatus) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{"status": to}
	switch to {
	case model.OrderStatusOngoing:
		updates["started_at"] = now
	case model.OrderStatusCompleted:
		updates["completed_at"] = now
	case model.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}
	res := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListByRider returns a rider's orders, newest first
func (r *OrderRepository) ListByRider(riderID uuid.UUID, status string, limit, offset int) ([]model.Order, error) {
	return r.list(r.db.Where("rider_id = ?", riderID), status, limit, offset)
}

// ListByDriver returns a driver's orders, newest first
func (r *OrderRepository) ListByDriver(driverID uuid.UUID, status string, limit, offset int) ([]model.Order, error) {
	return r.list(r.db.Where("driver_id = ?", driverID), status, limit, offset)
}

// ListAll returns every order, newest first (admin)
func (r *OrderRepository) ListAll(status string, limit, offset int) ([]model.Order, error) {
	return r.list(r.db, status, limit, offset)
}

func (r *OrderRepository) list(q *gorm.DB, status string, limit, offset int) ([]model.Order, error) {
	var orders []model.Order
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error
	return orders, err
}

// HasActiveOrder reports whether the rider already has a ride in flight
func (r *OrderRepository) HasActiveOrder(riderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.Order{}).
		Where("rider_id = ? AND status IN ?", riderID,
			[]model.OrderStatus{model.OrderStatusSearching, model.OrderStatusAccepted, model.OrderStatusOngoing}).
		Count(&count).Error
	return count > 0, err
}
