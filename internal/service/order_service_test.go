package service

import (
	"context"
	"errors"
	"testing"

	"github.com/adityarh/antarin/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- mocks ---

type mockOrderStore struct{ mock.Mock }

func (m *mockOrderStore) Create(order *model.Order) error {
	return m.Called(order).Error(0)
}
func (m *mockOrderStore) FindByID(id uuid.UUID) (*model.Order, error) {
	args := m.Called(id)
	if o, _ := args.Get(0).(*model.Order); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOrderStore) Assign(orderID, driverID uuid.UUID) (bool, error) {
	args := m.Called(orderID, driverID)
	return args.Bool(0), args.Error(1)
}
func (m *mockOrderStore) UpdateStatus(orderID uuid.UUID, from, to model.OrderStatus) (bool, error) {
	args := m.Called(orderID, from, to)
	return args.Bool(0), args.Error(1)
}
func (m *mockOrderStore) ListByRider(riderID uuid.UUID, status string, limit, offset int) ([]model.Order, error) {
	args := m.Called(riderID, status, limit, offset)
	if o, _ := args.Get(0).([]model.Order); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOrderStore) ListByDriver(driverID uuid.UUID, status string, limit, offset int) ([]model.Order, error) {
	args := m.Called(driverID, status, limit, offset)
	if o, _ := args.Get(0).([]model.Order); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOrderStore) ListAll(status string, limit, offset int) ([]model.Order, error) {
	args := m.Called(status, limit, offset)
	if o, _ := args.Get(0).([]model.Order); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOrderStore) HasActiveOrder(riderID uuid.UUID) (bool, error) {
	args := m.Called(riderID)
	return args.Bool(0), args.Error(1)
}

type mockDispatchPool struct{ mock.Mock }

func (m *mockDispatchPool) FindFirstAvailable(vehicleType model.VehicleType) (*model.DriverProfile, error) {
	args := m.Called(vehicleType)
	if d, _ := args.Get(0).(*model.DriverProfile); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDispatchPool) SetAvailability(userID uuid.UUID, available bool) (bool, error) {
	args := m.Called(userID, available)
	return args.Bool(0), args.Error(1)
}

type mockPusher struct{ mock.Mock }

func (m *mockPusher) SendToUser(userID uuid.UUID, event *model.WSEvent) {
	m.Called(userID, event)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) SendOrderAssigned(ctx context.Context, driverID uuid.UUID, order *model.Order) error {
	return m.Called(ctx, driverID, order).Error(0)
}
func (m *mockNotifier) SendOrderStatus(ctx context.Context, riderID uuid.UUID, order *model.Order) error {
	return m.Called(ctx, riderID, order).Error(0)
}

// --- builder ---

type orderFixture struct {
	orders  *mockOrderStore
	drivers *mockDispatchPool
	wallets *mockWalletStore
	pusher  *mockPusher
	fcm     *mockNotifier
	svc     *OrderService
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:  &mockOrderStore{},
		drivers: &mockDispatchPool{},
		wallets: &mockWalletStore{},
		pusher:  &mockPusher{},
		fcm:     &mockNotifier{},
	}
	wallet := NewWalletService(f.wallets)
	f.svc = NewOrderService(f.orders, f.drivers, wallet, f.fcm, f.pusher, 20)
	return f
}

func rideRequest(fare int64) model.CreateOrderRequest {
	return model.CreateOrderRequest{
		PickupAddress: "Jl. Sudirman 1",
		PickupLat:     -6.2088,
		PickupLng:     106.8456,
		DestAddress:   "Jl. Thamrin 10",
		DestLat:       -6.1944,
		DestLng:       106.8229,
		VehicleType:   model.VehicleMotorbike,
		Fare:          fare,
	}
}

// --- Create / dispatch ---

func TestCreateOrder_AssignsFirstAvailableDriver(t *testing.T) {
	f := newOrderFixture()
	riderID := uuid.New()
	driverID := uuid.New()
	orderID := uuid.New()

	f.orders.On("HasActiveOrder", riderID).Return(false, nil)
	f.wallets.On("FindByUserID", riderID).Return(existingWallet(riderID, 50_000), nil)
	f.orders.On("Create", mock.AnythingOfType("*model.Order")).Run(func(args mock.Arguments) {
		args.Get(0).(*model.Order).ID = orderID
	}).Return(nil)
	f.drivers.On("FindFirstAvailable", model.VehicleMotorbike).Return(&model.DriverProfile{
		UserID:      driverID,
		VehicleType: model.VehicleMotorbike,
		Status:      model.DriverStatusApproved,
		IsAvailable: true,
	}, nil)
	f.orders.On("Assign", orderID, driverID).Return(true, nil)
	f.drivers.On("SetAvailability", driverID, false).Return(true, nil)
	f.fcm.On("SendOrderAssigned", mock.Anything, driverID, mock.AnythingOfType("*model.Order")).Return(nil)
	f.pusher.On("SendToUser", riderID, mock.MatchedBy(func(e *model.WSEvent) bool {
		return e.Type == model.WSEventOrderAccepted
	})).Return()
	f.orders.On("FindByID", orderID).Return(&model.Order{
		ID: orderID, RiderID: riderID, DriverID: &driverID, Status: model.OrderStatusAccepted,
	}, nil)

	order, err := f.svc.Create(riderID, rideRequest(12_000))

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusAccepted, order.Status)
	require.NotNil(t, order.DriverID)
	assert.Equal(t, driverID, *order.DriverID)
	f.orders.AssertExpectations(t)
	f.drivers.AssertExpectations(t)
	f.fcm.AssertExpectations(t)
}

func TestCreateOrder_NoDriver_StaysSearching(t *testing.T) {
	f := newOrderFixture()
	riderID := uuid.New()
	orderID := uuid.New()

	f.orders.On("HasActiveOrder", riderID).Return(false, nil)
	f.wallets.On("FindByUserID", riderID).Return(existingWallet(riderID, 50_000), nil)
	f.orders.On("Create", mock.AnythingOfType("*model.Order")).Run(func(args mock.Arguments) {
		args.Get(0).(*model.Order).ID = orderID
	}).Return(nil)
	f.drivers.On("FindFirstAvailable", model.VehicleMotorbike).Return(nil, gorm.ErrRecordNotFound)
	f.pusher.On("SendToUser", riderID, mock.MatchedBy(func(e *model.WSEvent) bool {
		return e.Type == model.WSEventOrderSearching
	})).Return()
	f.orders.On("FindByID", orderID).Return(&model.Order{
		ID: orderID, RiderID: riderID, Status: model.OrderStatusSearching,
	}, nil)

	order, err := f.svc.Create(riderID, rideRequest(12_000))

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusSearching, order.Status)
	f.orders.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything)
}

func TestCreateOrder_ActiveOrderExists_Rejected(t *testing.T) {
	f := newOrderFixture()
	riderID := uuid.New()
	f.orders.On("HasActiveOrder", riderID).Return(true, nil)

	_, err := f.svc.Create(riderID, rideRequest(12_000))

	assert.True(t, errors.Is(err, ErrActiveOrderExists))
	f.orders.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateOrder_InsufficientBalance_Rejected(t *testing.T) {
	f := newOrderFixture()
	riderID := uuid.New()
	f.orders.On("HasActiveOrder", riderID).Return(false, nil)
	f.wallets.On("FindByUserID", riderID).Return(existingWallet(riderID, 100), nil)

	_, err := f.svc.Create(riderID, rideRequest(12_000))

	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	f.orders.AssertNotCalled(t, "Create", mock.Anything)
}

func TestRetryDispatch_NonSearchingOrder_Rejected(t *testing.T) {
	f := newOrderFixture()
	orderID := uuid.New()
	f.orders.On("FindByID", orderID).Return(&model.Order{
		ID: orderID, Status: model.OrderStatusOngoing,
	}, nil)

	_, err := f.svc.RetryDispatch(orderID)

	assert.True(t, errors.Is(err, ErrInvalidOrderStatus))
}

// --- Start ---

func TestStart_TransitionsAcceptedToOngoing(t *testing.T) {
	f := newOrderFixture()
	riderID := uuid.New()
	driverID := uuid.New()
	orderID := uuid.New()
	order := &model.Order{ID: orderID, RiderID: riderID, DriverID: &driverID, Status: model.OrderStatusAccepted}

	f.orders.On("FindByID", orderID).Return(order, nil)
	f.orders.On("UpdateStatus", orderID, model.OrderStatusAccepted, model.OrderStatusOngoing).Return(true, nil)
	f.fcm.On("SendOrderStatus", mock.Anything, riderID, mock.AnythingOfType("*model.Order")).Return(nil)
	f.pusher.On("SendToUser", riderID, mock.MatchedBy(func(e *model.WSEvent) bool {
		return e.Type == model.WSEventOrderStarted
	})).Return()

	_, err := f.svc.Start(driverID, orderID)

	require.NoError(t, err)
	f.orders.AssertExpectations(t)
}

func TestStart_NotTheAssignedDriver_Rejected(t *testing.T) {
	f := newOrderFixture()
	driverID := uuid.New()
	otherDriver := uuid.New()
	orderID := uuid.New()
	f.orders.On("FindByID", orderID).Return(&model.Order{
		ID: orderID, DriverID: &otherDriver, Status: model.OrderStatusAccepted,
	}, nil)

	_, err := f.svc.Start(driverID, orderID)

	assert.True(t, errors.Is(err, ErrNotOrderParty))
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

// --- Complete (fare settlement) ---

func TestComplete_SettlesFareWithCommission(t *testing.T) {
	f := newOrderFixture()
	riderID := uuid.New()
	driverID := uuid.New()
	orderID := uuid.New()
	order := &model.Order{
		ID: orderID, RiderID: riderID, DriverID: &driverID,
		Status: model.OrderStatusOngoing, Fare: 10_000,
	}
	riderWallet := existingWallet(riderID, 50_000)
	driverWallet := existingWallet(driverID, 0)

	f.orders.On("FindByID", orderID).Return(order, nil)
	f.orders.On("UpdateStatus", orderID, model.OrderStatusOngoing, model.OrderStatusCompleted).Return(true, nil)
	f.wallets.On("FindByUserID", riderID).Return(riderWallet, nil)
	f.wallets.On("Apply", riderWallet.ID, model.TransactionDebit, int64(10_000), orderID.String(), "ride fare").Return(nil)
	f.wallets.On("FindByUserID", driverID).Return(driverWallet, nil)
	// 20% commission: the driver keeps 8000 of the 10000 fare
	f.wallets.On("Apply", driverWallet.ID, model.TransactionCredit, int64(8_000), orderID.String(), "ride payout").Return(nil)
	f.drivers.On("SetAvailability", driverID, true).Return(true, nil)
	f.fcm.On("SendOrderStatus", mock.Anything, riderID, mock.AnythingOfType("*model.Order")).Return(nil)
	f.pusher.On("SendToUser", riderID, mock.MatchedBy(func(e *model.WSEvent) bool {
		return e.Type == model.WSEventOrderCompleted
	})).Return()

	_, err := f.svc.Complete(driverID, orderID)

	require.NoError(t, err)
	f.wallets.AssertExpectations(t)
	f.drivers.AssertExpectations(t)
}

func TestComplete_DebitFails_NoDriverPayout(t *testing.T) {
	// A concurrent spend can empty the wallet between creation and
	// completion; the ride still completes and the driver is released,
	// but no payout lands.
	f := newOrderFixture()
	riderID := uuid.New()
	driverID := uuid.New()
	orderID := uuid.New()
	order := &model.Order{
		ID: orderID, RiderID: riderID, DriverID: &driverID,
		Status: model.OrderStatusOngoing, Fare: 10_000,
	}
	riderWallet := existingWallet(riderID, 100)

	f.orders.On("FindByID", orderID).Return(order, nil)
	f.orders.On("UpdateStatus", orderID, model.OrderStatusOngoing, model.OrderStatusCompleted).Return(true, nil)
	f.wallets.On("FindByUserID", riderID).Return(riderWallet, nil)
	f.wallets.On("Apply", riderWallet.ID, model.TransactionDebit, int64(10_000), orderID.String(), "ride fare").
		Return(errors.New("balance guard rejected"))
	f.drivers.On("SetAvailability", driverID, true).Return(true, nil)
	f.fcm.On("SendOrderStatus", mock.Anything, riderID, mock.AnythingOfType("*model.Order")).Return(nil)
	f.pusher.On("SendToUser", riderID, mock.Anything).Return()

	_, err := f.svc.Complete(driverID, orderID)

	require.NoError(t, err)
	f.wallets.AssertNotCalled(t, "Apply", mock.Anything, model.TransactionCredit, mock.Anything, mock.Anything, mock.Anything)
}

// --- Cancel ---

func TestCancel_RiderWhileSearching(t *testing.T) {
	f := newOrderFixture()
	riderID := uuid.New()
	orderID := uuid.New()
	order := &model.Order{ID: orderID, RiderID: riderID, Status: model.OrderStatusSearching}

	f.orders.On("FindByID", orderID).Return(order, nil)
	f.orders.On("UpdateStatus", orderID, model.OrderStatusSearching, model.OrderStatusCancelled).Return(true, nil)
	f.fcm.On("SendOrderStatus", mock.Anything, riderID, mock.AnythingOfType("*model.Order")).Return(nil)
	f.pusher.On("SendToUser", riderID, mock.MatchedBy(func(e *model.WSEvent) bool {
		return e.Type == model.WSEventOrderCancelled
	})).Return()

	_, err := f.svc.Cancel(riderID, model.RoleRider, orderID)

	require.NoError(t, err)
	f.orders.AssertExpectations(t)
}

func TestCancel_RiderAfterAccept_Rejected(t *testing.T) {
	// The conditional update only matches the searching status, so a
	// rider cancelling after a driver accepted gets a clean conflict.
	f := newOrderFixture()
	riderID := uuid.New()
	driverID := uuid.New()
	orderID := uuid.New()
	order := &model.Order{ID: orderID, RiderID: riderID, DriverID: &driverID, Status: model.OrderStatusAccepted}

	f.orders.On("FindByID", orderID).Return(order, nil)
	f.orders.On("UpdateStatus", orderID, model.OrderStatusSearching, model.OrderStatusCancelled).Return(false, nil)

	_, err := f.svc.Cancel(riderID, model.RoleRider, orderID)

	assert.True(t, errors.Is(err, ErrInvalidOrderStatus))
}

func TestCancel_DriverReleasedBackToPool(t *testing.T) {
	f := newOrderFixture()
	riderID := uuid.New()
	driverID := uuid.New()
	orderID := uuid.New()
	order := &model.Order{ID: orderID, RiderID: riderID, DriverID: &driverID, Status: model.OrderStatusAccepted}

	f.orders.On("FindByID", orderID).Return(order, nil)
	f.orders.On("UpdateStatus", orderID, model.OrderStatusAccepted, model.OrderStatusCancelled).Return(true, nil)
	f.drivers.On("SetAvailability", driverID, true).Return(true, nil)
	f.fcm.On("SendOrderStatus", mock.Anything, riderID, mock.AnythingOfType("*model.Order")).Return(nil)
	f.pusher.On("SendToUser", riderID, mock.Anything).Return()

	_, err := f.svc.Cancel(driverID, model.RoleDriver, orderID)

	require.NoError(t, err)
	f.drivers.AssertExpectations(t)
}

func TestCancel_Outsider_Rejected(t *testing.T) {
	f := newOrderFixture()
	orderID := uuid.New()
	order := &model.Order{ID: orderID, RiderID: uuid.New(), Status: model.OrderStatusSearching}
	f.orders.On("FindByID", orderID).Return(order, nil)

	_, err := f.svc.Cancel(uuid.New(), model.RoleRider, orderID)

	assert.True(t, errors.Is(err, ErrNotOrderParty))
}

func TestCancel_AdminFromAnyStatus(t *testing.T) {
	f := newOrderFixture()
	riderID := uuid.New()
	driverID := uuid.New()
	orderID := uuid.New()
	order := &model.Order{ID: orderID, RiderID: riderID, DriverID: &driverID, Status: model.OrderStatusOngoing}

	f.orders.On("FindByID", orderID).Return(order, nil)
	f.orders.On("UpdateStatus", orderID, model.OrderStatusOngoing, model.OrderStatusCancelled).Return(true, nil)
	f.drivers.On("SetAvailability", driverID, true).Return(true, nil)
	f.fcm.On("SendOrderStatus", mock.Anything, riderID, mock.AnythingOfType("*model.Order")).Return(nil)
	f.pusher.On("SendToUser", riderID, mock.Anything).Return()

	_, err := f.svc.Cancel(uuid.New(), model.RoleAdmin, orderID)

	require.NoError(t, err)
}

func TestCancel_AdminOnTerminalOrder_Rejected(t *testing.T) {
	for _, status := range []model.OrderStatus{model.OrderStatusCompleted, model.OrderStatusCancelled} {
		f := newOrderFixture()
		riderID := uuid.New()
		driverID := uuid.New()
		orderID := uuid.New()
		order := &model.Order{ID: orderID, RiderID: riderID, DriverID: &driverID, Status: status}

		f.orders.On("FindByID", orderID).Return(order, nil)

		_, err := f.svc.Cancel(uuid.New(), model.RoleAdmin, orderID)

		assert.True(t, errors.Is(err, ErrInvalidOrderStatus), "status %s", status)
		f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		f.drivers.AssertNotCalled(t, "SetAvailability", mock.Anything, mock.Anything)
	}
}

// --- Get ---

func TestGet_PartyAccessOnly(t *testing.T) {
	f := newOrderFixture()
	riderID := uuid.New()
	driverID := uuid.New()
	orderID := uuid.New()
	order := &model.Order{ID: orderID, RiderID: riderID, DriverID: &driverID}
	f.orders.On("FindByID", orderID).Return(order, nil)

	_, err := f.svc.Get(riderID, model.RoleRider, orderID)
	require.NoError(t, err)

	_, err = f.svc.Get(driverID, model.RoleDriver, orderID)
	require.NoError(t, err)

	_, err = f.svc.Get(uuid.New(), model.RoleRider, orderID)
	assert.True(t, errors.Is(err, ErrNotOrderParty))

	_, err = f.svc.Get(uuid.New(), model.RoleAdmin, orderID)
	require.NoError(t, err)
}
