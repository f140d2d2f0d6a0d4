package handler

import (
	"net/http"

	"github.com/adityarh/antarin/internal/model"
	"github.com/adityarh/antarin/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles ride order endpoints
type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create godoc
// @Summary Create a ride order and dispatch it to a driver
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body model.CreateOrderRequest true "Order request"
// @Success 201 {object} model.Order
// @Failure 402 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	order, err := h.orderService.Create(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// Get godoc
// @Summary Get an order the caller is a party to
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid order id"})
		return
	}

	order, err := h.orderService.Get(currentUserID(c), currentRole(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListMine godoc
// @Summary List the caller's orders, newest first
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} model.Order
// @Router /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	var req model.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	var (
		orders []model.Order
		err    error
	)
	if currentRole(c) == model.RoleDriver {
		orders, err = h.orderService.ListForDriver(currentUserID(c), req)
	} else {
		orders, err = h.orderService.ListForRider(currentUserID(c), req)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// Start godoc
// @Summary Mark an accepted order as ongoing (driver picks up the rider)
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 409 {object} model.ErrorResponse
// @Router /orders/{id}/start [put]
func (h *OrderHandler) Start(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid order id"})
		return
	}

	order, err := h.orderService.Start(currentUserID(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Complete godoc
// @Summary Complete an ongoing order and settle the fare
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 409 {object} model.ErrorResponse
// @Router /orders/{id}/complete [put]
func (h *OrderHandler) Complete(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid order id"})
		return
	}

	order, err := h.orderService.Complete(currentUserID(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Cancel godoc
// @Summary Cancel an order
// @Description Riders cancel while searching, drivers after accepting, admins at any stage
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 409 {object} model.ErrorResponse
// @Router /orders/{id}/cancel [put]
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid order id"})
		return
	}

	order, err := h.orderService.Cancel(currentUserID(c), currentRole(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// RetryDispatch godoc
// @Summary Re-run driver matching for a searching order (admin only)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 409 {object} model.ErrorResponse
// @Router /admin/orders/{id}/dispatch [put]
func (h *OrderHandler) RetryDispatch(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid order id"})
		return
	}

	order, err := h.orderService.RetryDispatch(orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListAll godoc
// @Summary List all orders (admin only)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} model.Order
// @Router /admin/orders [get]
func (h *OrderHandler) ListAll(c *gin.Context) {
	var req model.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	orders, err := h.orderService.ListAll(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}
