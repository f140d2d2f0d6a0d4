package handler

import (
	"net/http"
	"strconv"

	"github.com/adityarh/antarin/internal/model"
	"github.com/adityarh/antarin/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DriverHandler handles driver profile and review endpoints
type DriverHandler struct {
	driverService *service.DriverService
}

func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// CreateProfile godoc
// @Summary Submit a driver profile for review
// @Tags Driver
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body model.DriverProfileRequest true "Driver profile"
// @Success 201 {object} model.DriverProfile
// @Failure 409 {object} model.ErrorResponse
// @Router /driver/profile [post]
func (h *DriverHandler) CreateProfile(c *gin.Context) {
	var req model.DriverProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	profile, err := h.driverService.CreateProfile(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// GetProfile godoc
// @Summary Get the caller's driver profile
// @Tags Driver
// @Security BearerAuth
// @Produce json
// @Success 200 {object} model.DriverProfile
// @Failure 404 {object} model.ErrorResponse
// @Router /driver/profile [get]
func (h *DriverHandler) GetProfile(c *gin.Context) {
	profile, err := h.driverService.GetProfile(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update vehicle data (sends the profile back to review)
// @Tags Driver
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body model.DriverProfileRequest true "Driver profile"
// @Success 200 {object} model.DriverProfile
// @Router /driver/profile [put]
func (h *DriverHandler) UpdateProfile(c *gin.Context) {
	var req model.DriverProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	profile, err := h.driverService.UpdateProfile(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UploadDocument godoc
// @Summary Upload a license or vehicle document
// @Tags Driver
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param kind path string true "Document kind" Enums(license, vehicle)
// @Param file formData file true "Document file (jpg, png, webp, pdf)"
// @Success 200 {object} model.DriverDocumentResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /driver/documents/{kind} [post]
func (h *DriverHandler) UploadDocument(c *gin.Context) {
	kind := c.Param("kind")
	if kind != service.DocKindLicense && kind != service.DocKindVehicle {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Unknown document kind"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "File is required", Message: err.Error()})
		return
	}
	defer file.Close()

	resp, err := h.driverService.UploadDocument(c.Request.Context(), currentUserID(c), kind, file, header)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetDocument godoc
// @Summary Get a fresh read link for an uploaded document
// @Tags Driver
// @Security BearerAuth
// @Produce json
// @Param kind path string true "Document kind" Enums(license, vehicle)
// @Success 200 {object} model.DriverDocumentResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /driver/documents/{kind} [get]
func (h *DriverHandler) GetDocument(c *gin.Context) {
	kind := c.Param("kind")
	if kind != service.DocKindLicense && kind != service.DocKindVehicle {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Unknown document kind"})
		return
	}

	resp, err := h.driverService.DocumentLink(c.Request.Context(), currentUserID(c), kind)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetAvailability godoc
// @Summary Go online or offline for order dispatch
// @Tags Driver
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body model.DriverAvailabilityRequest true "Availability"
// @Success 200 {object} model.SuccessResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /driver/availability [put]
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req model.DriverAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if err := h.driverService.SetAvailability(currentUserID(c), *req.IsAvailable); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Availability updated"})
}

// Review godoc
// @Summary Approve or reject a driver profile (admin only)
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param body body model.DriverReviewRequest true "Review decision"
// @Success 200 {object} model.SuccessResponse
// @Router /admin/drivers/{id}/review [put]
func (h *DriverHandler) Review(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid profile id"})
		return
	}

	var req model.DriverReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if err := h.driverService.Review(profileID, req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Review recorded"})
}

// ListByStatus godoc
// @Summary List driver profiles by review status (admin only)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param status query string false "Status" Enums(pending, approved, rejected) default(pending)
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} model.DriverProfile
// @Router /admin/drivers [get]
func (h *DriverHandler) ListByStatus(c *gin.Context) {
	status := model.DriverStatus(c.DefaultQuery("status", string(model.DriverStatusPending)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	profiles, err := h.driverService.ListByStatus(status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profiles)
}
