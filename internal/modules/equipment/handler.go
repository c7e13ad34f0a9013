package equipment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gearbook/internal/database"
	"gearbook/internal/middleware"
	"gearbook/internal/pkg/response"
	"gearbook/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	equipment := rg.Group("/equipment")
	{
		equipment.GET("", h.List)
		equipment.POST("", h.Create)
		equipment.GET("/:id", h.Get)
		equipment.PUT("/:id", h.Update)
		equipment.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	tenant, ok := middleware.Tenant(c)
	if !ok {
		return
	}

	items, err := h.service.List(c.Request.Context(), tenant)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c *gin.Context) {
	tenant, ok := middleware.Tenant(c)
	if !ok {
		return
	}
	id, ok := equipmentID(c)
	if !ok {
		return
	}

	e, err := h.service.Get(c.Request.Context(), tenant, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) Create(c *gin.Context) {
	tenant, ok := middleware.Tenant(c)
	if !ok {
		return
	}

	var req EquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Errors(err))
		return
	}

	e, err := h.service.Create(c.Request.Context(), tenant, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) Update(c *gin.Context) {
	tenant, ok := middleware.Tenant(c)
	if !ok {
		return
	}
	id, ok := equipmentID(c)
	if !ok {
		return
	}

	var req EquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Errors(err))
		return
	}

	e, err := h.service.Update(c.Request.Context(), tenant, id, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) Delete(c *gin.Context) {
	tenant, ok := middleware.Tenant(c)
	if !ok {
		return
	}
	id, ok := equipmentID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenant, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted."})
}

func writeError(c *gin.Context, err error) {
	var below *BelowCommittedError

	switch {
	case errors.As(err, &below):
		response.ErrorWithDetails(c, http.StatusConflict, "BELOW_COMMITTED", "total_qty is below the quantity confirmed bookings hold", gin.H{
			"equipment_id":  below.EquipmentID,
			"requested_qty": below.Requested,
			"committed_qty": below.Committed,
			"peak_at":       below.PeakAt,
		})
	case database.IsRetryable(err):
		c.Header("Retry-After", "1")
		response.Error(c, http.StatusServiceUnavailable, "TRANSACTION_CONFLICT", "Equipment is being booked, please retry")
	case errors.Is(err, ErrEquipmentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Equipment not found")
	case errors.Is(err, ErrEquipmentInUse):
		response.Error(c, http.StatusConflict, "EQUIPMENT_IN_USE", "Equipment is referenced by bookings and cannot be deleted")
	case errors.Is(err, ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func equipmentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid equipment ID")
		return 0, false
	}
	return id, true
}
