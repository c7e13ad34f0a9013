package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gearbook/internal/domain"
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
	bookings := rg.Group("/bookings")
	{
		bookings.GET("", h.ListBookings)
		bookings.POST("", h.CreateBooking)
		bookings.POST("/check-availability", h.CheckAvailability)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/complete", h.CompleteBooking)
		bookings.DELETE("/:id", h.CancelBooking)
	}
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	tenant, ok := middleware.Tenant(c)
	if !ok {
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Errors(err))
		return
	}
	w, err := req.window()
	if err != nil {
		h.writeError(c, err)
		return
	}

	report, err := h.service.CheckAvailability(c.Request.Context(), tenant, w, req.items())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	tenant, ok := middleware.Tenant(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Errors(err))
		return
	}
	w, err := req.window()
	if err != nil {
		h.writeError(c, err)
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), tenant, CreateBookingInput{
		Title:       req.Title,
		Description: req.Description,
		Window:      w,
		Items:       req.items(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) ListBookings(c *gin.Context) {
	tenant, ok := middleware.Tenant(c)
	if !ok {
		return
	}

	var q ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query", validator.Errors(err))
		return
	}

	query := ListQuery{Status: domain.BookingStatus(q.Status), Page: q.Page, PerPage: q.PerPage}
	if q.StartDate != "" {
		t, err := domain.ParseInstant(q.StartDate)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid start_date")
			return
		}
		query.From = &t
	}
	if q.EndDate != "" {
		t, err := domain.ParseInstant(q.EndDate)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid end_date")
			return
		}
		query.To = &t
	}

	page, err := h.service.ListBookings(c.Request.Context(), tenant, query)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, BookingListResponse{
		CurrentPage: page.Page,
		PerPage:     page.PerPage,
		Total:       page.Total,
		LastPage:    page.LastPage,
		Data:        page.Bookings,
	})
}

func (h *Handler) GetBooking(c *gin.Context) {
	tenant, ok := middleware.Tenant(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), tenant, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CompleteBooking(c *gin.Context) {
	tenant, ok := middleware.Tenant(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.CompleteBooking(c.Request.Context(), tenant, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking marked as completed successfully",
		"booking": b,
	})
}

// CancelBooking answers DELETE /bookings/:id. The booking is kept with
// status cancelled.
func (h *Handler) CancelBooking(c *gin.Context) {
	tenant, ok := middleware.Tenant(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), tenant, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled successfully",
		"booking": b,
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		conflict   *CapacityConflictError
		transition *IllegalTransitionError
		invalidErr *ValidationError
	)

	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": ErrCapacityConflict.Error(),
			"errors": gin.H{
				"items": conflict.Items,
			},
		})
	case errors.As(err, &transition):
		c.JSON(http.StatusBadRequest, gin.H{
			"message":        transition.Error(),
			"current_status": transition.Current,
		})
	case errors.As(err, &invalidErr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", invalidErr.Message, gin.H{invalidErr.Field: invalidErr.Message})
	case errors.Is(err, ErrBookingNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrEquipmentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrTransactionConflict):
		c.Header("Retry-After", "1")
		response.Error(c, http.StatusServiceUnavailable, "TRANSACTION_CONFLICT", "Booking could not be committed, please retry")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return 0, false
	}
	return id, true
}
