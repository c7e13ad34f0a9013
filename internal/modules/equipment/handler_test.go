package equipment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gearbook/internal/database"
	"gearbook/internal/domain"
	"gearbook/internal/middleware"
	"gearbook/internal/modules/booking"
	"gearbook/internal/repository"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:equipment_handler_test_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	h := NewHandler(NewService(
		repository.NewEquipmentRepository(db),
		repository.NewBookingRepository(db),
		database.NewTxManager(db, time.Second),
	))
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if company := c.GetHeader("X-Test-Company-ID"); company != "" {
			var id int64
			_, _ = fmt.Sscan(company, &id)
			c.Set(middleware.TenantKey, id)
		}
		c.Next()
	})

	v1 := r.Group("/api/v1")
	h.RegisterRoutes(v1)
	return r, db
}

func doJSONRequest(r http.Handler, method, path string, body any, company int64) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if company > 0 {
		req.Header.Set("X-Test-Company-ID", fmt.Sprint(company))
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestEquipmentCRUD(t *testing.T) {
	r, _ := setupTestRouter(t)

	rr := doJSONRequest(r, http.MethodPost, "/api/v1/equipment", map[string]any{
		"name": "Camera", "category": "video", "total_qty": 5,
	}, 1)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created domain.Equipment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.TenantID(1), created.TenantID)

	rr = doJSONRequest(r, http.MethodPost, "/api/v1/equipment", map[string]any{"name": "Audio Mixer", "total_qty": 0}, 1)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSONRequest(r, http.MethodGet, "/api/v1/equipment", nil, 1)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []domain.Equipment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Camera", list[0].Name)
	assert.Equal(t, "Audio Mixer", list[1].Name)

	path := fmt.Sprintf("/api/v1/equipment/%d", created.ID)
	rr = doJSONRequest(r, http.MethodPut, path, map[string]any{"name": "Camera", "total_qty": 8}, 1)
	require.Equal(t, http.StatusOK, rr.Code)
	var updated domain.Equipment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, 8, updated.TotalQty)

	rr = doJSONRequest(r, http.MethodGet, path, nil, 2)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSONRequest(r, http.MethodDelete, path, nil, 2)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSONRequest(r, http.MethodDelete, path, nil, 1)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Deleted.")

	rr = doJSONRequest(r, http.MethodGet, path, nil, 1)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateEquipment_Validation(t *testing.T) {
	r, _ := setupTestRouter(t)

	rr := doJSONRequest(r, http.MethodPost, "/api/v1/equipment", map[string]any{"name": "Light"}, 1)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "total_qty")

	rr = doJSONRequest(r, http.MethodPost, "/api/v1/equipment", map[string]any{"name": "Light", "total_qty": -2}, 1)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSONRequest(r, http.MethodPost, "/api/v1/equipment", map[string]any{"name": "Light", "total_qty": 1}, 0)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDeleteEquipment_InUse(t *testing.T) {
	r, db := setupTestRouter(t)
	ctx := context.Background()

	e := &domain.Equipment{TenantID: 1, Name: "Drone", TotalQty: 1}
	require.NoError(t, repository.NewEquipmentRepository(db).Create(ctx, e))

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repository.NewBookingRepository(db).Create(ctx, &domain.Booking{
		TenantID:  1,
		Title:     "Shoot",
		StartDate: start,
		EndDate:   start.Add(48 * time.Hour),
		Status:    domain.BookingCancelled,
		Items:     []domain.BookingItem{{EquipmentID: e.ID, Qty: 1}},
	}))

	rr := doJSONRequest(r, http.MethodDelete, fmt.Sprintf("/api/v1/equipment/%d", e.ID), nil, 1)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "EQUIPMENT_IN_USE")
}

func TestUpdateEquipment_CannotDropBelowConfirmedBookings(t *testing.T) {
	r, db := setupTestRouter(t)
	ctx := context.Background()

	e := &domain.Equipment{TenantID: 1, Name: "Camera", TotalQty: 5}
	require.NoError(t, repository.NewEquipmentRepository(db).Create(ctx, e))

	bookings := booking.NewService(
		repository.NewBookingRepository(db),
		repository.NewEquipmentRepository(db),
		database.NewTxManager(db, time.Second),
		booking.RetryPolicy{Attempts: 3, Backoff: time.Millisecond},
	)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	w, err := domain.NewWindow(start, start.Add(72*time.Hour))
	require.NoError(t, err)
	_, err = bookings.CreateBooking(ctx, 1, booking.CreateBookingInput{
		Title:  "Shoot",
		Window: w,
		Items:  []domain.RequestedItem{{EquipmentID: e.ID, Qty: 4}},
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/v1/equipment/%d", e.ID)
	rr := doJSONRequest(r, http.MethodPut, path, map[string]any{"name": "Camera", "total_qty": 1}, 1)
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "BELOW_COMMITTED", body.Error.Code)
	assert.Equal(t, float64(4), body.Error.Details["committed_qty"])
	assert.Equal(t, float64(1), body.Error.Details["requested_qty"])

	// nothing changed: one unit is still free and the ledger is consistent
	report, err := bookings.CheckAvailability(ctx, 1, w, []domain.RequestedItem{{EquipmentID: e.ID, Qty: 1}})
	require.NoError(t, err)
	assert.True(t, report.Available)
	assert.Equal(t, 1, report.Details[0].AvailableQty)

	audit, err := bookings.AuditLedger(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, audit.Violations)

	rr = doJSONRequest(r, http.MethodPut, path, map[string]any{"name": "Camera", "total_qty": 3}, 1)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSONRequest(r, http.MethodPut, path, map[string]any{"name": "Camera", "total_qty": 4}, 1)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated domain.Equipment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, 4, updated.TotalQty)
}
