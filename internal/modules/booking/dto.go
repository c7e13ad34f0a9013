package booking

import (
	"gearbook/internal/domain"
)

type ItemRequest struct {
	EquipmentID int64 `json:"equipment_id" binding:"required,gt=0"`
	Qty         int   `json:"qty" binding:"required,gte=1"`
}

type AvailabilityRequest struct {
	StartDate string        `json:"start_date" binding:"required"`
	EndDate   string        `json:"end_date" binding:"required"`
	Items     []ItemRequest `json:"items" binding:"required,min=1,dive"`
}

type CreateBookingRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description *string `json:"description"`
	AvailabilityRequest
}

type ListBookingsQuery struct {
	Status    string `form:"status" binding:"omitempty,oneof=draft confirmed completed cancelled"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Page      int    `form:"page" binding:"omitempty,gte=1"`
	PerPage   int    `form:"per_page" binding:"omitempty,gte=1"`
}

type BookingListResponse struct {
	CurrentPage int              `json:"current_page"`
	PerPage     int              `json:"per_page"`
	Total       int64            `json:"total"`
	LastPage    int              `json:"last_page"`
	Data        []domain.Booking `json:"data"`
}

// window parses both bounds and checks their order.
func (r AvailabilityRequest) window() (domain.Window, error) {
	start, err := domain.ParseInstant(r.StartDate)
	if err != nil {
		return domain.Window{}, invalid("start_date", "%s", err.Error())
	}
	end, err := domain.ParseInstant(r.EndDate)
	if err != nil {
		return domain.Window{}, invalid("end_date", "%s", err.Error())
	}
	w, err := domain.NewWindow(start, end)
	if err != nil {
		return domain.Window{}, invalid("end_date", "%s", err.Error())
	}
	return w, nil
}

func (r AvailabilityRequest) items() []domain.RequestedItem {
	out := make([]domain.RequestedItem, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, domain.RequestedItem{EquipmentID: it.EquipmentID, Qty: it.Qty})
	}
	return out
}
