package domain

import "time"

type BookingStatus string

const (
	// BookingDraft is the legacy schema default. Nothing creates drafts and
	// they never hold capacity.
	BookingDraft     BookingStatus = "draft"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// BlockingStatuses lists the statuses whose line items count against
// equipment capacity.
var BlockingStatuses = []BookingStatus{BookingConfirmed}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingDraft, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// CanTransitionTo reports whether next is reachable from s. Only confirmed
// bookings move, and only into a terminal state.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return s == BookingConfirmed && next.Terminal()
}

type Booking struct {
	ID          int64         `json:"id" gorm:"primaryKey"`
	TenantID    TenantID      `json:"company_id" gorm:"column:company_id;not null;index:idx_bookings_company_status,priority:1;index:idx_bookings_company_start,priority:1;index:idx_bookings_company_end,priority:1"`
	Title       string        `json:"title" gorm:"size:255;not null"`
	Description *string       `json:"description" gorm:"type:text"`
	StartDate   time.Time     `json:"start_date" gorm:"not null;index:idx_bookings_company_start,priority:2"`
	EndDate     time.Time     `json:"end_date" gorm:"not null;index:idx_bookings_company_end,priority:2"`
	Status      BookingStatus `json:"status" gorm:"type:varchar(16);not null;default:'confirmed';index:idx_bookings_company_status,priority:2"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Items []BookingItem `json:"items" gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Booking) TableName() string { return "bookings" }

// BookingItem is the quantity of one equipment reserved by one booking.
// Items are immutable once written.
type BookingItem struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	BookingID   int64     `json:"booking_id" gorm:"not null;uniqueIndex:idx_booking_items_booking_equipment,priority:1"`
	EquipmentID int64     `json:"equipment_id" gorm:"not null;uniqueIndex:idx_booking_items_booking_equipment,priority:2;index:idx_booking_items_equipment"`
	Qty         int       `json:"qty" gorm:"not null;check:chk_booking_items_qty,qty > 0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Equipment *Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (BookingItem) TableName() string { return "booking_items" }

// RequestedItem is one (equipment, quantity) pair of a check or create call.
type RequestedItem struct {
	EquipmentID int64 `json:"equipment_id"`
	Qty         int   `json:"qty"`
}
