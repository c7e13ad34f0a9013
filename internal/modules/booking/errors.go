package booking

import (
	"errors"
	"fmt"
	"strings"

	"gearbook/internal/domain"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrEquipmentNotFound   = errors.New("equipment not found")
	ErrCapacityConflict    = errors.New("insufficient stock for one or more items")
	ErrIllegalTransition   = errors.New("illegal booking status transition")
	ErrTransactionConflict = errors.New("transaction conflict, retry later")
)

// ValidationError is returned before any ledger access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Shortfall describes one item that could not be reserved.
type Shortfall struct {
	EquipmentID int64 `json:"equipment_id"`
	Requested   int   `json:"requested"`
	Available   int   `json:"available"`
}

// CapacityConflictError lists every requested item that did not fit.
type CapacityConflictError struct {
	Items []Shortfall
}

func (e *CapacityConflictError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("equipment %d: requested %d, available %d", it.EquipmentID, it.Requested, it.Available))
	}
	return ErrCapacityConflict.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *CapacityConflictError) Is(target error) bool { return target == ErrCapacityConflict }

// IllegalTransitionError carries the status the booking was found in.
type IllegalTransitionError struct {
	Current domain.BookingStatus
	Target  domain.BookingStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s: only confirmed bookings can change status", e.Current, e.Target)
}

func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }
