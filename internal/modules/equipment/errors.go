package equipment

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrEquipmentInUse    = errors.New("equipment is referenced by bookings")
	ErrInvalidInput      = errors.New("invalid equipment input")
	ErrBelowCommitted    = errors.New("total_qty is below the quantity confirmed bookings hold")
)

// BelowCommittedError reports the peak that a lowered total_qty would not
// cover.
type BelowCommittedError struct {
	EquipmentID int64
	Requested   int
	Committed   int
	PeakAt      time.Time
}

func (e *BelowCommittedError) Error() string {
	return fmt.Sprintf("equipment %d: total_qty %d is below the %d units confirmed bookings hold at %s",
		e.EquipmentID, e.Requested, e.Committed, e.PeakAt.Format(time.RFC3339))
}

func (e *BelowCommittedError) Is(target error) bool { return target == ErrBelowCommitted }
