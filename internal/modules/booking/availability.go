package booking

import (
	"context"
	"sort"
	"time"

	"gearbook/internal/domain"
)

const reasonNotFound = "Equipment not found"

type ItemAvailability struct {
	EquipmentID   int64  `json:"equipment_id"`
	EquipmentName string `json:"equipment_name,omitempty"`
	Requested     int    `json:"requested"`
	AvailableQty  int    `json:"available_qty"`
	TotalQty      int    `json:"total_qty"`
	AlreadyBooked int    `json:"already_booked"`
	Available     bool   `json:"available"`
	Reason        string `json:"reason,omitempty"`

	found bool
}

type Period struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// AvailabilityReport holds one verdict per requested item, in request order.
type AvailabilityReport struct {
	Available bool               `json:"available"`
	Details   []ItemAvailability `json:"details"`
	Period    Period             `json:"period"`
}

func (r *AvailabilityReport) missing() []int64 {
	var out []int64
	for _, d := range r.Details {
		if !d.found {
			out = append(out, d.EquipmentID)
		}
	}
	return out
}

func (r *AvailabilityReport) shortfalls() []Shortfall {
	var out []Shortfall
	for _, d := range r.Details {
		if d.found && !d.Available {
			out = append(out, Shortfall{EquipmentID: d.EquipmentID, Requested: d.Requested, Available: d.AvailableQty})
		}
	}
	return out
}

// assess is the single capacity computation behind both the advisory check
// and booking creation. With lock set it must run inside a transaction: the
// equipment rows are locked in ascending id order before the committed sums
// are read, so no concurrent creator can commit against the same rows until
// this transaction ends.
func (s *Service) assess(ctx context.Context, tenant domain.TenantID, w domain.Window, items []domain.RequestedItem, lock bool) (*AvailabilityReport, error) {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.EquipmentID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	found, err := s.equipment.FindByIDs(ctx, tenant, ids, lock)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.Equipment, len(found))
	present := make([]int64, 0, len(found))
	for _, e := range found {
		byID[e.ID] = e
		present = append(present, e.ID)
	}

	committed, err := s.bookings.CommittedQuantities(ctx, tenant, w, present)
	if err != nil {
		return nil, err
	}

	report := &AvailabilityReport{
		Available: true,
		Details:   make([]ItemAvailability, 0, len(items)),
		Period:    Period{StartDate: w.Start, EndDate: w.End},
	}
	for _, it := range items {
		e, ok := byID[it.EquipmentID]
		if !ok {
			report.Available = false
			report.Details = append(report.Details, ItemAvailability{
				EquipmentID:  it.EquipmentID,
				Requested:    it.Qty,
				AvailableQty: 0,
				Available:    false,
				Reason:       reasonNotFound,
			})
			continue
		}

		booked := committed[e.ID]
		free := e.TotalQty - booked
		ok = it.Qty <= free
		if !ok {
			report.Available = false
		}
		report.Details = append(report.Details, ItemAvailability{
			EquipmentID:   e.ID,
			EquipmentName: e.Name,
			Requested:     it.Qty,
			AvailableQty:  free,
			TotalQty:      e.TotalQty,
			AlreadyBooked: booked,
			Available:     ok,
			found:         true,
		})
	}
	return report, nil
}

func validateRequest(tenant domain.TenantID, w domain.Window, items []domain.RequestedItem) error {
	if !tenant.Valid() {
		return invalid("company_id", "tenant is required")
	}
	if w.Start.IsZero() || w.End.IsZero() {
		return invalid("start_date", "start_date and end_date are required")
	}
	if !w.End.After(w.Start) {
		return invalid("end_date", "%s", domain.ErrInvalidWindow.Error())
	}
	if len(items) == 0 {
		return invalid("items", "at least one item is required")
	}

	seen := make(map[int64]struct{}, len(items))
	for i, it := range items {
		if it.EquipmentID <= 0 {
			return invalid("items", "item %d: equipment_id must be positive", i)
		}
		if it.Qty < 1 {
			return invalid("items", "item %d: qty must be at least 1", i)
		}
		if _, dup := seen[it.EquipmentID]; dup {
			return invalid("items", "equipment %d is listed more than once", it.EquipmentID)
		}
		seen[it.EquipmentID] = struct{}{}
	}
	return nil
}
