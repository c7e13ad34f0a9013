package booking

import (
	"context"
	"sort"
	"time"

	"gearbook/internal/domain"
)

type EquipmentUsage struct {
	EquipmentID   int64     `json:"equipment_id"`
	EquipmentName string    `json:"equipment_name"`
	TotalQty      int       `json:"total_qty"`
	PeakQty       int       `json:"peak_qty"`
	PeakAt        time.Time `json:"peak_at,omitempty"`
	Oversold      bool      `json:"oversold"`
}

type AuditReport struct {
	Tenant     domain.TenantID  `json:"company_id"`
	Equipment  []EquipmentUsage `json:"equipment"`
	Violations int              `json:"violations"`
}

// AuditLedger recomputes, for every equipment of the tenant, the largest
// quantity held by confirmed bookings at any single instant and flags the
// items where it exceeds total_qty.
func (s *Service) AuditLedger(ctx context.Context, tenant domain.TenantID) (*AuditReport, error) {
	if !tenant.Valid() {
		return nil, invalid("company_id", "tenant is required")
	}

	equipment, err := s.equipment.List(ctx, tenant)
	if err != nil {
		return nil, err
	}
	entries, err := s.bookings.BlockingEntries(ctx, tenant)
	if err != nil {
		return nil, err
	}

	byEquipment := make(map[int64][]domain.Hold)
	for _, e := range entries {
		byEquipment[e.EquipmentID] = append(byEquipment[e.EquipmentID], e.Hold())
	}

	sort.Slice(equipment, func(i, j int) bool { return equipment[i].ID < equipment[j].ID })

	report := &AuditReport{Tenant: tenant, Equipment: make([]EquipmentUsage, 0, len(equipment))}
	for _, e := range equipment {
		peak, at := domain.PeakUsage(byEquipment[e.ID])
		usage := EquipmentUsage{
			EquipmentID:   e.ID,
			EquipmentName: e.Name,
			TotalQty:      e.TotalQty,
			PeakQty:       peak,
			PeakAt:        at,
			Oversold:      peak > e.TotalQty,
		}
		if usage.Oversold {
			report.Violations++
		}
		report.Equipment = append(report.Equipment, usage)
	}
	return report, nil
}
