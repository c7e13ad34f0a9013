package equipment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"gearbook/internal/database"
	"gearbook/internal/domain"
)

type Service struct {
	repo   Repository
	ledger Ledger
	tx     TxRunner
}

func NewService(repo Repository, ledger Ledger, tx TxRunner) *Service {
	return &Service{repo: repo, ledger: ledger, tx: tx}
}

func (s *Service) List(ctx context.Context, tenant domain.TenantID) ([]domain.Equipment, error) {
	if !tenant.Valid() {
		return nil, fmt.Errorf("%w: company is required", ErrInvalidInput)
	}
	items, err := s.repo.List(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Equipment{}
	}
	return items, nil
}

// Get hides other tenants' equipment behind ErrEquipmentNotFound.
func (s *Service) Get(ctx context.Context, tenant domain.TenantID, id int64) (*domain.Equipment, error) {
	e, err := s.repo.GetByID(ctx, tenant, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEquipmentNotFound
	}
	return e, err
}

func (s *Service) Create(ctx context.Context, tenant domain.TenantID, in Input) (*domain.Equipment, error) {
	if err := validate(tenant, &in); err != nil {
		return nil, err
	}

	e := &domain.Equipment{
		TenantID:    tenant,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		TotalQty:    in.TotalQty,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	log.Info().Int64("company_id", int64(tenant)).Int64("equipment_id", e.ID).Msg("equipment created")
	return e, nil
}

// Update replaces the editable fields. The row is locked for the whole
// update, the same lock CreateBooking takes, so total_qty cannot drop below
// the peak confirmed bookings hold while a reservation is being written.
func (s *Service) Update(ctx context.Context, tenant domain.TenantID, id int64, in Input) (*domain.Equipment, error) {
	if err := validate(tenant, &in); err != nil {
		return nil, err
	}

	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		locked, err := s.repo.FindByIDs(ctx, tenant, []int64{id}, true)
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return ErrEquipmentNotFound
		}
		e := &locked[0]

		if in.TotalQty < e.TotalQty {
			holds, err := s.ledger.EquipmentHolds(ctx, tenant, id)
			if err != nil {
				return err
			}
			if peak, at := domain.PeakUsage(holds); in.TotalQty < peak {
				return &BelowCommittedError{EquipmentID: id, Requested: in.TotalQty, Committed: peak, PeakAt: at}
			}
		}

		e.Name = in.Name
		e.Category = in.Category
		e.Description = in.Description
		e.TotalQty = in.TotalQty
		return s.repo.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("company_id", int64(tenant)).Int64("equipment_id", id).Int("total_qty", in.TotalQty).Msg("equipment updated")
	return s.Get(ctx, tenant, id)
}

// Delete refuses equipment that any booking line references.
func (s *Service) Delete(ctx context.Context, tenant domain.TenantID, id int64) error {
	if _, err := s.Get(ctx, tenant, id); err != nil {
		return err
	}

	used, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return ErrEquipmentInUse
	}

	n, err := s.repo.Delete(ctx, tenant, id)
	if err != nil {
		// a booking may have claimed it between the check and the delete
		if database.IsForeignKeyViolation(err) {
			return ErrEquipmentInUse
		}
		return err
	}
	if n == 0 {
		return ErrEquipmentNotFound
	}

	log.Info().Int64("company_id", int64(tenant)).Int64("equipment_id", id).Msg("equipment deleted")
	return nil
}

func validate(tenant domain.TenantID, in *Input) error {
	if !tenant.Valid() {
		return fmt.Errorf("%w: company is required", ErrInvalidInput)
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(in.Name) > 255 {
		return fmt.Errorf("%w: name must be at most 255 characters", ErrInvalidInput)
	}
	if in.TotalQty < 0 {
		return fmt.Errorf("%w: total_qty must be >= 0", ErrInvalidInput)
	}
	return nil
}
