package equipment

import (
	"context"

	"gearbook/internal/domain"
)

type Repository interface {
	List(ctx context.Context, tenant domain.TenantID) ([]domain.Equipment, error)
	GetByID(ctx context.Context, tenant domain.TenantID, id int64) (*domain.Equipment, error)
	FindByIDs(ctx context.Context, tenant domain.TenantID, ids []int64, forUpdate bool) ([]domain.Equipment, error)
	Create(ctx context.Context, e *domain.Equipment) error
	Update(ctx context.Context, e *domain.Equipment) error
	Delete(ctx context.Context, tenant domain.TenantID, id int64) (int64, error)
	IsReferenced(ctx context.Context, id int64) (bool, error)
}

// Ledger reports what confirmed bookings hold on an equipment item.
type Ledger interface {
	EquipmentHolds(ctx context.Context, tenant domain.TenantID, equipmentID int64) ([]domain.Hold, error)
}

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
