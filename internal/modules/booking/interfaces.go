package booking

import (
	"context"

	"gearbook/internal/domain"
	"gearbook/internal/repository"
)

// BookingRepository is the part of the ledger the engine reads and writes.
type BookingRepository interface {
	CommittedQuantities(ctx context.Context, tenant domain.TenantID, w domain.Window, equipmentIDs []int64) (map[int64]int, error)
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, tenant domain.TenantID, id int64) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, tenant domain.TenantID, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, tenant domain.TenantID, id int64, from, to domain.BookingStatus) (int64, error)
	List(ctx context.Context, tenant domain.TenantID, f repository.BookingFilter) ([]domain.Booking, int64, error)
	BlockingEntries(ctx context.Context, tenant domain.TenantID) ([]repository.LedgerEntry, error)
}

type EquipmentRepository interface {
	FindByIDs(ctx context.Context, tenant domain.TenantID, ids []int64, forUpdate bool) ([]domain.Equipment, error)
	List(ctx context.Context, tenant domain.TenantID) ([]domain.Equipment, error)
}

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
