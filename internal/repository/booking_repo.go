package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gearbook/internal/database"
	"gearbook/internal/domain"
)

// BookingRepository is the reservation ledger: bookings, their line items
// and the capacity aggregates derived from them.
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type BookingFilter struct {
	Status domain.BookingStatus
	From   *time.Time // start_date >= From
	To     *time.Time // end_date <= To
	Limit  int
	Offset int
}

// LedgerEntry is one blocking line item with its booking window.
type LedgerEntry struct {
	BookingID   int64     `gorm:"column:booking_id"`
	EquipmentID int64     `gorm:"column:equipment_id"`
	Qty         int       `gorm:"column:qty"`
	StartDate   time.Time `gorm:"column:start_date"`
	EndDate     time.Time `gorm:"column:end_date"`
}

func (e LedgerEntry) Hold() domain.Hold {
	return domain.Hold{Window: domain.Window{Start: e.StartDate, End: e.EndDate}, Qty: e.Qty}
}

type committedRow struct {
	EquipmentID int64 `gorm:"column:equipment_id"`
	Committed   int64 `gorm:"column:committed"`
}

func blockingStatusValues() []string {
	out := make([]string, 0, len(domain.BlockingStatuses))
	for _, s := range domain.BlockingStatuses {
		out = append(out, string(s))
	}
	return out
}

// CommittedQuantities sums, per equipment, the line items of the tenant's
// blocking bookings whose window overlaps w. Equipment with nothing
// committed is absent from the map.
func (r *BookingRepository) CommittedQuantities(ctx context.Context, tenant domain.TenantID, w domain.Window, equipmentIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(equipmentIDs))
	if len(equipmentIDs) == 0 {
		return out, nil
	}

	var rows []committedRow
	err := database.Conn(ctx, r.db).
		Table("booking_items").
		Select("booking_items.equipment_id AS equipment_id, COALESCE(SUM(booking_items.qty), 0) AS committed").
		Joins("JOIN bookings ON bookings.id = booking_items.booking_id").
		Where("bookings.company_id = ?", tenant).
		Where("booking_items.equipment_id IN ?", equipmentIDs).
		Where("bookings.status IN ?", blockingStatusValues()).
		Where("bookings.start_date < ? AND bookings.end_date > ?", w.End, w.Start).
		Group("booking_items.equipment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.EquipmentID] = int(row.Committed)
	}
	return out, nil
}

// Create inserts the booking and then its line items.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	conn := database.Conn(ctx, r.db)

	items := b.Items
	if err := conn.Omit(clause.Associations).Create(b).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	for i := range items {
		items[i].BookingID = b.ID
	}
	if err := conn.Omit(clause.Associations).Create(&items).Error; err != nil {
		return err
	}
	b.Items = items
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, tenant domain.TenantID, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := database.Conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("booking_items.id ASC") }).
		Preload("Items.Equipment").
		Where("company_id = ? AND id = ?", tenant, id).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetForUpdate locks the booking row for the rest of the transaction.
// Line items are not loaded.
func (r *BookingRepository) GetForUpdate(ctx context.Context, tenant domain.TenantID, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND id = ?", tenant, id).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateStatus moves a booking from one status to another. It touches no
// row unless the booking is still in from, and returns the rows changed.
func (r *BookingRepository) UpdateStatus(ctx context.Context, tenant domain.TenantID, id int64, from, to domain.BookingStatus) (int64, error) {
	tx := database.Conn(ctx, r.db).
		Model(&domain.Booking{}).
		Where("company_id = ? AND id = ? AND status = ?", tenant, id, string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": time.Now().UTC(),
		})
	return tx.RowsAffected, tx.Error
}

// List returns one page of the tenant's bookings, newest start first, and
// the total number of matches.
func (r *BookingRepository) List(ctx context.Context, tenant domain.TenantID, f BookingFilter) ([]domain.Booking, int64, error) {
	q := database.Conn(ctx, r.db).
		Model(&domain.Booking{}).
		Where("company_id = ?", tenant)
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.From != nil {
		q = q.Where("start_date >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("end_date <= ?", f.To.UTC())
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := q.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("booking_items.id ASC") }).
		Preload("Items.Equipment").
		Order("start_date DESC").
		Order("id DESC")
	if f.Limit > 0 {
		page = page.Limit(f.Limit).Offset(f.Offset)
	}

	var out []domain.Booking
	err := page.Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// BlockingEntries lists every blocking line item of the tenant, ordered by
// equipment and start.
func (r *BookingRepository) BlockingEntries(ctx context.Context, tenant domain.TenantID) ([]LedgerEntry, error) {
	var out []LedgerEntry
	err := r.blockingEntries(ctx, tenant).Scan(&out).Error
	return out, err
}

// EquipmentHolds returns what blocking bookings of the tenant hold on one
// equipment item.
func (r *BookingRepository) EquipmentHolds(ctx context.Context, tenant domain.TenantID, equipmentID int64) ([]domain.Hold, error) {
	var rows []LedgerEntry
	err := r.blockingEntries(ctx, tenant).
		Where("booking_items.equipment_id = ?", equipmentID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	holds := make([]domain.Hold, 0, len(rows))
	for _, row := range rows {
		holds = append(holds, row.Hold())
	}
	return holds, nil
}

func (r *BookingRepository) blockingEntries(ctx context.Context, tenant domain.TenantID) *gorm.DB {
	return database.Conn(ctx, r.db).
		Table("booking_items").
		Select("booking_items.booking_id, booking_items.equipment_id, booking_items.qty, bookings.start_date, bookings.end_date").
		Joins("JOIN bookings ON bookings.id = booking_items.booking_id").
		Where("bookings.company_id = ?", tenant).
		Where("bookings.status IN ?", blockingStatusValues()).
		Order("booking_items.equipment_id ASC").
		Order("bookings.start_date ASC")
}
