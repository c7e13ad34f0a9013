package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gearbook/internal/database"
	"gearbook/internal/domain"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

func (r *EquipmentRepository) List(ctx context.Context, tenant domain.TenantID) ([]domain.Equipment, error) {
	var out []domain.Equipment
	err := database.Conn(ctx, r.db).
		Where("company_id = ?", tenant).
		Order("name DESC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *EquipmentRepository) GetByID(ctx context.Context, tenant domain.TenantID, id int64) (*domain.Equipment, error) {
	var e domain.Equipment
	err := database.Conn(ctx, r.db).
		Where("company_id = ? AND id = ?", tenant, id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindByIDs returns the tenant's equipment among ids in ascending id order.
// With forUpdate the rows stay locked until the surrounding transaction
// ends; the fixed order keeps concurrent lockers from deadlocking.
func (r *EquipmentRepository) FindByIDs(ctx context.Context, tenant domain.TenantID, ids []int64, forUpdate bool) ([]domain.Equipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := database.Conn(ctx, r.db).
		Where("company_id = ? AND id IN ?", tenant, ids).
		Order("id ASC")
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var out []domain.Equipment
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EquipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	return database.Conn(ctx, r.db).Create(e).Error
}

func (r *EquipmentRepository) Update(ctx context.Context, e *domain.Equipment) error {
	return database.Conn(ctx, r.db).
		Model(&domain.Equipment{}).
		Where("company_id = ? AND id = ?", e.TenantID, e.ID).
		Select("name", "category", "description", "total_qty").
		Updates(e).Error
}

func (r *EquipmentRepository) Delete(ctx context.Context, tenant domain.TenantID, id int64) (int64, error) {
	tx := database.Conn(ctx, r.db).
		Where("company_id = ? AND id = ?", tenant, id).
		Delete(&domain.Equipment{})
	return tx.RowsAffected, tx.Error
}

// IsReferenced reports whether any booking line item points at the
// equipment, whatever the booking status.
func (r *EquipmentRepository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var cnt int64
	err := database.Conn(ctx, r.db).
		Model(&domain.BookingItem{}).
		Where("equipment_id = ?", id).
		Limit(1).
		Count(&cnt).Error
	return cnt > 0, err
}
