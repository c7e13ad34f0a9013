package domain

import "time"

// Equipment is a rentable item type owned by one tenant. TotalQty is the
// hard ceiling for concurrently confirmed reservations.
type Equipment struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	TenantID    TenantID  `json:"company_id" gorm:"column:company_id;not null;index:idx_equipment_company"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Category    string    `json:"category,omitempty" gorm:"size:255"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	TotalQty    int       `json:"total_qty" gorm:"not null;default:0;check:chk_equipment_total_qty,total_qty >= 0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Equipment) TableName() string { return "equipment" }
