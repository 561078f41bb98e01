package schema

import (
	"time"
)

// CachedPlanCategory represents the cached_plan_categories table
type CachedPlanCategory struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Slug      string    `gorm:"column:slug" json:"slug"`
	ShortName string    `gorm:"column:short_name" json:"short_name"`
	Status    int       `gorm:"column:status" json:"status"`
	SortOrder int       `gorm:"column:sort_order;default:0" json:"sort_order"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the CachedPlanCategory model
func (CachedPlanCategory) TableName() string {
	return "cached_plan_categories"
}
