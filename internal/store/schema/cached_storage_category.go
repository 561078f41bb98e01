package schema

import (
	"time"
)

// CachedStorageCategory represents the cached_storage_categories table
type CachedStorageCategory struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Slug      string    `gorm:"column:slug" json:"slug"`
	Status    int       `gorm:"column:status" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the CachedStorageCategory model
func (CachedStorageCategory) TableName() string {
	return "cached_storage_categories"
}
