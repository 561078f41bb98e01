package schema

import (
	"time"
)

// CachedRateCard represents the cached_rate_cards table
type CachedRateCard struct {
	ID          int64     `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Slug        string    `gorm:"column:slug" json:"slug"`
	Description string    `gorm:"column:description" json:"description"`
	Status      int       `gorm:"column:status" json:"status"`
	IsDefault   int       `gorm:"column:is_default;default:0" json:"is_default"`
	CardType    string    `gorm:"column:card_type" json:"card_type"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the CachedRateCard model
func (CachedRateCard) TableName() string {
	return "cached_rate_cards"
}
