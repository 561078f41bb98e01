package schema

import (
	"time"

	"gorm.io/datatypes"
)

// CachedTemplate represents the cached_templates table - machine images,
// marketplace apps and ISOs
type CachedTemplate struct {
	ID        int64  `gorm:"column:id;primaryKey" json:"id"`
	Name      string `gorm:"column:name;not null" json:"name"`
	Slug      string `gorm:"column:slug" json:"slug"`
	OSType    string `gorm:"column:os_type" json:"os_type"`
	ImageType string `gorm:"column:image_type" json:"image_type"`
	FileType  string `gorm:"column:file_type" json:"file_type"`

	OperatingSystemID *int64 `gorm:"column:operating_system_id" json:"operating_system_id"`
	// OperatingSystem is the embedded upstream relation, stored verbatim
	OperatingSystem        datatypes.JSON `gorm:"column:operating_system" json:"operating_system"`
	OperatingSystemVersion string         `gorm:"column:operating_system_version" json:"operating_system_version"`

	IconURL   string    `gorm:"column:icon_url" json:"icon_url"`
	Status    int       `gorm:"column:status" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the CachedTemplate model
func (CachedTemplate) TableName() string {
	return "cached_templates"
}
