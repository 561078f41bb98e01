package schema

import (
	"time"
)

// APIConfigurationID is the fixed primary key of the singleton row
const APIConfigurationID = 1

// APIConfiguration represents the api_configurations table - a singleton row
// (id=1) holding admin-editable upstream connection settings. Empty fields
// fall back to the environment configuration at sync time.
type APIConfiguration struct {
	ID         int64  `gorm:"column:id;primaryKey" json:"id"`
	Name       string `gorm:"column:name;not null" json:"name"`
	APIBaseURL string `gorm:"column:api_base_url" json:"api_base_url"`
	APIKey     string `gorm:"column:api_key" json:"-"`
	// No default tags on the fields below: gorm substitutes a tagged default
	// for any zero value on create, which would turn IsEnabled false back
	// into true. Defaults are supplied in code when the row is first built.
	DefaultRateCard     string `gorm:"column:default_rate_card" json:"default_rate_card"`
	SyncIntervalMinutes int    `gorm:"column:sync_interval_minutes" json:"sync_interval_minutes"`
	IsEnabled           bool   `gorm:"column:is_enabled" json:"is_enabled"`
	// LastTestedAt is when the connection test last ran against these settings
	LastTestedAt *time.Time `gorm:"column:last_tested_at" json:"last_tested_at"`
	// TestStatus is the outcome of that test ("success" or an error string)
	TestStatus *string   `gorm:"column:test_status" json:"test_status"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the APIConfiguration model
func (APIConfiguration) TableName() string {
	return "api_configurations"
}

// MaskedAPIKey returns the API key reduced to its last four characters,
// suitable for display.
func (c *APIConfiguration) MaskedAPIKey() string {
	if c.APIKey == "" {
		return ""
	}
	if len(c.APIKey) <= 4 {
		return "****"
	}
	return "****" + c.APIKey[len(c.APIKey)-4:]
}
