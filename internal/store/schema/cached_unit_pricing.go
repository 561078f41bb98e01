package schema

import (
	"time"

	"gorm.io/datatypes"
)

// CachedUnitPricing represents the cached_unit_pricings table - per-unit
// rate sheets (CPU, memory, storage, backup components) scoped to a provider,
// region and storage category. Upstream identifies these rows with UUID
// strings.
type CachedUnitPricing struct {
	ID string `gorm:"column:id;primaryKey" json:"id"`

	CloudProviderID       string `gorm:"column:cloud_provider_id" json:"cloud_provider_id"`
	CloudProviderName     string `gorm:"column:cloud_provider_name;index:idx_unit_pricings_provider" json:"cloud_provider_name"`
	CloudProviderSetupID  string `gorm:"column:cloud_provider_setup_id" json:"cloud_provider_setup_id"`
	CloudProviderSetupName string `gorm:"column:cloud_provider_setup_name" json:"cloud_provider_setup_name"`
	RegionID              string `gorm:"column:region_id" json:"region_id"`
	RegionName            string `gorm:"column:region_name" json:"region_name"`
	StorageCategoryID     *int64 `gorm:"column:storage_category_id" json:"storage_category_id"`
	StorageCategoryName   string `gorm:"column:storage_category_name" json:"storage_category_name"`

	// Per-unit rates in the selected currency
	CPUPrice               float64 `gorm:"column:cpu_price;default:0" json:"cpu_price"`
	MemoryPrice            float64 `gorm:"column:memory_price;default:0" json:"memory_price"`
	StoragePrice           float64 `gorm:"column:storage_price;default:0" json:"storage_price"`
	IPAddressPrice         float64 `gorm:"column:ip_address_price;default:0" json:"ip_address_price"`
	BandwidthPrice         float64 `gorm:"column:bandwidth_price;default:0" json:"bandwidth_price"`
	DataTransferPrice      float64 `gorm:"column:data_transfer_price;default:0" json:"data_transfer_price"`
	PerVMPrice             float64 `gorm:"column:per_vm_price;default:0" json:"per_vm_price"`
	PerWorkstationPrice    float64 `gorm:"column:per_workstation_price;default:0" json:"per_workstation_price"`
	PerServerPrice         float64 `gorm:"column:per_server_price;default:0" json:"per_server_price"`
	PerConcurrentTaskPrice float64 `gorm:"column:per_concurrent_task_price;default:0" json:"per_concurrent_task_price"`
	ReplicationPrice       float64 `gorm:"column:replication_price;default:0" json:"replication_price"`
	VB365Price             float64 `gorm:"column:vb365_price;default:0" json:"vb365_price"`
	WorkstationAgentsPrice float64 `gorm:"column:workstation_agents_price;default:0" json:"workstation_agents_price"`
	ServerAgentsPrice      float64 `gorm:"column:server_agents_price;default:0" json:"server_agents_price"`
	SubscriptionUserPrice  float64 `gorm:"column:subscription_user_price;default:0" json:"subscription_user_price"`

	StandardStorageUsedGBPrice      float64 `gorm:"column:standard_storage_used_gb_price;default:0" json:"standard_storage_used_gb_price"`
	SourceHostedAmountOfDataGBPrice float64 `gorm:"column:source_hosted_amount_of_data_gb_price;default:0" json:"source_hosted_amount_of_data_gb_price"`
	SourceRemoteAmountOfDataGBPrice float64 `gorm:"column:source_remote_amount_of_data_gb_price;default:0" json:"source_remote_amount_of_data_gb_price"`
	ReplicatedVMPrice               float64 `gorm:"column:replicated_vm_price;default:0" json:"replicated_vm_price"`

	// Currency is the ISO code the rates above are denominated in
	Currency string `gorm:"column:currency;default:INR" json:"currency"`
	// RawData is the full upstream object for fields the flat columns drop
	RawData datatypes.JSON `gorm:"column:raw_data" json:"raw_data"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for the CachedUnitPricing model
func (CachedUnitPricing) TableName() string {
	return "cached_unit_pricings"
}
