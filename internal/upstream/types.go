package upstream

// The portal API reports boolean-ish and numeric fields inconsistently
// across collections (true/1/"1", "10.50"/10.5). Fields with that
// behavior are declared as any and coerced by the caller.

// Service is a sellable service family (Virtual Machine, Storage, ...).
type Service struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Status      any            `json:"status"`
	BillingRule string         `json:"billing_rule"`
	Config      map[string]any `json:"config"`
}

// Plan is a purchasable plan under a service, scoped to a rate card.
type Plan struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Slug              string         `json:"slug"`
	Status            any            `json:"status"`
	HourlyPrice       any            `json:"hourly_price"`
	MonthlyPrice      any            `json:"monthly_price"`
	PlanCategoryID    *int64         `json:"plan_category_id"`
	StorageCategoryID *int64         `json:"storage_category_id"`
	Attribute         map[string]any `json:"attribute"`
	Prices            []Price        `json:"prices"`
}

// Price is a per-billing-cycle price attached to a plan, product or
// licence. Plans and products carry the value in "amount", licences in
// "price".
type Price struct {
	ID           int64             `json:"id"`
	Amount       any               `json:"amount"`
	Price        any               `json:"price"`
	BillingCycle *PriceBillingCycle `json:"billing_cycle"`
}

// PriceBillingCycle is the billing cycle reference embedded in a price.
type PriceBillingCycle struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type RateCard struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Status      any    `json:"status"`
	Default     any    `json:"default"`
	CardType    string `json:"card_type"`
}

type BillingCycle struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Duration    any    `json:"duration"`
	Unit        string `json:"unit"`
	IsEnabled   any    `json:"is_enabled"`
	SortOrder   int    `json:"sort_order"`
}

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Status      any     `json:"status"`
	Prices      []Price `json:"prices"`
}

type Licence struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	PricingUnit string  `json:"pricing_unit"`
	Status      any     `json:"status"`
	Prices      []Price `json:"prices"`
}

type OperatingSystem struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Status any    `json:"status"`
}

type Template struct {
	ID                     int64          `json:"id"`
	Name                   string         `json:"name"`
	Slug                   string         `json:"slug"`
	OSType                 string         `json:"os_type"`
	ImageType              string         `json:"image_type"`
	FileType               string         `json:"file_type"`
	OperatingSystemID      *int64         `json:"operating_system_id"`
	OperatingSystem        map[string]any `json:"operating_system"`
	OperatingSystemVersion string         `json:"operating_system_version"`
	IconURL                string         `json:"icon_url"`
	Status                 any            `json:"status"`
}

type StorageCategory struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Status any    `json:"status"`
}

type PlanCategory struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	ShortName string `json:"short_name"`
	Status    any    `json:"status"`
	SortOrder int    `json:"sort_order"`
}

// NamedRef is a minimal included relation carrying only what the cache
// needs.
type NamedRef struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}

type Currency struct {
	ID   any    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// UnitPricingCurrency holds the per-unit rates of a unit pricing in one
// currency.
type UnitPricingCurrency struct {
	CPU                             any       `json:"cpu"`
	Memory                          any       `json:"memory"`
	Storage                         any       `json:"storage"`
	IPAddress                       any       `json:"ip_address"`
	Bandwidth                       any       `json:"bandwidth"`
	DataTransfer                    any       `json:"data_transfer"`
	PerVMPrice                      any       `json:"per_vm_price"`
	PerWorkstationPrice             any       `json:"per_workstation_price"`
	PerServerPrice                  any       `json:"per_server_price"`
	PerConcurrentTaskPrice          any       `json:"per_concurrent_task_price"`
	Replication                     any       `json:"replication"`
	VB365                           any       `json:"vb365"`
	WorkstationAgentsPrice          any       `json:"workstation_agents_price"`
	ServerAgentsPrice               any       `json:"server_agents_price"`
	SubscriptionUserPrice           any       `json:"subscription_user_price"`
	StandardStorageUsedGBPrice      any       `json:"standard_storage_used_gb_price"`
	SourceHostedAmountOfDataGBPrice any       `json:"source_hosted_amount_of_data_gb_price"`
	SourceRemoteAmountOfDataGBPrice any       `json:"source_remote_amount_of_data_gb_price"`
	ReplicatedVMPrice               any       `json:"replicated_vm_price"`
	Currency                        *Currency `json:"currency"`
}

// UnitPricing is a per-unit rate sheet scoped to a provider, region and
// storage category. Identifiers on this collection are UUID strings, not
// the integer ids the rest of the catalog uses.
type UnitPricing struct {
	ID                    any                   `json:"id"`
	CloudProviderID       any                   `json:"cloud_provider_id"`
	CloudProviderSetupID  any                   `json:"cloud_provider_setup_id"`
	RegionID              any                   `json:"region_id"`
	StorageCategoryID     *int64                `json:"storage_category_id"`
	CloudProvider         *NamedRef             `json:"cloud_provider"`
	CloudProviderSetup    *NamedRef             `json:"cloud_provider_setup"`
	Region                *NamedRef             `json:"region"`
	StorageCategory       *NamedRef             `json:"storage_category"`
	UnitPricingCurrencies []UnitPricingCurrency `json:"unit_pricing_currencies"`
}
