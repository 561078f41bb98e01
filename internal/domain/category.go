package domain

import "strings"

// Category classifies a cloud service into one of the fixed pricing groups
// shown on the marketing site.
type Category string

const (
	CategoryCompute     Category = "compute"
	CategoryStorage     Category = "storage"
	CategoryNetwork     Category = "network"
	CategoryBackup      Category = "backup"
	CategorySecurity    Category = "security"
	CategoryMonitoring  Category = "monitoring"
	CategoryMarketplace Category = "marketplace"
	CategoryOther       Category = "other"
)

// categoryRule maps a keyword group to a category. Rules are evaluated in
// order and the first match wins, so broader keywords (e.g. "network") must
// stay below more specific groups that could contain them.
type categoryRule struct {
	keywords    []string
	category    Category
	displayName string
}

// categoryRules is the ordered classifier table. The keyword list and its
// ordering are load-bearing: reordering changes which category wins for
// names that match several groups.
var categoryRules = []categoryRule{
	{
		keywords:    []string{"virtual machine", "virtual-machine", "kubernetes", "autoscale"},
		category:    CategoryCompute,
		displayName: "Compute",
	},
	{
		keywords:    []string{"storage", "nvme", "snapshot", "template", "iso"},
		category:    CategoryStorage,
		displayName: "Storage",
	},
	{
		keywords:    []string{"router", "vpc", "ip address", "ip-address", "load balancer", "load-balancer", "bandwidth", "network", "vnf"},
		category:    CategoryNetwork,
		displayName: "Networking",
	},
	{
		keywords:    []string{"backup"},
		category:    CategoryBackup,
		displayName: "Backup & Recovery",
	},
	{
		keywords:    []string{"licence", "license"},
		category:    CategorySecurity,
		displayName: "Security & Licensing",
	},
	{
		keywords:    []string{"monitoring"},
		category:    CategoryMonitoring,
		displayName: "Monitoring",
	},
	{
		keywords:    []string{"addon", "marketplace", "pool card", "pool-card", "dns"},
		category:    CategoryMarketplace,
		displayName: "Marketplace & Add-ons",
	},
}

// CategorizeService assigns a service to a category by case-insensitive
// substring matching on its name and slug. It is a pure function: the same
// input always yields the same category, and every input yields exactly one
// category (unmatched names fall into CategoryOther).
func CategorizeService(name, slug string) (Category, string) {
	lowerName := strings.ToLower(name)
	lowerSlug := strings.ToLower(slug)

	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowerName, kw) || strings.Contains(lowerSlug, kw) {
				return rule.category, rule.displayName
			}
		}
	}

	return CategoryOther, "Other Services"
}
