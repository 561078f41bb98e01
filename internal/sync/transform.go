package sync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/datatypes"

	"github.com/cloud4india/cloud-pricing/internal/domain"
	"github.com/cloud4india/cloud-pricing/internal/store/schema"
	"github.com/cloud4india/cloud-pricing/internal/types"
	"github.com/cloud4india/cloud-pricing/internal/upstream"
)

// defaultStorageCategoryName is used when a plan references a storage
// category the categories sync did not return.
const defaultStorageCategoryName = "NVMe"

// yearlyDiscount applies when upstream carries no explicit yearly price:
// twelve months at a 10% discount.
const yearlyDiscount = 0.9

func boolToInt(v any) int {
	if types.Truthy(v) {
		return 1
	}
	return 0
}

// firstInt returns the first value that coerces to a nonzero integer.
func firstInt(vals ...any) int {
	for _, v := range vals {
		if n := types.SafeInt(v); n != 0 {
			return n
		}
	}
	return 0
}

// anyToString renders loosely typed upstream identifiers as strings.
// Numeric ids print without a trailing ".0"; nil prints empty.
func anyToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func mustJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func jsonObject(m map[string]any) datatypes.JSON {
	if m == nil {
		m = map[string]any{}
	}
	return mustJSON(m)
}

func jsonPrices(prices []upstream.Price) datatypes.JSON {
	if prices == nil {
		prices = []upstream.Price{}
	}
	return mustJSON(prices)
}

// findCycleAmount returns the "amount" of the price attached to the named
// billing cycle, false when no such price exists.
func findCycleAmount(prices []upstream.Price, cycleSlug string) (any, bool) {
	for _, p := range prices {
		if p.BillingCycle != nil && p.BillingCycle.Slug == cycleSlug {
			return p.Amount, true
		}
	}
	return nil, false
}

// serviceRows converts upstream services into cache rows, dropping nameless
// entries and deduplicating by name. The category columns are derived
// locally from the service name and slug.
func serviceRows(services []upstream.Service) []schema.CachedService {
	seen := make(map[string]struct{}, len(services))
	rows := make([]schema.CachedService, 0, len(services))
	for _, svc := range services {
		if svc.Name == "" {
			continue
		}
		if _, ok := seen[svc.Name]; ok {
			continue
		}
		seen[svc.Name] = struct{}{}

		slug := svc.Slug
		if slug == "" {
			slug = strings.ReplaceAll(strings.ToLower(svc.Name), " ", "-")
		}

		category, categoryName := domain.CategorizeService(svc.Name, svc.Slug)
		rows = append(rows, schema.CachedService{
			ID:           svc.ID,
			Name:         svc.Name,
			Slug:         slug,
			Status:       boolToInt(svc.Status),
			Category:     category,
			CategoryName: categoryName,
			BillingRule:  svc.BillingRule,
			Config:       jsonObject(svc.Config),
			PlanCount:    0,
		})
	}
	return rows
}

// planRow flattens one upstream plan into a cache row. Sizing attributes are
// coerced from the free-form attribute object with per-field fallbacks, and
// the yearly price falls back to discounted monthly when upstream carries no
// yearly cycle price.
func planRow(serviceName string, plan upstream.Plan, storageCategories map[int64]string, planCategories map[int64]string) schema.CachedPlan {
	attr := plan.Attribute

	storageCategoryName := defaultStorageCategoryName
	if plan.StorageCategoryID != nil {
		if name, ok := storageCategories[*plan.StorageCategoryID]; ok {
			storageCategoryName = name
		}
	}

	var planCategoryName *string
	if plan.PlanCategoryID != nil {
		if name, ok := planCategories[*plan.PlanCategoryID]; ok {
			planCategoryName = &name
		}
	}

	yearlyPrice := types.SafeFloat(plan.MonthlyPrice) * 12 * yearlyDiscount
	if amount, ok := findCycleAmount(plan.Prices, "yearly"); ok && types.Truthy(amount) {
		yearlyPrice = types.SafeFloat(amount)
	}

	return schema.CachedPlan{
		ID:          plan.ID,
		ServiceName: serviceName,
		Name:        plan.Name,
		Slug:        plan.Slug,
		Status:      boolToInt(plan.Status),

		CPU:             firstInt(attr["cpu"], attr["formatted_cpu"]),
		Memory:          types.SafeInt(attr["memory"]),
		Storage:         firstInt(attr["storage"], attr["size"], plan.Name),
		Size:            firstInt(attr["size"], attr["storage"], plan.Name),
		Bandwidth:       firstInt(attr["bandwidth"], attr["data_transfer_out"]),
		BucketLimit:     types.SafeInt(attr["bucket_limit"]),
		NetworkRate:     types.SafeInt(attr["network_rate"]),
		DataTransferOut: types.SafeInt(attr["data_transfer_out"]),

		HourlyPrice:  types.SafeFloat(plan.HourlyPrice),
		MonthlyPrice: types.SafeFloat(plan.MonthlyPrice),
		YearlyPrice:  yearlyPrice,

		PlanCategoryID:      plan.PlanCategoryID,
		PlanCategoryName:    planCategoryName,
		StorageCategoryID:   plan.StorageCategoryID,
		StorageCategoryName: storageCategoryName,

		Attribute: jsonObject(attr),
		Prices:    jsonPrices(plan.Prices),
	}
}

func rateCardRows(cards []upstream.RateCard) []schema.CachedRateCard {
	rows := make([]schema.CachedRateCard, 0, len(cards))
	for _, rc := range cards {
		if !types.Truthy(rc.Status) {
			continue
		}
		rows = append(rows, schema.CachedRateCard{
			ID:          rc.ID,
			Name:        rc.Name,
			Slug:        rc.Slug,
			Description: rc.Description,
			Status:      boolToInt(rc.Status),
			IsDefault:   boolToInt(rc.Default),
			CardType:    rc.CardType,
		})
	}
	return rows
}

func billingCycleRows(cycles []upstream.BillingCycle) []schema.CachedBillingCycle {
	rows := make([]schema.CachedBillingCycle, 0, len(cycles))
	for _, cycle := range cycles {
		rows = append(rows, schema.CachedBillingCycle{
			ID:          cycle.ID,
			Name:        cycle.Name,
			Slug:        cycle.Slug,
			Description: cycle.Description,
			Duration:    types.SafeInt(cycle.Duration),
			Unit:        cycle.Unit,
			IsEnabled:   boolToInt(cycle.IsEnabled),
			SortOrder:   cycle.SortOrder,
		})
	}
	return rows
}

// productRows keeps every product not explicitly disabled. The monthly price
// is the monthly cycle amount, falling back to the second then first listed
// price.
func productRows(products []upstream.Product) []schema.CachedProduct {
	rows := make([]schema.CachedProduct, 0, len(products))
	for _, product := range products {
		if types.IsFalse(product.Status) {
			continue
		}

		var monthly any
		if amount, ok := findCycleAmount(product.Prices, "monthly"); ok && types.Truthy(amount) {
			monthly = amount
		} else if len(product.Prices) > 1 && types.Truthy(product.Prices[1].Amount) {
			monthly = product.Prices[1].Amount
		} else if len(product.Prices) > 0 {
			monthly = product.Prices[0].Amount
		}

		rows = append(rows, schema.CachedProduct{
			ID:           product.ID,
			Name:         product.Name,
			Slug:         product.Slug,
			Description:  product.Description,
			Status:       boolToInt(product.Status),
			MonthlyPrice: types.SafeFloat(monthly),
			Prices:       jsonPrices(product.Prices),
		})
	}
	return rows
}

func licenceRows(licences []upstream.Licence) []schema.CachedLicence {
	rows := make([]schema.CachedLicence, 0, len(licences))
	for _, licence := range licences {
		if types.IsFalse(licence.Status) {
			continue
		}

		var monthly any
		if len(licence.Prices) > 0 {
			monthly = licence.Prices[0].Price
		}

		rows = append(rows, schema.CachedLicence{
			ID:           licence.ID,
			Name:         licence.Name,
			Slug:         licence.Slug,
			PricingUnit:  licence.PricingUnit,
			Status:       boolToInt(licence.Status),
			MonthlyPrice: types.SafeFloat(monthly),
			Prices:       jsonPrices(licence.Prices),
		})
	}
	return rows
}

func operatingSystemRows(oses []upstream.OperatingSystem) []schema.CachedOperatingSystem {
	rows := make([]schema.CachedOperatingSystem, 0, len(oses))
	for _, os := range oses {
		if types.IsFalse(os.Status) {
			continue
		}
		rows = append(rows, schema.CachedOperatingSystem{
			ID:     os.ID,
			Name:   os.Name,
			Slug:   os.Slug,
			Status: boolToInt(os.Status),
		})
	}
	return rows
}

func templateRows(templates []upstream.Template) []schema.CachedTemplate {
	rows := make([]schema.CachedTemplate, 0, len(templates))
	for _, tmpl := range templates {
		rows = append(rows, schema.CachedTemplate{
			ID:                     tmpl.ID,
			Name:                   tmpl.Name,
			Slug:                   tmpl.Slug,
			OSType:                 tmpl.OSType,
			ImageType:              tmpl.ImageType,
			FileType:               tmpl.FileType,
			OperatingSystemID:      tmpl.OperatingSystemID,
			OperatingSystem:        jsonObject(tmpl.OperatingSystem),
			OperatingSystemVersion: tmpl.OperatingSystemVersion,
			IconURL:                tmpl.IconURL,
			Status:                 boolToInt(tmpl.Status),
		})
	}
	return rows
}

func storageCategoryRows(categories []upstream.StorageCategory) []schema.CachedStorageCategory {
	rows := make([]schema.CachedStorageCategory, 0, len(categories))
	for _, cat := range categories {
		if types.IsFalse(cat.Status) {
			continue
		}
		rows = append(rows, schema.CachedStorageCategory{
			ID:     cat.ID,
			Name:   cat.Name,
			Slug:   cat.Slug,
			Status: boolToInt(cat.Status),
		})
	}
	return rows
}

func planCategoryRows(categories []upstream.PlanCategory) []schema.CachedPlanCategory {
	rows := make([]schema.CachedPlanCategory, 0, len(categories))
	for _, cat := range categories {
		if types.IsFalse(cat.Status) {
			continue
		}
		rows = append(rows, schema.CachedPlanCategory{
			ID:        cat.ID,
			Name:      cat.Name,
			Slug:      cat.Slug,
			ShortName: cat.ShortName,
			Status:    boolToInt(cat.Status),
			SortOrder: cat.SortOrder,
		})
	}
	return rows
}

// selectCurrency picks the rate sheet currency: INR when present, otherwise
// the first listed, otherwise an empty sheet.
func selectCurrency(currencies []upstream.UnitPricingCurrency) upstream.UnitPricingCurrency {
	for _, c := range currencies {
		if c.Currency == nil {
			continue
		}
		if c.Currency.Code == "INR" || strings.Contains(strings.ToLower(c.Currency.Name), "rupee") {
			return c
		}
	}
	if len(currencies) > 0 {
		return currencies[0]
	}
	return upstream.UnitPricingCurrency{}
}

func unitPricingRows(unitPricings []upstream.UnitPricing) []schema.CachedUnitPricing {
	rows := make([]schema.CachedUnitPricing, 0, len(unitPricings))
	for _, up := range unitPricings {
		currency := selectCurrency(up.UnitPricingCurrencies)

		providerName := ""
		if up.CloudProvider != nil {
			providerName = up.CloudProvider.Name
		}
		setupName := ""
		if up.CloudProviderSetup != nil {
			setupName = up.CloudProviderSetup.Name
		}
		if providerName == "" {
			providerName = setupName
		}
		regionName := ""
		if up.Region != nil {
			regionName = up.Region.Name
		}
		storageCategoryName := ""
		if up.StorageCategory != nil {
			storageCategoryName = up.StorageCategory.Name
		}

		currencyCode := "INR"
		if currency.Currency != nil && currency.Currency.Code != "" {
			currencyCode = currency.Currency.Code
		}

		rows = append(rows, schema.CachedUnitPricing{
			ID:                     anyToString(up.ID),
			CloudProviderID:        anyToString(up.CloudProviderID),
			CloudProviderName:      providerName,
			CloudProviderSetupID:   anyToString(up.CloudProviderSetupID),
			CloudProviderSetupName: setupName,
			RegionID:               anyToString(up.RegionID),
			RegionName:             regionName,
			StorageCategoryID:      up.StorageCategoryID,
			StorageCategoryName:    storageCategoryName,

			CPUPrice:               types.SafeFloat(currency.CPU),
			MemoryPrice:            types.SafeFloat(currency.Memory),
			StoragePrice:           types.SafeFloat(currency.Storage),
			IPAddressPrice:         types.SafeFloat(currency.IPAddress),
			BandwidthPrice:         types.SafeFloat(currency.Bandwidth),
			DataTransferPrice:      types.SafeFloat(currency.DataTransfer),
			PerVMPrice:             types.SafeFloat(currency.PerVMPrice),
			PerWorkstationPrice:    types.SafeFloat(currency.PerWorkstationPrice),
			PerServerPrice:         types.SafeFloat(currency.PerServerPrice),
			PerConcurrentTaskPrice: types.SafeFloat(currency.PerConcurrentTaskPrice),
			ReplicationPrice:       types.SafeFloat(currency.Replication),
			VB365Price:             types.SafeFloat(currency.VB365),
			WorkstationAgentsPrice: types.SafeFloat(currency.WorkstationAgentsPrice),
			ServerAgentsPrice:      types.SafeFloat(currency.ServerAgentsPrice),
			SubscriptionUserPrice:  types.SafeFloat(currency.SubscriptionUserPrice),

			StandardStorageUsedGBPrice:      types.SafeFloat(currency.StandardStorageUsedGBPrice),
			SourceHostedAmountOfDataGBPrice: types.SafeFloat(currency.SourceHostedAmountOfDataGBPrice),
			SourceRemoteAmountOfDataGBPrice: types.SafeFloat(currency.SourceRemoteAmountOfDataGBPrice),
			ReplicatedVMPrice:               types.SafeFloat(currency.ReplicatedVMPrice),

			Currency: currencyCode,
			RawData:  mustJSON(up),
		})
	}
	return rows
}
