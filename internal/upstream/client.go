package upstream

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cloud4india/cloud-pricing/internal/adapter"
	"github.com/cloud4india/cloud-pricing/internal/domain"
)

// Page limits mirror what the portal admin API tolerates per collection.
const (
	serviceLimit      = 200
	planLimit         = 500
	rateCardLimit     = 100
	billingCycleLimit = 100
	productLimit      = 200
	licenceLimit      = 200
	osLimit           = 100
	templateLimit     = 200
	categoryLimit     = 100
)

// Client defines the interface for portal catalog API operations
type Client interface {
	// ListServices fetches all cloud provider services
	ListServices(ctx context.Context) ([]Service, error)
	// ListPlans fetches the plans of one service under the given rate card,
	// with prices included
	ListPlans(ctx context.Context, serviceName string, rateCard string) ([]Plan, error)
	// ListRateCards fetches all rate cards
	ListRateCards(ctx context.Context) ([]RateCard, error)
	// ListBillingCycles fetches all billing cycles
	ListBillingCycles(ctx context.Context) ([]BillingCycle, error)
	// ListProducts fetches the add-on products priced under the given rate card
	ListProducts(ctx context.Context, rateCard string) ([]Product, error)
	// ListLicences fetches the licences priced under the given rate card
	ListLicences(ctx context.Context, rateCard string) ([]Licence, error)
	// ListOperatingSystems fetches all operating systems
	ListOperatingSystems(ctx context.Context) ([]OperatingSystem, error)
	// ListTemplates fetches all machine templates
	ListTemplates(ctx context.Context) ([]Template, error)
	// ListStorageCategories fetches all storage categories
	ListStorageCategories(ctx context.Context) ([]StorageCategory, error)
	// ListPlanCategories fetches all plan categories
	ListPlanCategories(ctx context.Context) ([]PlanCategory, error)
	// ListUnitPricings fetches the per-unit rate sheets under the given
	// rate card, with provider, region and currency relations included
	ListUnitPricings(ctx context.Context, rateCard string) ([]UnitPricing, error)
	// TestConnection performs a minimal authenticated request and returns
	// the number of services it saw
	TestConnection(ctx context.Context) (int, error)
}

// PortalClient implements the portal catalog API client
type PortalClient struct {
	httpClient adapter.HTTPClient
	baseURL    string
	apiKey     string
}

// NewClient creates a new portal catalog API client
func NewClient(httpClient adapter.HTTPClient, baseURL string, apiKey string) Client {
	return &PortalClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (c *PortalClient) headers() map[string]string {
	return map[string]string{
		"Accept":        "application/json",
		"Authorization": "Bearer " + c.apiKey,
	}
}

// get fetches path relative to the base URL and decodes the {"data": [...]}
// envelope into result.
func (c *PortalClient) get(ctx context.Context, path string, result interface{}) error {
	if c.apiKey == "" {
		return domain.ErrNoAPIKey
	}
	if err := c.httpClient.Get(ctx, c.baseURL+path, c.headers(), result); err != nil {
		return fmt.Errorf("failed to call portal API: %w", err)
	}
	return nil
}

// ListServices fetches all cloud provider services
func (c *PortalClient) ListServices(ctx context.Context) ([]Service, error) {
	var response struct {
		Data []Service `json:"data"`
	}
	path := fmt.Sprintf("/admin/cloud-provider-services?limit=%d", serviceLimit)
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListPlans fetches the plans of one service under the given rate card
func (c *PortalClient) ListPlans(ctx context.Context, serviceName string, rateCard string) ([]Plan, error) {
	var response struct {
		Data []Plan `json:"data"`
	}
	path := fmt.Sprintf("/admin/plans/service/%s?planable_type=RateCard&planable=%s&include=prices&limit=%d",
		url.PathEscape(serviceName),
		url.QueryEscape(rateCard),
		planLimit,
	)
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListRateCards fetches all rate cards
func (c *PortalClient) ListRateCards(ctx context.Context) ([]RateCard, error) {
	var response struct {
		Data []RateCard `json:"data"`
	}
	path := fmt.Sprintf("/admin/rate-cards?limit=%d", rateCardLimit)
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListBillingCycles fetches all billing cycles
func (c *PortalClient) ListBillingCycles(ctx context.Context) ([]BillingCycle, error) {
	var response struct {
		Data []BillingCycle `json:"data"`
	}
	path := fmt.Sprintf("/admin/billing-cycles?limit=%d", billingCycleLimit)
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListProducts fetches the add-on products priced under the given rate card
func (c *PortalClient) ListProducts(ctx context.Context, rateCard string) ([]Product, error) {
	var response struct {
		Data []Product `json:"data"`
	}
	path := fmt.Sprintf("/admin/products?planable_type=RateCard&planable=%s&limit=%d",
		url.QueryEscape(rateCard), productLimit)
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListLicences fetches the licences priced under the given rate card
func (c *PortalClient) ListLicences(ctx context.Context, rateCard string) ([]Licence, error) {
	var response struct {
		Data []Licence `json:"data"`
	}
	path := fmt.Sprintf("/admin/licences?planable_type=RateCard&planable=%s&limit=%d",
		url.QueryEscape(rateCard), licenceLimit)
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListOperatingSystems fetches all operating systems
func (c *PortalClient) ListOperatingSystems(ctx context.Context) ([]OperatingSystem, error) {
	var response struct {
		Data []OperatingSystem `json:"data"`
	}
	path := fmt.Sprintf("/admin/operating-systems?limit=%d", osLimit)
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListTemplates fetches all machine templates
func (c *PortalClient) ListTemplates(ctx context.Context) ([]Template, error) {
	var response struct {
		Data []Template `json:"data"`
	}
	path := fmt.Sprintf("/admin/templates?limit=%d", templateLimit)
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListStorageCategories fetches all storage categories
func (c *PortalClient) ListStorageCategories(ctx context.Context) ([]StorageCategory, error) {
	var response struct {
		Data []StorageCategory `json:"data"`
	}
	path := fmt.Sprintf("/admin/storage-categories?limit=%d", categoryLimit)
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListPlanCategories fetches all plan categories
func (c *PortalClient) ListPlanCategories(ctx context.Context) ([]PlanCategory, error) {
	var response struct {
		Data []PlanCategory `json:"data"`
	}
	path := fmt.Sprintf("/admin/plan-categories?limit=%d", categoryLimit)
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListUnitPricings fetches the per-unit rate sheets under the given rate card
func (c *PortalClient) ListUnitPricings(ctx context.Context, rateCard string) ([]UnitPricing, error) {
	var response struct {
		Data []UnitPricing `json:"data"`
	}
	path := fmt.Sprintf("/admin/unit-pricings?planable_type=RateCard&planable=%s&include=cloud_provider,cloud_provider_setup,region,unit_pricing_currencies,storage_category",
		url.QueryEscape(rateCard))
	if err := c.get(ctx, path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// TestConnection performs a minimal authenticated request and returns the
// number of services it saw
func (c *PortalClient) TestConnection(ctx context.Context) (int, error) {
	var response struct {
		Data []Service `json:"data"`
	}
	if err := c.get(ctx, "/admin/cloud-provider-services?limit=1", &response); err != nil {
		return 0, err
	}
	return len(response.Data), nil
}
