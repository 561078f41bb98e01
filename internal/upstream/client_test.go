package upstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud4india/cloud-pricing/internal/domain"
	"github.com/cloud4india/cloud-pricing/internal/mocks"
	"github.com/cloud4india/cloud-pricing/internal/upstream"
)

const testBaseURL = "https://portal.example.com/backend/api"

func fillResult(payload string) func(ctx context.Context, url string, headers map[string]string, result interface{}) error {
	return func(_ context.Context, _ string, _ map[string]string, result interface{}) error {
		return json.Unmarshal([]byte(payload), result)
	}
}

func TestListServices(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := upstream.NewClient(httpClient, testBaseURL, "secret-key")

	payload := `{"data": [
		{"id": 1, "name": "Virtual Machine", "slug": "virtual-machine", "status": true, "billing_rule": "hourly"},
		{"id": 2, "name": "Object Storage", "slug": "object-storage", "status": 1}
	]}`

	httpClient.EXPECT().
		Get(gomock.Any(), testBaseURL+"/admin/cloud-provider-services?limit=200",
			map[string]string{
				"Accept":        "application/json",
				"Authorization": "Bearer secret-key",
			}, gomock.Any()).
		DoAndReturn(fillResult(payload))

	services, err := client.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, int64(1), services[0].ID)
	assert.Equal(t, "Virtual Machine", services[0].Name)
	assert.Equal(t, "hourly", services[0].BillingRule)
	// Heterogeneous status values survive decoding untouched
	assert.Equal(t, true, services[0].Status)
	assert.Equal(t, float64(1), services[1].Status)
}

func TestListServicesNoAPIKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := upstream.NewClient(httpClient, testBaseURL, "")

	_, err := client.ListServices(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoAPIKey)
}

func TestListPlansURLEncoding(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := upstream.NewClient(httpClient, testBaseURL, "secret-key")

	payload := `{"data": [
		{"id": 10, "name": "VM 2 vCPU", "slug": "vm-2-vcpu", "status": true,
		 "hourly_price": "1.25", "monthly_price": 900,
		 "attribute": {"cpu": "2 vCPU", "memory": 4},
		 "prices": [{"id": 7, "amount": "9720", "billing_cycle": {"id": 3, "slug": "yearly"}}]}
	]}`

	httpClient.EXPECT().
		Get(gomock.Any(),
			testBaseURL+"/admin/plans/service/Virtual%20Machine?planable_type=RateCard&planable=default&include=prices&limit=500",
			gomock.Any(), gomock.Any()).
		DoAndReturn(fillResult(payload))

	plans, err := client.ListPlans(context.Background(), "Virtual Machine", "default")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "1.25", plans[0].HourlyPrice)
	assert.Equal(t, float64(900), plans[0].MonthlyPrice)
	require.Len(t, plans[0].Prices, 1)
	assert.Equal(t, "yearly", plans[0].Prices[0].BillingCycle.Slug)
}

func TestListUnitPricingsIncludesRelations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := upstream.NewClient(httpClient, testBaseURL, "secret-key")

	payload := `{"data": [
		{"id": 5, "region_id": 2, "region": {"id": 2, "name": "Mumbai"},
		 "unit_pricing_currencies": [
			{"cpu": "350", "memory": 120.5, "currency": {"id": 1, "code": "INR", "name": "Indian Rupee"}}
		 ]}
	]}`

	httpClient.EXPECT().
		Get(gomock.Any(),
			testBaseURL+"/admin/unit-pricings?planable_type=RateCard&planable=enterprise&include=cloud_provider,cloud_provider_setup,region,unit_pricing_currencies,storage_category",
			gomock.Any(), gomock.Any()).
		DoAndReturn(fillResult(payload))

	unitPricings, err := client.ListUnitPricings(context.Background(), "enterprise")
	require.NoError(t, err)
	require.Len(t, unitPricings, 1)
	assert.Equal(t, "Mumbai", unitPricings[0].Region.Name)
	require.Len(t, unitPricings[0].UnitPricingCurrencies, 1)
	assert.Equal(t, "INR", unitPricings[0].UnitPricingCurrencies[0].Currency.Code)
}

func TestTestConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := upstream.NewClient(httpClient, testBaseURL, "secret-key")

	httpClient.EXPECT().
		Get(gomock.Any(), testBaseURL+"/admin/cloud-provider-services?limit=1", gomock.Any(), gomock.Any()).
		DoAndReturn(fillResult(`{"data": [{"id": 1, "name": "Virtual Machine"}]}`))

	count, err := client.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTestConnectionUpstreamError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	client := upstream.NewClient(httpClient, testBaseURL, "bad-key")

	httpClient.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("unexpected status code 401: unauthorized"))

	_, err := client.TestConnection(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
