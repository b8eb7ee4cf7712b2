package shopify_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/codtracker/pkg/tracking"
	"github.com/tournevent/codtracker/pkg/tracking/shopify"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func testConfig() shopify.Config {
	return shopify.Config{StoreDomain: "beast.myshopify.com", AccessToken: "shpat_test"}
}

func newTestClient(mockClient *shopify.MockAPIClient) *shopify.Client {
	return shopify.NewWithAPIClient(testConfig(), mockClient, otelzap.New(zap.NewNop()), nil)
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "shopify", newTestClient(shopify.NewMockAPIClient()).Name())
}

func TestClient_ShippedOrders_Params(t *testing.T) {
	var got *shopify.OrdersParams
	mockAPI := shopify.NewMockAPIClient()
	mockAPI.OnListOrders = func(ctx context.Context, params *shopify.OrdersParams) (*shopify.OrdersResponse, error) {
		got = params
		return &shopify.OrdersResponse{}, nil
	}

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	_, err := newTestClient(mockAPI).ShippedOrders(context.Background(), tracking.NewWindow(&start, &end))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "any", got.Status)
	assert.Equal(t, "shipped", got.FulfillmentStatus)
	assert.Equal(t, "created_at DESC", got.Order)
	assert.Equal(t, shopify.MaxOrderLimit, got.Limit)
	assert.Contains(t, got.Fields, "payment_gateway_names")
	assert.Contains(t, got.Fields, "fulfillments")
	require.NotNil(t, got.CreatedAtMin)
	require.NotNil(t, got.CreatedAtMax)
	assert.True(t, got.CreatedAtMin.Equal(start))
	assert.Equal(t, time.Date(2024, 5, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC), *got.CreatedAtMax)
}

func TestClient_ShippedOrders_OpenWindow(t *testing.T) {
	var got *shopify.OrdersParams
	mockAPI := shopify.NewMockAPIClient()
	mockAPI.OnListOrders = func(ctx context.Context, params *shopify.OrdersParams) (*shopify.OrdersResponse, error) {
		got = params
		return &shopify.OrdersResponse{}, nil
	}
	client := shopify.NewWithAPIClient(shopify.Config{StoreDomain: "s", AccessToken: "t", OrderLimit: 50}, mockAPI, otelzap.New(zap.NewNop()), nil)

	orders, err := client.ShippedOrders(context.Background(), tracking.Window{})

	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
	assert.Nil(t, got.CreatedAtMin)
	assert.Nil(t, got.CreatedAtMax)
	assert.Equal(t, 50, got.Limit)
}

func TestClient_ShippedOrders_Conversion(t *testing.T) {
	created := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	mockAPI := shopify.NewMockAPIClient()
	mockAPI.OnListOrders = func(ctx context.Context, params *shopify.OrdersParams) (*shopify.OrdersResponse, error) {
		return &shopify.OrdersResponse{Orders: []shopify.Order{
			{
				ID: 450789469, Name: "#1001", Gateway: "Cash on Delivery (COD)",
				PaymentGatewayNames: []string{"Cash on Delivery (COD)"}, FinancialStatus: "pending",
				CreatedAt: created,
				Customer:  &shopify.Customer{FirstName: " Lucía ", LastName: "García"},
				Fulfillments: []shopify.Fulfillment{
					{ID: 1, TrackingNumber: "PQ1", TrackingCompany: "Correos"},
					{ID: 2, TrackingNumber: "", TrackingCompany: ""},
				},
			},
			{ID: 450789470, OrderNumber: 1002, Gateway: "manual"},
		}}, nil
	}

	orders, err := newTestClient(mockAPI).ShippedOrders(context.Background(), tracking.Window{})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "450789469", first.ID)
	assert.Equal(t, "#1001", first.Name)
	assert.Equal(t, created, first.CreatedAt)
	assert.Equal(t, "pending", first.FinancialStatus)
	assert.Equal(t, []string{"Cash on Delivery (COD)"}, first.PaymentGatewayNames)
	assert.Equal(t, "Lucía García", first.CustomerName())
	assert.Equal(t, []tracking.Fulfillment{
		{TrackingNumber: "PQ1", TrackingCompany: "Correos"},
		{TrackingNumber: "", TrackingCompany: ""},
	}, first.Fulfillments)

	second := orders[1]
	assert.Equal(t, "#1002", second.Name)
	assert.Nil(t, second.Customer)
	assert.Equal(t, "N/A", second.CustomerName())
	assert.Empty(t, second.Fulfillments)
}

func TestClient_ShippedOrders_NotConfigured(t *testing.T) {
	called := false
	mockAPI := shopify.NewMockAPIClient()
	mockAPI.OnListOrders = func(ctx context.Context, params *shopify.OrdersParams) (*shopify.OrdersResponse, error) {
		called = true
		return &shopify.OrdersResponse{}, nil
	}
	client := shopify.NewWithAPIClient(shopify.Config{AccessToken: "only-token"}, mockAPI, otelzap.New(zap.NewNop()), nil)

	_, err := client.ShippedOrders(context.Background(), tracking.Window{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, tracking.ErrNotConfigured))
	assert.False(t, called)
}

func TestClient_ShippedOrders_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"unauthorized", &shopify.APIError{StatusCode: 401, Details: "[API] Invalid API key or access token"}, tracking.ErrAuthenticationFailed, "401 - [API] Invalid API key"},
		{"forbidden", &shopify.APIError{StatusCode: 403, Details: "scope"}, tracking.ErrAuthenticationFailed, "403 - scope"},
		{"server error", &shopify.APIError{StatusCode: 500, Details: "Internal Server Error"}, tracking.ErrUpstream, "Shopify API request failed: 500"},
		{"deadline", context.DeadlineExceeded, tracking.ErrTimeout, "timed out"},
		{"connection refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, tracking.ErrTransport, "no response received"},
		{"bad body", errors.New("failed to decode orders response: unexpected EOF"), tracking.ErrUpstream, "unreadable response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := shopify.NewMockAPIClient()
			mockAPI.OnListOrders = func(ctx context.Context, params *shopify.OrdersParams) (*shopify.OrdersResponse, error) {
				return nil, tt.err
			}

			client := newTestClient(mockAPI)
			orders, err := client.ShippedOrders(context.Background(), tracking.Window{})

			assert.Nil(t, orders)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), err.Error())
			assert.Contains(t, err.Error(), tt.contains)

			var svcErr *tracking.ServiceError
			require.True(t, errors.As(err, &svcErr))
			assert.Equal(t, client.Name(), svcErr.Service)
		})
	}
}

func TestClient_ShippedOrders_DefaultMock(t *testing.T) {
	client := shopify.New(shopify.Config{UseMock: true, OrderLimit: 3}, otelzap.New(zap.NewNop()), nil)

	orders, err := client.ShippedOrders(context.Background(), tracking.Window{})
	require.NoError(t, err)
	require.Len(t, orders, 3)
	for i := 1; i < len(orders); i++ {
		assert.False(t, orders[i].CreatedAt.After(orders[i-1].CreatedAt), "orders must be newest first")
	}

	since := time.Now().Add(-36 * time.Hour)
	client = shopify.New(shopify.Config{UseMock: true}, otelzap.New(zap.NewNop()), nil)
	orders, err = client.ShippedOrders(context.Background(), tracking.Window{Start: &since})
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestClient_Probe(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		success  bool
		contains string
	}{
		{"ok", nil, true, "Successfully connected"},
		{"not found", &shopify.APIError{StatusCode: http.StatusNotFound, Details: "Not Found"}, true, "404"},
		{"server error", &shopify.APIError{StatusCode: http.StatusInternalServerError}, true, "500"},
		{"unauthorized", &shopify.APIError{StatusCode: http.StatusUnauthorized}, false, "Unauthorized. Check API token and scopes."},
		{"forbidden", &shopify.APIError{StatusCode: http.StatusForbidden}, false, "Forbidden"},
		{"unauthorized with details", &shopify.APIError{StatusCode: http.StatusUnauthorized, Details: "[API] Invalid API key"}, false, "Details: [API] Invalid API key"},
		{"unreadable body", fmt.Errorf("failed to decode shop response: %w: %w", shopify.ErrMalformedResponse, errors.New("invalid character '<'")), true, "unreadable shop metadata"},
		{"timeout", context.DeadlineExceeded, false, "timed out"},
		{"transport", errors.New("dial tcp: no such host"), false, "no such host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := shopify.NewMockAPIClient()
			mockAPI.OnGetShop = func(ctx context.Context) (*shopify.ShopResponse, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &shopify.ShopResponse{}, nil
			}

			result := newTestClient(mockAPI).Probe(context.Background())

			assert.Equal(t, tt.success, result.Success)
			assert.Contains(t, result.Message, tt.contains)
		})
	}
}

func TestClient_Probe_Timeout(t *testing.T) {
	mockAPI := shopify.NewMockAPIClient()
	mockAPI.SimulateLatency = time.Second
	cfg := testConfig()
	cfg.ProbeTimeout = 20 * time.Millisecond
	client := shopify.NewWithAPIClient(cfg, mockAPI, otelzap.New(zap.NewNop()), nil)

	result := client.Probe(context.Background())

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "timed out")
}

func TestClient_Probe_NotConfigured(t *testing.T) {
	client := shopify.NewWithAPIClient(shopify.Config{StoreDomain: "beast.myshopify.com"}, shopify.NewMockAPIClient(), otelzap.New(zap.NewNop()), nil)

	result := client.Probe(context.Background())

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "not set")
}
