package shopify

import (
	"context"
	"net/http"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing and demos.
// Without hooks it serves a fixed set of demo orders created over the last
// few days, newest first.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnListOrders func(ctx context.Context, params *OrdersParams) (*OrdersResponse, error)
	OnGetShop    func(ctx context.Context) (*ShopResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// ListOrders returns the demo orders inside the params' created_at range.
func (m *MockAPIClient) ListOrders(ctx context.Context, params *OrdersParams) (*OrdersResponse, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	if m.SimulateErrors {
		return nil, &APIError{StatusCode: http.StatusInternalServerError, Details: "Simulated API error"}
	}

	if m.OnListOrders != nil {
		return m.OnListOrders(ctx, params)
	}

	all := demoOrders(time.Now())
	orders := make([]Order, 0, len(all))
	for _, o := range all {
		if params != nil {
			if params.CreatedAtMin != nil && o.CreatedAt.Before(*params.CreatedAtMin) {
				continue
			}
			if params.CreatedAtMax != nil && o.CreatedAt.After(*params.CreatedAtMax) {
				continue
			}
			if params.Limit > 0 && len(orders) == params.Limit {
				break
			}
		}
		orders = append(orders, o)
	}
	return &OrdersResponse{Orders: orders}, nil
}

// GetShop returns mock shop metadata.
func (m *MockAPIClient) GetShop(ctx context.Context) (*ShopResponse, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	if m.SimulateErrors {
		return nil, &APIError{StatusCode: http.StatusInternalServerError, Details: "Simulated API error"}
	}

	if m.OnGetShop != nil {
		return m.OnGetShop(ctx)
	}

	return &ShopResponse{Shop: Shop{
		ID:              1,
		Name:            "Demo Store",
		Domain:          "demo.example.com",
		MyshopifyDomain: "demo.myshopify.com",
		Currency:        "EUR",
	}}, nil
}

func (m *MockAPIClient) wait(ctx context.Context) error {
	if m.SimulateLatency <= 0 {
		return nil
	}
	select {
	case <-time.After(m.SimulateLatency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// demoOrders builds the demo set relative to now. It mixes COD and prepaid
// orders, carriers other than Correos and fulfillments without tracking.
func demoOrders(now time.Time) []Order {
	day := 24 * time.Hour
	return []Order{
		{
			ID: 5801, Name: "#1008", OrderNumber: 1008,
			Gateway: "Cash on Delivery (COD)", PaymentGatewayNames: []string{"Cash on Delivery (COD)"},
			FinancialStatus: "pending", CreatedAt: now.Add(-2 * time.Hour),
			Customer:     &Customer{FirstName: "Lucía", LastName: "García"},
			Fulfillments: []Fulfillment{{ID: 9108, Status: "success", TrackingNumber: "PQ4F6D8A0011234567", TrackingCompany: "Correos"}},
		},
		{
			ID: 5800, Name: "#1007", OrderNumber: 1007,
			Gateway: "shopify_payments", PaymentGatewayNames: []string{"shopify_payments"},
			FinancialStatus: "paid", CreatedAt: now.Add(-6 * time.Hour),
			Customer:     &Customer{FirstName: "Marc", LastName: "Puig"},
			Fulfillments: []Fulfillment{{ID: 9107, Status: "success", TrackingNumber: "PQ4F6D8A0029876543", TrackingCompany: "Correos"}},
		},
		{
			ID: 5799, Name: "#1006", OrderNumber: 1006,
			Gateway: "manual", PaymentGatewayNames: []string{"manual"},
			FinancialStatus: "pending", CreatedAt: now.Add(-1 * day),
			Customer:     &Customer{FirstName: "Ana", LastName: "Martín"},
			Fulfillments: []Fulfillment{{ID: 9106, Status: "success", TrackingNumber: "PK7R2C0033345678", TrackingCompany: ""}},
		},
		{
			ID: 5798, Name: "#1005", OrderNumber: 1005,
			Gateway: "Contra reembolso", PaymentGatewayNames: []string{"Cash on Delivery (COD)"},
			FinancialStatus: "pending", CreatedAt: now.Add(-2 * day),
			Fulfillments: []Fulfillment{
				{ID: 9105, Status: "success", TrackingNumber: "1Z999AA10123456784", TrackingCompany: "UPS"},
				{ID: 9115, Status: "success", TrackingNumber: "PQ4F6D8A004NOTFOUND", TrackingCompany: "Correos Express"},
			},
		},
		{
			ID: 5797, Name: "#1004", OrderNumber: 1004,
			Gateway: "Cash on Delivery (COD)", PaymentGatewayNames: []string{"Cash on Delivery (COD)"},
			FinancialStatus: "pending", CreatedAt: now.Add(-3 * day),
			Customer:     &Customer{FirstName: "Javier", LastName: ""},
			Fulfillments: []Fulfillment{{ID: 9104, Status: "success", TrackingNumber: "", TrackingCompany: "Correos"}},
		},
		{
			ID: 5796, Name: "#1003", OrderNumber: 1003,
			Gateway: "Cash on Delivery (COD)", PaymentGatewayNames: []string{"Cash on Delivery (COD)"},
			FinancialStatus: "pending", CreatedAt: now.Add(-4 * day),
			Customer:     &Customer{FirstName: "Carmen", LastName: "López"},
			Fulfillments: []Fulfillment{{ID: 9103, Status: "success", TrackingNumber: "PQ4F6D8A0051122334", TrackingCompany: "correos"}},
		},
		{
			ID: 5795, Name: "#1002", OrderNumber: 1002,
			Gateway: "Cash on Delivery (COD)", PaymentGatewayNames: []string{"Cash on Delivery (COD)"},
			FinancialStatus: "pending", CreatedAt: now.Add(-6 * day),
			Customer:     &Customer{FirstName: "Pablo", LastName: "Ruiz"},
			Fulfillments: []Fulfillment{{ID: 9102, Status: "success", TrackingNumber: "PQ4F6D8A0065566778", TrackingCompany: "Correos"}},
		},
	}
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
