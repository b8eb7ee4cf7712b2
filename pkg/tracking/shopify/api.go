package shopify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// APIClient defines the Shopify Admin REST API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// ListOrders fetches a single page of orders matching params.
	ListOrders(ctx context.Context, params *OrdersParams) (*OrdersResponse, error)

	// GetShop reads the shop metadata. Used as a lightweight connectivity check.
	GetShop(ctx context.Context) (*ShopResponse, error)
}

// ============================================================================
// API Request/Response Types (match Shopify Admin REST API structure)
// ============================================================================

// OrdersParams are the query parameters of GET /orders.json.
type OrdersParams struct {
	Status            string // "any", "open", "closed", "cancelled"
	FulfillmentStatus string // "shipped", "partial", "unshipped", "any"
	Fields            []string
	Limit             int // max 250
	Order             string
	CreatedAtMin      *time.Time
	CreatedAtMax      *time.Time
}

// OrdersResponse is the body of GET /orders.json.
type OrdersResponse struct {
	Orders []Order `json:"orders"`
}

// Order is a Shopify order restricted to the requested fields.
type Order struct {
	ID                  int64         `json:"id"`
	Name                string        `json:"name"`
	OrderNumber         int           `json:"order_number"`
	Gateway             string        `json:"gateway"`
	PaymentGatewayNames []string      `json:"payment_gateway_names"`
	FinancialStatus     string        `json:"financial_status"`
	CreatedAt           time.Time     `json:"created_at"`
	Customer            *Customer     `json:"customer"`
	Fulfillments        []Fulfillment `json:"fulfillments"`
}

// Customer is the customer attached to an order.
type Customer struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Fulfillment is a shipped part of an order. Tracking fields are null when
// the merchant did not enter them.
type Fulfillment struct {
	ID              int64    `json:"id"`
	Status          string   `json:"status,omitempty"`
	TrackingNumber  string   `json:"tracking_number"`
	TrackingCompany string   `json:"tracking_company"`
	TrackingNumbers []string `json:"tracking_numbers,omitempty"`
}

// ShopResponse is the body of GET /shop.json.
type ShopResponse struct {
	Shop Shop `json:"shop"`
}

// Shop holds the store metadata.
type Shop struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Domain          string `json:"domain"`
	MyshopifyDomain string `json:"myshopify_domain"`
	Currency        string `json:"currency,omitempty"`
}

// ErrMalformedResponse is returned when a 2xx response body cannot be
// decoded.
var ErrMalformedResponse = errors.New("malformed response body")

// APIError is a non-2xx answer from the Shopify API. Details holds the
// response's errors field, or the raw body when there is none.
type APIError struct {
	StatusCode int
	Details    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Details)
}
