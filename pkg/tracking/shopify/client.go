// Package shopify provides the Shopify Admin API order source.
package shopify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/codtracker/pkg/tracking"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const serviceName = "shopify"

// MaxOrderLimit is the largest page Shopify serves.
const MaxOrderLimit = 250

// orderFields are the only order fields requested.
var orderFields = []string{
	"id", "name", "order_number", "fulfillments", "gateway",
	"payment_gateway_names", "customer", "financial_status", "created_at",
}

// Config holds Shopify configuration.
type Config struct {
	StoreDomain  string
	AccessToken  string
	BaseURL      string // Admin API root
	OrderLimit   int
	UseMock      bool // When true, uses mock API client
	ProbeTimeout time.Duration
}

// Client is the Shopify order source.
// It implements tracking.OrderSource and tracking.Prober and delegates
// API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Shopify client.
// If cfg.UseMock is true, it serves demo orders.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:     cfg.BaseURL,
			AccessToken: cfg.AccessToken,
			Timeout:     30 * time.Second,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Shopify client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.OrderLimit <= 0 || cfg.OrderLimit > MaxOrderLimit {
		cfg.OrderLimit = MaxOrderLimit
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if tracer == nil {
		tracer = otel.Tracer("github.com/tournevent/codtracker/pkg/tracking/shopify")
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the service name.
func (c *Client) Name() string {
	return serviceName
}

func (c *Client) configured() bool {
	return c.config.UseMock || (c.config.AccessToken != "" && c.config.StoreDomain != "")
}

// ShippedOrders fetches a single page of shipped orders created inside w,
// most recent first.
func (c *Client) ShippedOrders(ctx context.Context, w tracking.Window) ([]tracking.Order, error) {
	if !c.configured() {
		c.logger.Error("Shopify API credentials are not set")
		return nil, tracking.NewServiceError(c.Name(), tracking.CodeConfiguration, "Shopify API credentials are not set.")
	}

	params := &OrdersParams{
		Status:            "any",
		FulfillmentStatus: "shipped",
		Fields:            orderFields,
		Limit:             c.config.OrderLimit,
		Order:             "created_at DESC",
		CreatedAtMin:      w.Start,
		CreatedAtMax:      w.End,
	}

	ctx, span := c.tracer.Start(ctx, "shopify.ListOrders", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	c.logger.Info("Fetching orders from Shopify",
		zap.Int("limit", params.Limit),
		zap.Timep("created_at_min", params.CreatedAtMin),
		zap.Timep("created_at_max", params.CreatedAtMax),
	)

	resp, err := c.apiClient.ListOrders(ctx, params)
	if err != nil {
		svcErr := c.wrapError(err)
		span.RecordError(svcErr)
		c.logger.Error("Error fetching Shopify orders", zap.Error(svcErr))
		return nil, svcErr
	}

	orders := make([]tracking.Order, 0, len(resp.Orders))
	for i := range resp.Orders {
		orders = append(orders, orderToTracking(&resp.Orders[i]))
	}

	span.SetAttributes(attribute.Int("shopify.order_count", len(orders)))
	c.logger.Info("Fetched orders from Shopify", zap.Int("order_count", len(orders)))
	return orders, nil
}

// Probe reads the shop metadata. Any answer other than an authentication
// rejection means the store is reachable with these credentials.
func (c *Client) Probe(ctx context.Context) tracking.ProbeResult {
	if !c.configured() {
		return tracking.ProbeResult{
			Success: false,
			Message: "Shopify API credentials (token or domain) are not set in environment variables.",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	_, err := c.apiClient.GetShop(ctx)
	if err == nil {
		return tracking.ProbeResult{Success: true, Message: "Successfully connected to Shopify API."}
	}

	c.logger.Warn("Shopify connection test returned an error", zap.Error(err))

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return tracking.ProbeResult{Success: false, Message: authFailureMessage(apiErr)}
		default:
			return tracking.ProbeResult{
				Success: true,
				Message: fmt.Sprintf("Connected to Shopify API (HTTP %d on shop metadata, credentials accepted).", apiErr.StatusCode),
			}
		}
	}

	if errors.Is(err, ErrMalformedResponse) {
		return tracking.ProbeResult{
			Success: true,
			Message: "Connected to Shopify API (unreadable shop metadata, credentials accepted).",
		}
	}
	if isTimeout(err) {
		return tracking.ProbeResult{Success: false, Message: "Shopify API connection timed out. Check store domain and network."}
	}
	return tracking.ProbeResult{Success: false, Message: fmt.Sprintf("Shopify connection test failed: %v", err)}
}

func authFailureMessage(apiErr *APIError) string {
	msg := fmt.Sprintf("Shopify API request failed: %d.", apiErr.StatusCode)
	switch {
	case apiErr.Details != "":
		return msg + " Details: " + apiErr.Details
	case apiErr.StatusCode == http.StatusUnauthorized:
		return msg + " Details: Unauthorized. Check API token and scopes."
	default:
		return msg + " Details: Forbidden. Check API token permissions/scopes."
	}
}

// wrapError converts a transport or API failure into a ServiceError.
func (c *Client) wrapError(err error) *tracking.ServiceError {
	var svcErr *tracking.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		code := tracking.CodeUpstream
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			code = tracking.CodeAuthentication
		}
		return tracking.NewServiceError(c.Name(), code,
			fmt.Sprintf("Shopify API request failed: %s", apiErr.Error())).
			WithStatusCode(apiErr.StatusCode)
	}

	if isTimeout(err) {
		return tracking.NewServiceError(c.Name(), tracking.CodeTimeout, "Shopify API connection timed out.").WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return tracking.NewServiceError(c.Name(), tracking.CodeTransport, "Shopify API request cancelled.").WithCause(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return tracking.NewServiceError(c.Name(), tracking.CodeTransport, "Shopify API request made but no response received.").WithCause(err)
	}
	return tracking.NewServiceError(c.Name(), tracking.CodeUpstream, "Shopify API returned an unreadable response.").WithCause(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func orderToTracking(o *Order) tracking.Order {
	order := tracking.Order{
		ID:                  strconv.FormatInt(o.ID, 10),
		Name:                o.Name,
		CreatedAt:           o.CreatedAt,
		Gateway:             o.Gateway,
		PaymentGatewayNames: o.PaymentGatewayNames,
		FinancialStatus:     o.FinancialStatus,
		Fulfillments:        make([]tracking.Fulfillment, 0, len(o.Fulfillments)),
	}
	if order.Name == "" && o.OrderNumber != 0 {
		order.Name = "#" + strconv.Itoa(o.OrderNumber)
	}
	if o.Customer != nil {
		order.Customer = &tracking.Customer{
			FirstName: strings.TrimSpace(o.Customer.FirstName),
			LastName:  strings.TrimSpace(o.Customer.LastName),
		}
	}
	for _, f := range o.Fulfillments {
		order.Fulfillments = append(order.Fulfillments, tracking.Fulfillment{
			TrackingNumber:  f.TrackingNumber,
			TrackingCompany: f.TrackingCompany,
		})
	}
	return order
}
