package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/codtracker/pkg/tracking"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	userAgent   = "codtracker/1.0"
	maxBodySize = 8 << 20

	// isoLayout is UTC with millisecond precision, the format Shopify
	// documents for created_at filters.
	isoLayout = "2006-01-02T15:04:05.000Z07:00"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL     string // Admin API root, e.g. https://shop.myshopify.com/admin/api/2024-04
	AccessToken string
	Timeout     time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ListOrders fetches orders from the Shopify API.
// GET /orders.json
func (c *HTTPAPIClient) ListOrders(ctx context.Context, params *OrdersParams) (*OrdersResponse, error) {
	body, err := c.get(ctx, "/orders.json", encodeOrdersParams(params))
	if err != nil {
		return nil, err
	}

	var result OrdersResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode orders response: %w: %w", ErrMalformedResponse, err)
	}
	return &result, nil
}

// GetShop reads the shop metadata.
// GET /shop.json
func (c *HTTPAPIClient) GetShop(ctx context.Context) (*ShopResponse, error) {
	body, err := c.get(ctx, "/shop.json", nil)
	if err != nil {
		return nil, err
	}

	var result ShopResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode shop response: %w: %w", ErrMalformedResponse, err)
	}
	return &result, nil
}

// get performs a GET with the access token header and returns the body of a
// 2xx answer. Other answers are returned as *APIError.
func (c *HTTPAPIClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, tracking.NewServiceError(serviceName, tracking.CodeInvalidRequest, "Error in Shopify request setup").WithCause(err)
	}

	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, body)
	}
	return body, nil
}

func encodeOrdersParams(p *OrdersParams) url.Values {
	q := url.Values{}
	if p == nil {
		return q
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.FulfillmentStatus != "" {
		q.Set("fulfillment_status", p.FulfillmentStatus)
	}
	if len(p.Fields) > 0 {
		q.Set("fields", strings.Join(p.Fields, ","))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	if p.CreatedAtMin != nil {
		q.Set("created_at_min", p.CreatedAtMin.UTC().Format(isoLayout))
	}
	if p.CreatedAtMax != nil {
		q.Set("created_at_max", p.CreatedAtMax.UTC().Format(isoLayout))
	}
	return q
}

// parseError extracts the errors field of a Shopify failure body. String
// values are unquoted, objects and arrays are kept as compact JSON.
func parseError(status int, body []byte) *APIError {
	var payload struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Errors) > 0 && string(payload.Errors) != "null" {
		var s string
		if err := json.Unmarshal(payload.Errors, &s); err == nil {
			return &APIError{StatusCode: status, Details: s}
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, payload.Errors); err == nil {
			return &APIError{StatusCode: status, Details: buf.String()}
		}
	}

	return &APIError{StatusCode: status, Details: strings.TrimSpace(string(body))}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
