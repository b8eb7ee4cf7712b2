package correos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tournevent/codtracker/pkg/tracking"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	userAgent   = "codtracker/1.0"
	maxBodySize = 1 << 20
)

// HTTPAPIClient is the production implementation of APIClient.
type HTTPAPIClient struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL  string
	ClientID string
	Secret   string
	Timeout  time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
// Per-call deadlines come from the request context; Timeout is an upper
// bound for the client as a whole.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		clientID: cfg.ClientID,
		secret:   cfg.Secret,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// GetEvents calls GET {base}/{code}?codIdioma=ES&indUltEvento=S, asking for
// the latest event only, in Spanish.
func (c *HTTPAPIClient) GetEvents(ctx context.Context, trackingNumber string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s?codIdioma=ES&indUltEvento=S", c.baseURL, url.PathEscape(trackingNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, tracking.NewServiceError(carrierName, tracking.CodeInvalidRequest, "Error in Correos request setup").WithCause(err)
	}

	// Correos uses Basic Auth with client ID:secret
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Accept", "application/json")
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

// parseError extracts the Correos error description from a failure body.
func parseError(status int, body []byte) *APIError {
	var payload struct {
		Error *struct {
			Codigo      string `json:"codigo"`
			Descripcion string `json:"descripcion"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != nil && payload.Error.Descripcion != "" {
			return &APIError{StatusCode: status, Code: payload.Error.Codigo, Description: payload.Error.Descripcion}
		}
		if payload.Message != "" {
			return &APIError{StatusCode: status, Description: payload.Message}
		}
	}

	return &APIError{
		StatusCode:  status,
		Code:        fmt.Sprintf("HTTP_%d", status),
		Description: strings.TrimSpace(string(body)),
	}
}

var _ APIClient = (*HTTPAPIClient)(nil)
