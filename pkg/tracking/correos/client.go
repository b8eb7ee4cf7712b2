// Package correos provides the Correos (Spain) parcel tracking integration.
package correos

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tournevent/codtracker/pkg/tracking"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "correos"

// ProbeTrackingNumber is a well-formed code that never exists. Looking it up
// exercises authentication without touching a real parcel.
const ProbeTrackingNumber = "TEST000000000ES"

// Config holds Correos configuration.
type Config struct {
	ClientID      string
	Secret        string
	BaseURL       string
	UseMock       bool
	LookupTimeout time.Duration
	ProbeTimeout  time.Duration
}

// Client is the Correos tracking client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Correos client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:  cfg.BaseURL,
			ClientID: cfg.ClientID,
			Secret:   cfg.Secret,
			Timeout:  30 * time.Second,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Correos client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.LookupTimeout == 0 {
		cfg.LookupTimeout = 7 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if tracer == nil {
		tracer = otel.Tracer("github.com/tournevent/codtracker/pkg/tracking/correos")
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

func (c *Client) configured() bool {
	return c.config.UseMock || (c.config.ClientID != "" && c.config.Secret != "")
}

// Resolve returns the latest event description for trackingNumber. A parcel
// unknown to Correos resolves to NotFoundStatus rather than an error.
func (c *Client) Resolve(ctx context.Context, trackingNumber string) (string, error) {
	if !c.configured() {
		c.logger.Error("Correos API credentials are not set")
		return "", tracking.NewServiceError(c.Name(), tracking.CodeConfiguration, "Correos API credentials are not set.")
	}
	code := strings.TrimSpace(trackingNumber)
	if code == "" {
		return "", tracking.NewServiceError(c.Name(), tracking.CodeInvalidRequest, "Tracking number is required.")
	}

	ctx, span := c.tracer.Start(ctx, "correos.GetEvents", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.config.LookupTimeout)
	defer cancel()

	body, err := c.apiClient.GetEvents(ctx, code)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return NotFoundStatus, nil
		}
		svcErr := c.wrapError(err)
		span.RecordError(svcErr)
		c.logger.Error("Error fetching Correos tracking",
			zap.String("tracking_number", code),
			zap.Error(svcErr),
		)
		return "", svcErr
	}

	desc, shape, ok := describe(body)
	if !ok {
		desc = fallback(body)
		span.SetAttributes(attribute.String("correos.shape", "unknown"))
		c.logger.Warn("Correos API response has unexpected structure",
			zap.String("tracking_number", code),
			zap.ByteString("body", truncate(body, 512)),
		)
		return desc, nil
	}

	span.SetAttributes(attribute.String("correos.shape", shape))
	c.logger.Debug("Resolved Correos tracking status",
		zap.String("tracking_number", code),
		zap.String("shape", shape),
		zap.String("description", desc),
	)
	return desc, nil
}

// Probe checks the credentials by looking up ProbeTrackingNumber. Not found
// and bad format answers mean the credentials were accepted.
func (c *Client) Probe(ctx context.Context) tracking.ProbeResult {
	if !c.configured() {
		return tracking.ProbeResult{
			Success: false,
			Message: "Correos API credentials (Client ID or Secret) are not set in environment variables.",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	_, err := c.apiClient.GetEvents(ctx, ProbeTrackingNumber)
	if err == nil {
		return tracking.ProbeResult{
			Success: true,
			Message: "Successfully authenticated with Correos API (dummy tracking number used for test).",
		}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound, http.StatusBadRequest:
			return tracking.ProbeResult{
				Success: true,
				Message: fmt.Sprintf("Authenticated with Correos API. Test tracking number %s was not found (expected).", ProbeTrackingNumber),
			}
		case http.StatusUnauthorized, http.StatusForbidden:
			return tracking.ProbeResult{
				Success: false,
				Message: fmt.Sprintf("Correos API Authentication Failed: %d. Check Client ID and Secret.", apiErr.StatusCode),
			}
		default:
			return tracking.ProbeResult{
				Success: false,
				Message: fmt.Sprintf("Correos API request failed during test: %s", apiErr.Error()),
			}
		}
	}

	c.logger.Warn("Correos connection test failed", zap.Error(err))
	return tracking.ProbeResult{Success: false, Message: c.wrapError(err).Message}
}

// wrapError converts a transport or API failure into a ServiceError.
func (c *Client) wrapError(err error) *tracking.ServiceError {
	var svcErr *tracking.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			return tracking.NewServiceError(c.Name(), tracking.CodeAuthentication,
				fmt.Sprintf("Correos API Authentication Failed: %d. Check Client ID and Secret.", apiErr.StatusCode)).
				WithStatusCode(apiErr.StatusCode)
		}
		return tracking.NewServiceError(c.Name(), tracking.CodeUpstream,
			fmt.Sprintf("Correos API request failed: %s", apiErr.Error())).
			WithStatusCode(apiErr.StatusCode)
	}

	if isTimeout(err) {
		return tracking.NewServiceError(c.Name(), tracking.CodeTimeout, "Correos API connection timed out.").WithCause(err)
	}
	return tracking.NewServiceError(c.Name(), tracking.CodeTransport, "Correos API request made but no response received.").WithCause(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
