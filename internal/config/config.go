package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port               int      `envconfig:"PORT" default:"3000"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"info"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	LoginRateLimit     string   `envconfig:"LOGIN_RATE_LIMIT" default:"20-M"`

	// Dashboard login (single shared pair)
	AppUser     string `envconfig:"APP_USER" default:"gm"`
	AppPassword string `envconfig:"APP_PASSWORD"`

	// Shopify
	ShopifyStoreDomain string `envconfig:"SHOPIFY_STORE_DOMAIN"`
	ShopifyAccessToken string `envconfig:"SHOPIFY_ACCESS_TOKEN"`
	ShopifyAPIVersion  string `envconfig:"SHOPIFY_API_VERSION" default:"2024-04"`
	ShopifyBaseURL     string `envconfig:"SHOPIFY_BASE_URL"`
	ShopifyOrderLimit  int    `envconfig:"SHOPIFY_ORDER_LIMIT" default:"250"`
	ShopifyUseMock     bool   `envconfig:"SHOPIFY_USE_MOCK" default:"false"`

	// Correos
	CorreosClientID string `envconfig:"CORREOS_CLIENT_ID"`
	CorreosSecret   string `envconfig:"CORREOS_SECRET"`
	CorreosBaseURL  string `envconfig:"CORREOS_BASE_URL" default:"https://localizador.correos.es/canonico/eventos_envio_servicio_auth"`
	CorreosUseMock  bool   `envconfig:"CORREOS_USE_MOCK" default:"false"`

	// Order selection
	CODGatewayMarker    string `envconfig:"COD_GATEWAY_MARKER" default:"cash on delivery"`
	ManualGatewayMarker string `envconfig:"MANUAL_GATEWAY_MARKER" default:"manual"`
	CarrierToken        string `envconfig:"CARRIER_TOKEN" default:"correos"`
	StatusRulesFile     string `envconfig:"STATUS_RULES_FILE"`
	OrderDateLayout     string `envconfig:"ORDER_DATE_LAYOUT" default:"02/01/2006"`
	StoreTimezone       string `envconfig:"STORE_TIMEZONE" default:"Local"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"codtracker"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.1.0"`
}

// Load reads configuration from environment variables. Values from a .env
// file in the working directory are applied first without overriding the
// process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.ShopifyOrderLimit <= 0 || cfg.ShopifyOrderLimit > 250 {
		return nil, fmt.Errorf("loading config: SHOPIFY_ORDER_LIMIT must be between 1 and 250, got %d", cfg.ShopifyOrderLimit)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// ShopifyConfigured reports whether the commerce credentials are present.
func (c *Config) ShopifyConfigured() bool {
	return c.ShopifyUseMock || (strings.TrimSpace(c.ShopifyAccessToken) != "" && strings.TrimSpace(c.ShopifyStoreDomain) != "")
}

// CorreosConfigured reports whether the carrier credentials are present.
func (c *Config) CorreosConfigured() bool {
	return c.CorreosUseMock || (strings.TrimSpace(c.CorreosClientID) != "" && strings.TrimSpace(c.CorreosSecret) != "")
}

// MissingCredentials lists the credential variables that are not set.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if !c.ShopifyUseMock {
		if strings.TrimSpace(c.ShopifyAccessToken) == "" {
			missing = append(missing, "SHOPIFY_ACCESS_TOKEN")
		}
		if strings.TrimSpace(c.ShopifyStoreDomain) == "" {
			missing = append(missing, "SHOPIFY_STORE_DOMAIN")
		}
	}
	if !c.CorreosUseMock {
		if strings.TrimSpace(c.CorreosClientID) == "" {
			missing = append(missing, "CORREOS_CLIENT_ID")
		}
		if strings.TrimSpace(c.CorreosSecret) == "" {
			missing = append(missing, "CORREOS_SECRET")
		}
	}
	return missing
}

// ShopifyAdminURL returns the Admin REST API root for the configured store.
func (c *Config) ShopifyAdminURL() string {
	if c.ShopifyBaseURL != "" {
		return strings.TrimRight(c.ShopifyBaseURL, "/")
	}
	domain := strings.TrimSuffix(strings.TrimSpace(c.ShopifyStoreDomain), "/")
	domain = strings.TrimPrefix(domain, "https://")
	return fmt.Sprintf("https://%s/admin/api/%s", domain, c.ShopifyAPIVersion)
}

// Location resolves StoreTimezone. Date filters are interpreted in it.
func (c *Config) Location() (*time.Location, error) {
	switch c.StoreTimezone {
	case "", "Local":
		return time.Local, nil
	default:
		loc, err := time.LoadLocation(c.StoreTimezone)
		if err != nil {
			return nil, fmt.Errorf("invalid STORE_TIMEZONE %q: %w", c.StoreTimezone, err)
		}
		return loc, nil
	}
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("shopify.configured", c.ShopifyConfigured()),
		attribute.Bool("shopify.mock", c.ShopifyUseMock),
		attribute.Bool("correos.configured", c.CorreosConfigured()),
		attribute.Bool("correos.mock", c.CorreosUseMock),
	}
}
