package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tournevent/codtracker/internal/config"
	"github.com/tournevent/codtracker/internal/dashboard"
	"github.com/tournevent/codtracker/internal/telemetry"
	"github.com/tournevent/codtracker/pkg/tracking"
	"github.com/tournevent/codtracker/pkg/tracking/correos"
	"github.com/tournevent/codtracker/pkg/tracking/shopify"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// app is the wired service graph shared by all commands.
type app struct {
	cfg      *config.Config
	logger   *otelzap.Logger
	resolver *dashboard.Resolver
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}

	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
}

// setup loads configuration and wires every component. The returned
// cleanup flushes the tracer and the logger.
func setup(ctx context.Context, reg prometheus.Registerer) (*app, func(), error) {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
		tracer, tracerShutdown = nil, func(context.Context) error { return nil }
	}
	cleanup := func() {
		_ = tracerShutdown(context.Background())
		_ = logger.Sync()
	}

	warnMissingSettings(cfg, logger)

	resolver, err := initResolver(cfg, logger, tracer, telemetry.NewMetrics(reg))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return &app{cfg: cfg, logger: logger, resolver: resolver}, cleanup, nil
}

func warnMissingSettings(cfg *config.Config, logger *otelzap.Logger) {
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		logger.Warn("One or more critical environment variables (Shopify/Correos credentials) are not set",
			zap.Strings("missing", missing),
		)
	}
	if cfg.AppPassword == "" {
		logger.Warn("APP_PASSWORD is not set, dashboard login is disabled")
	}
}

func initRules(cfg *config.Config, logger *otelzap.Logger) ([]tracking.Rule, error) {
	if cfg.StatusRulesFile == "" {
		return tracking.DefaultRules(), nil
	}
	rules, err := tracking.LoadRules(cfg.StatusRulesFile)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded status rules", zap.String("file", cfg.StatusRulesFile), zap.Int("rules", len(rules)))
	return rules, nil
}

func initResolver(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) (*dashboard.Resolver, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	rules, err := initRules(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("status rules: %w", err)
	}

	orders := shopify.New(shopify.Config{
		StoreDomain: cfg.ShopifyStoreDomain,
		AccessToken: cfg.ShopifyAccessToken,
		BaseURL:     cfg.ShopifyAdminURL(),
		OrderLimit:  cfg.ShopifyOrderLimit,
		UseMock:     cfg.ShopifyUseMock,
	}, logger, tracer)

	carrier := correos.New(correos.Config{
		ClientID: cfg.CorreosClientID,
		Secret:   cfg.CorreosSecret,
		BaseURL:  cfg.CorreosBaseURL,
		UseMock:  cfg.CorreosUseMock,
	}, logger, tracer)

	aggregator := tracking.NewAggregator(
		orders,
		carrier,
		tracking.NewClassifier(rules, logger),
		tracking.AggregatorConfig{
			Policy: tracking.Policy{
				CODMarker:    cfg.CODGatewayMarker,
				ManualMarker: cfg.ManualGatewayMarker,
				CarrierToken: cfg.CarrierToken,
			},
			DateLayout: cfg.OrderDateLayout,
			Location:   loc,
		},
		logger,
		tracer,
	)
	probe := tracking.NewConnectivityProbe(orders, carrier)

	return dashboard.NewResolver(aggregator, probe, loc, logger, metrics), nil
}
