// Package dashboard implements the operations behind the dashboard API.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/tournevent/codtracker/internal/telemetry"
	"github.com/tournevent/codtracker/pkg/tracking"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Aggregator builds the tracked order list for a window.
type Aggregator interface {
	Aggregate(ctx context.Context, w tracking.Window) ([]tracking.Record, error)
}

// ConnectivityChecker probes both upstream services.
type ConnectivityChecker interface {
	Run(ctx context.Context) tracking.Report
}

// ConnectionsReport is the connectivity report keyed by service name.
type ConnectionsReport struct {
	Shopify tracking.ProbeResult `json:"shopify"`
	Correos tracking.ProbeResult `json:"correos"`
}

// OK reports whether both services are reachable.
func (r ConnectionsReport) OK() bool {
	return r.Shopify.Success && r.Correos.Success
}

// Resolver holds the dependencies of the dashboard operations.
type Resolver struct {
	Aggregator Aggregator
	Probe      ConnectivityChecker
	Location   *time.Location
	Logger     *otelzap.Logger
	Metrics    *telemetry.Metrics
}

// NewResolver creates a new resolver with the given dependencies. Date
// filters are read in loc.
func NewResolver(aggregator Aggregator, probe ConnectivityChecker, loc *time.Location, logger *otelzap.Logger, metrics *telemetry.Metrics) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{
		Aggregator: aggregator,
		Probe:      probe,
		Location:   loc,
		Logger:     logger,
		Metrics:    metrics,
	}
}

// Orders returns the tracked COD orders created between startDate and
// endDate. Both are optional; unparseable values are logged and ignored.
func (r *Resolver) Orders(ctx context.Context, startDate, endDate string) ([]tracking.Record, error) {
	start := time.Now()

	r.Logger.Ctx(ctx).Info("Fetching tracked orders",
		zap.String("start_date", startDate),
		zap.String("end_date", endDate),
	)

	records, err := r.Aggregator.Aggregate(ctx, r.Window(ctx, startDate, endDate))
	if err != nil {
		r.Metrics.RecordRequest("orders", "error", time.Since(start).Seconds())
		r.Metrics.RecordError(serviceOf(err), tracking.ErrorType(err))
		r.Logger.Ctx(ctx).Error("Failed to fetch order data", zap.Error(err))
		return nil, err
	}

	for _, rec := range records {
		r.Metrics.RecordTracked(statusLabel(rec.Status))
		if rec.Status == tracking.StatusTrackingError {
			r.Metrics.RecordError("correos", "lookup")
		}
	}
	r.Metrics.RecordRequest("orders", "success", time.Since(start).Seconds())
	return records, nil
}

// statusLabel bounds the status label to the canonical values. Carrier text
// that no rule matched is counted as "unmapped".
func statusLabel(s tracking.Status) string {
	if !s.Canonical() {
		return "unmapped"
	}
	return string(s)
}

// Window builds the order window from the raw query values.
func (r *Resolver) Window(ctx context.Context, startDate, endDate string) tracking.Window {
	var startPtr, endPtr *time.Time

	if s, ok := r.parseBound(ctx, "startDate", startDate); ok {
		startPtr = &s
	}
	if e, ok := r.parseBound(ctx, "endDate", endDate); ok {
		endPtr = &e
	}
	return tracking.NewWindow(startPtr, endPtr)
}

func (r *Resolver) parseBound(ctx context.Context, name, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := ParseDate(value, r.Location)
	if err != nil {
		r.Logger.Ctx(ctx).Warn("Invalid date filter, ignoring",
			zap.String("param", name),
			zap.String("value", value),
		)
		return time.Time{}, false
	}
	return t, true
}

// TestConnections probes Shopify and Correos. It never fails.
func (r *Resolver) TestConnections(ctx context.Context) ConnectionsReport {
	start := time.Now()

	report := r.Probe.Run(ctx)
	out := ConnectionsReport{Shopify: report.Commerce, Correos: report.Carrier}

	status := "success"
	if !out.OK() {
		status = "failure"
	}
	r.Metrics.RecordRequest("test_connections", status, time.Since(start).Seconds())
	r.Logger.Ctx(ctx).Info("API connection test finished",
		zap.Bool("shopify", out.Shopify.Success),
		zap.Bool("correos", out.Correos.Success),
	)
	return out
}

func serviceOf(err error) string {
	var svcErr *tracking.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Service
	}
	return "unknown"
}
