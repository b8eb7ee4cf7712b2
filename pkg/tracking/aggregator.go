package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/tournevent/codtracker/pkg/tracking"

// AggregatorConfig holds presentation and selection settings.
type AggregatorConfig struct {
	Policy     Policy
	DateLayout string         // layout of Record.OrderDate
	Location   *time.Location // zone used to render order dates
}

// Aggregator builds the tracked COD order list.
type Aggregator struct {
	orders     OrderSource
	resolver   StatusResolver
	classifier *Classifier
	config     AggregatorConfig
	logger     *otelzap.Logger
	tracer     trace.Tracer
}

// NewAggregator creates an aggregator. A nil tracer falls back to the global
// provider.
func NewAggregator(orders OrderSource, resolver StatusResolver, classifier *Classifier, cfg AggregatorConfig, logger *otelzap.Logger, tracer trace.Tracer) *Aggregator {
	if cfg.DateLayout == "" {
		cfg.DateLayout = "02/01/2006"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Aggregator{
		orders:     orders,
		resolver:   resolver,
		classifier: classifier,
		config:     cfg,
		logger:     logger,
		tracer:     tracer,
	}
}

// Aggregate fetches shipped orders in w and returns one record per COD order
// with a carrier fulfillment, in upstream order. Tracking lookups run one at
// a time. A failed lookup yields a StatusTrackingError record; only failures
// of the order query itself are returned as errors.
func (a *Aggregator) Aggregate(ctx context.Context, w Window) ([]Record, error) {
	ctx, span := a.tracer.Start(ctx, "tracking.Aggregate")
	defer span.End()

	orders, err := a.orders.ShippedOrders(ctx, w)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetching orders: %w", err)
	}

	a.logger.Info("Fetched shipped orders, filtering for COD and tracking",
		zap.Int("order_count", len(orders)),
	)

	records := make([]Record, 0, len(orders))
	for i := range orders {
		order := &orders[i]
		if !a.config.Policy.IsCOD(order) {
			continue
		}
		fulfillment, ok := a.config.Policy.SelectFulfillment(order.Fulfillments)
		if !ok {
			continue
		}
		records = append(records, a.track(ctx, order, fulfillment.TrackingNumber))
	}

	span.SetAttributes(
		attribute.Int("orders.fetched", len(orders)),
		attribute.Int("orders.tracked", len(records)),
	)
	a.logger.Info("Processed orders",
		zap.Int("order_count", len(orders)),
		zap.Int("tracked_count", len(records)),
	)
	return records, nil
}

// track resolves and classifies a single fulfillment. It never fails.
func (a *Aggregator) track(ctx context.Context, order *Order, trackingNumber string) Record {
	ctx, span := a.tracer.Start(ctx, "tracking.Resolve", trace.WithAttributes(
		attribute.String("order.name", order.Name),
		attribute.String("tracking.number", trackingNumber),
	))
	defer span.End()

	record := Record{
		OrderNumber: order.Name,
		OrderDate:   a.formatDate(order.CreatedAt),
		Customer:    order.CustomerName(),
		Tracking:    trackingNumber,
	}

	raw, err := a.resolver.Resolve(ctx, trackingNumber)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Warn("Failed to get tracking status",
			zap.String("order", order.Name),
			zap.String("tracking_number", trackingNumber),
			zap.Bool("transient", IsTransient(err)),
			zap.Error(err),
		)
		record.Status = StatusTrackingError
		record.RawStatus = ErrorMessage(err)
		return record
	}

	record.Status = a.classifier.Classify(raw)
	record.RawStatus = raw
	span.SetAttributes(attribute.String("tracking.status", string(record.Status)))
	return record
}

func (a *Aggregator) formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(a.config.Location).Format(a.config.DateLayout)
}
