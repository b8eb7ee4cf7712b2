// Package tracking joins commerce COD orders with carrier tracking status.
package tracking

import (
	"context"
)

// OrderSource returns shipped orders created inside a window, in the order
// the commerce platform reports them (most recent first).
type OrderSource interface {
	ShippedOrders(ctx context.Context, w Window) ([]Order, error)
}

// StatusResolver returns the latest event description for a tracking number.
type StatusResolver interface {
	Resolve(ctx context.Context, trackingNumber string) (string, error)
}

// Prober checks credentials and reachability of one upstream service
// without a business query. It never fails; problems are reported in the
// result.
type Prober interface {
	Probe(ctx context.Context) ProbeResult
}
