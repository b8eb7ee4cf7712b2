// Package mock provides in-memory implementations of the tracking
// interfaces for tests and demos.
package mock

import (
	"context"
	"sync"

	"github.com/tournevent/codtracker/pkg/tracking"
)

// OrderSource returns a fixed order list and records the requested windows.
type OrderSource struct {
	Orders []tracking.Order
	Err    error

	mu      sync.Mutex
	windows []tracking.Window
}

// ShippedOrders returns s.Orders or s.Err.
func (s *OrderSource) ShippedOrders(ctx context.Context, w tracking.Window) ([]tracking.Order, error) {
	s.mu.Lock()
	s.windows = append(s.windows, w)
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]tracking.Order, len(s.Orders))
	copy(out, s.Orders)
	return out, nil
}

// Windows returns the windows passed to ShippedOrders so far.
func (s *OrderSource) Windows() []tracking.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tracking.Window(nil), s.windows...)
}

// Resolver answers lookups from Statuses and Errors keyed by tracking
// number. Unknown numbers resolve to Default.
type Resolver struct {
	Statuses map[string]string
	Errors   map[string]error
	Default  string

	mu    sync.Mutex
	calls []string
}

// Resolve implements tracking.StatusResolver.
func (r *Resolver) Resolve(ctx context.Context, trackingNumber string) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, trackingNumber)
	r.mu.Unlock()

	if err, ok := r.Errors[trackingNumber]; ok {
		return "", err
	}
	if status, ok := r.Statuses[trackingNumber]; ok {
		return status, nil
	}
	return r.Default, nil
}

// Calls returns the tracking numbers looked up, in call order.
func (r *Resolver) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Prober returns a fixed result.
type Prober struct {
	Result  tracking.ProbeResult
	OnProbe func(ctx context.Context) tracking.ProbeResult
}

// Probe implements tracking.Prober.
func (p *Prober) Probe(ctx context.Context) tracking.ProbeResult {
	if p.OnProbe != nil {
		return p.OnProbe(ctx)
	}
	return p.Result
}
