package tracking

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ConnectivityProbe checks both upstream services.
type ConnectivityProbe struct {
	commerce Prober
	carrier  Prober
}

// NewConnectivityProbe creates a probe over the commerce and carrier services.
func NewConnectivityProbe(commerce, carrier Prober) *ConnectivityProbe {
	return &ConnectivityProbe{
		commerce: commerce,
		carrier:  carrier,
	}
}

// Run probes both services in parallel and always returns a report.
func (p *ConnectivityProbe) Run(ctx context.Context) Report {
	var report Report

	// Probers never fail, so the group only waits; each goroutine owns one
	// field of report.
	var g errgroup.Group
	g.Go(func() error {
		report.Commerce = p.commerce.Probe(ctx)
		return nil
	})
	g.Go(func() error {
		report.Carrier = p.carrier.Probe(ctx)
		return nil
	})
	_ = g.Wait()

	return report
}
