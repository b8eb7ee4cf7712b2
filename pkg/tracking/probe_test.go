package tracking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/codtracker/pkg/tracking"
	"github.com/tournevent/codtracker/pkg/tracking/mock"
)

func TestConnectivityProbe_Run(t *testing.T) {
	commerce := &mock.Prober{Result: tracking.ProbeResult{Success: true, Message: "Successfully connected to Shopify API."}}
	carrier := &mock.Prober{Result: tracking.ProbeResult{Success: false, Message: "Correos API Authentication Failed: 401."}}

	report := tracking.NewConnectivityProbe(commerce, carrier).Run(context.Background())

	assert.Equal(t, commerce.Result, report.Commerce)
	assert.Equal(t, carrier.Result, report.Carrier)
	assert.False(t, report.OK())
}

func TestConnectivityProbe_RunsConcurrently(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	blocking := func(ctx context.Context) tracking.ProbeResult {
		started <- struct{}{}
		<-release
		return tracking.ProbeResult{Success: true}
	}
	probe := tracking.NewConnectivityProbe(&mock.Prober{OnProbe: blocking}, &mock.Prober{OnProbe: blocking})

	done := make(chan tracking.Report, 1)
	go func() { done <- probe.Run(context.Background()) }()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("probes did not start concurrently")
		}
	}
	close(release)

	report := <-done
	assert.True(t, report.OK())
}
