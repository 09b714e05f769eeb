// Package telemetry provides OpenTelemetry metrics for the watcher core.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	loads        metric.Int64Counter
	mutations    metric.Int64Counter
	syncApplied  metric.Int64Counter
	syncDropped  metric.Int64Counter
	refreshTicks metric.Int64Counter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/oversight",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider on the global meter
// provider (noop unless an SDK is installed).
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	provider := otel.GetMeterProvider()
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{meter: meter}
	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})
	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.loads, err = mp.meter.Int64Counter(
		"watcher.loads",
		metric.WithDescription("Number of load workflows by outcome"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return err
	}

	mp.mutations, err = mp.meter.Int64Counter(
		"watcher.state.mutations",
		metric.WithDescription("Number of local state mutations"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return err
	}

	mp.syncApplied, err = mp.meter.Int64Counter(
		"watcher.sync.applied",
		metric.WithDescription("Replicated snapshots applied"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	mp.syncDropped, err = mp.meter.Int64Counter(
		"watcher.sync.dropped",
		metric.WithDescription("Sync publishes that failed and were skipped"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	mp.refreshTicks, err = mp.meter.Int64Counter(
		"watcher.refresh.ticks",
		metric.WithDescription("Auto-refresh timer ticks"),
		metric.WithUnit("{tick}"),
	)
	return err
}

// Err returns any instrument initialization error.
func (mp *MetricsProvider) Err() error {
	return mp.initErr
}

// RecordLoad records one completed load workflow.
func (mp *MetricsProvider) RecordLoad(ctx context.Context, outcome string) {
	if mp.loads == nil {
		return
	}
	mp.loads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordMutation records one local state mutation.
func (mp *MetricsProvider) RecordMutation(ctx context.Context) {
	if mp.mutations == nil {
		return
	}
	mp.mutations.Add(ctx, 1)
}

// RecordSyncApplied records one replicated snapshot applied locally.
func (mp *MetricsProvider) RecordSyncApplied(ctx context.Context, channel string) {
	if mp.syncApplied == nil {
		return
	}
	mp.syncApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
}

// RecordSyncDropped records one failed, skipped sync publish.
func (mp *MetricsProvider) RecordSyncDropped(ctx context.Context, channel string) {
	if mp.syncDropped == nil {
		return
	}
	mp.syncDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
}

// RecordRefreshTick records one auto-refresh tick.
func (mp *MetricsProvider) RecordRefreshTick(ctx context.Context) {
	if mp.refreshTicks == nil {
		return
	}
	mp.refreshTicks.Add(ctx, 1)
}
