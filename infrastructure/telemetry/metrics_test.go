package telemetry

import (
	"context"
	"testing"
)

func TestNewMetricsProvider(t *testing.T) {
	t.Parallel()

	mp := NewMetricsProvider(DefaultMetricsConfig())
	if mp == nil {
		t.Fatal("NewMetricsProvider() returned nil")
	}
	if err := mp.Err(); err != nil {
		t.Fatalf("instrument init error = %v", err)
	}
}

func TestNewMetricsProvider_EmptyConfigUsesDefaults(t *testing.T) {
	t.Parallel()

	mp := NewMetricsProvider(MetricsConfig{})
	if err := mp.Err(); err != nil {
		t.Fatalf("instrument init error = %v", err)
	}
}

func TestMetricsProvider_RecordersDoNotPanic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mp := NewMetricsProvider(DefaultMetricsConfig())

	mp.RecordLoad(ctx, "displayed")
	mp.RecordLoad(ctx, "failed")
	mp.RecordMutation(ctx)
	mp.RecordSyncApplied(ctx, "broadcast")
	mp.RecordSyncDropped(ctx, "storage")
	mp.RecordRefreshTick(ctx)
}

func TestMetricsProvider_ZeroValueSafe(t *testing.T) {
	t.Parallel()

	// A provider whose instruments were never initialized must not panic.
	var mp MetricsProvider
	ctx := context.Background()

	mp.RecordLoad(ctx, "displayed")
	mp.RecordMutation(ctx)
	mp.RecordSyncApplied(ctx, "broadcast")
	mp.RecordSyncDropped(ctx, "broadcast")
	mp.RecordRefreshTick(ctx)
}
