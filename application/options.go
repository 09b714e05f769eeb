package application

import (
	"context"
	"time"

	"github.com/felixgeelhaar/oversight/domain/action"
	"github.com/felixgeelhaar/oversight/domain/state"
	"github.com/felixgeelhaar/oversight/infrastructure/telemetry"
)

// Option configures the engine.
type Option func(*EngineConfig)

// WithFetcher sets the record fetcher.
func WithFetcher(f action.Fetcher) Option {
	return func(c *EngineConfig) {
		c.Fetcher = f
	}
}

// WithStore sets the durable snapshot store.
func WithStore(s state.Store) Option {
	return func(c *EngineConfig) {
		c.Store = s
	}
}

// WithBroadcast sets the primary sync transport.
func WithBroadcast(t state.Transport) Option {
	return func(c *EngineConfig) {
		c.Broadcast = t
	}
}

// WithStorageEvents sets the fallback sync transport observing durable-store
// changes made by other contexts.
func WithStorageEvents(t state.Transport) Option {
	return func(c *EngineConfig) {
		c.StorageEvents = t
	}
}

// WithRefreshInterval enables the auto-refresh ticker.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *EngineConfig) {
		c.RefreshInterval = d
	}
}

// WithOrigin sets the instance ID used on the broadcast channel.
func WithOrigin(origin string) Option {
	return func(c *EngineConfig) {
		c.Origin = origin
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(m *telemetry.MetricsProvider) Option {
	return func(c *EngineConfig) {
		c.Metrics = m
	}
}

// WithClock overrides the timestamp source (tests).
func WithClock(now func() string) Option {
	return func(c *EngineConfig) {
		c.Clock = now
	}
}

// NewEngineWithOptions creates an engine with functional options.
func NewEngineWithOptions(ctx context.Context, opts ...Option) (*Engine, error) {
	config := EngineConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	return NewEngine(ctx, config)
}
