// Package config provides domain models for watcher configuration.
package config

import "time"

// Storage backends.
const (
	BackendFilesystem = "filesystem"
	BackendBadger     = "badger"
	BackendRedis      = "redis"
	BackendSQLite     = "sqlite"
	BackendMemory     = "memory"
)

// Broadcast backends.
const (
	BroadcastRedis  = "redis"
	BroadcastMemory = "memory"
	BroadcastNone   = "none"
)

// Config represents the complete watcher configuration.
type Config struct {
	// Storage configures the durable snapshot store.
	Storage StorageConfig `json:"storage" yaml:"storage"`
	// Broadcast configures the real-time sync transport.
	Broadcast BroadcastConfig `json:"broadcast" yaml:"broadcast"`
	// Engine configures the load workflow.
	Engine EngineConfig `json:"engine" yaml:"engine"`
	// Logging configures structured logging.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// StorageConfig configures the durable snapshot store.
type StorageConfig struct {
	// Backend selects the store implementation (filesystem, badger, redis, sqlite).
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// Dir is the state directory for file-backed backends.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// Redis configures the redis backend.
	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// BroadcastConfig configures the real-time sync transport.
type BroadcastConfig struct {
	// Backend selects the transport (redis, memory, none).
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// Redis configures the redis transport.
	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisConfig holds connection settings shared by the redis store and transport.
type RedisConfig struct {
	Address   string `json:"address,omitempty" yaml:"address,omitempty"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	DB        int    `json:"db,omitempty" yaml:"db,omitempty"`
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
}

// EngineConfig configures the load workflow.
type EngineConfig struct {
	// FetchDelay is the simulated retrieval latency.
	FetchDelay Duration `json:"fetch_delay,omitempty" yaml:"fetch_delay,omitempty"`
	// FetchTimeout bounds a single fetch attempt.
	FetchTimeout Duration `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"`
	// MaxRetries is the number of additional fetch attempts after a
	// transient failure. Validation failures are never retried. A pointer
	// so an explicit zero survives defaulting; nil means "use the default".
	MaxRetries *int `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	// RefreshInterval is the auto-refresh tick period. Zero disables
	// auto-refresh.
	RefreshInterval Duration `json:"refresh_interval,omitempty" yaml:"refresh_interval,omitempty"`
}

// Retries returns the configured retry count, or zero when unset. Call
// after ApplyDefaults to get the defaulted value.
func (e EngineConfig) Retries() int {
	if e.MaxRetries == nil {
		return 0
	}
	return *e.MaxRetries
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is the output format (json or console).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Default returns a configuration that works with no config file: filesystem
// store in the default state directory, storage watcher as the only sync
// channel, no broker.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend: BackendFilesystem,
		},
		Broadcast: BroadcastConfig{
			Backend: BroadcastNone,
		},
		Engine: EngineConfig{
			FetchDelay:   Duration(1 * time.Second),
			FetchTimeout: Duration(5 * time.Second),
			MaxRetries:   intRef(2),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ApplyDefaults fills unset fields from Default.
func (c *Config) ApplyDefaults() {
	def := Default()
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.Broadcast.Backend == "" {
		c.Broadcast.Backend = def.Broadcast.Backend
	}
	if c.Engine.FetchDelay == 0 {
		c.Engine.FetchDelay = def.Engine.FetchDelay
	}
	if c.Engine.FetchTimeout == 0 {
		c.Engine.FetchTimeout = def.Engine.FetchTimeout
	}
	if c.Engine.MaxRetries == nil {
		c.Engine.MaxRetries = intRef(def.Engine.Retries())
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFilesystem, BackendBadger, BackendRedis, BackendSQLite, BackendMemory:
	default:
		return ValidationError{Path: "storage.backend", Message: "unknown backend " + c.Storage.Backend}
	}

	switch c.Broadcast.Backend {
	case BroadcastRedis, BroadcastMemory, BroadcastNone:
	default:
		return ValidationError{Path: "broadcast.backend", Message: "unknown backend " + c.Broadcast.Backend}
	}

	if c.Storage.Backend == BackendRedis && c.Storage.Redis.Address == "" {
		return ValidationError{Path: "storage.redis.address", Message: "required for redis backend"}
	}
	if c.Broadcast.Backend == BroadcastRedis && c.Broadcast.Redis.Address == "" {
		return ValidationError{Path: "broadcast.redis.address", Message: "required for redis broadcast"}
	}

	if c.Engine.MaxRetries != nil && *c.Engine.MaxRetries < 0 {
		return ValidationError{Path: "engine.max_retries", Message: "must not be negative"}
	}
	if c.Engine.RefreshInterval < 0 {
		return ValidationError{Path: "engine.refresh_interval", Message: "must not be negative"}
	}

	return nil
}

func intRef(v int) *int {
	return &v
}
