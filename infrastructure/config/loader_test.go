package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domainconfig "github.com/felixgeelhaar/oversight/domain/config"
)

const sampleConfig = `
storage:
  backend: filesystem
  dir: /tmp/oversight-test
broadcast:
  backend: none
engine:
  fetch_delay: 50ms
  fetch_timeout: 1s
  max_retries: 3
  refresh_interval: 2s
logging:
  level: debug
  format: json
`

func TestLoader_Load(t *testing.T) {
	cfg, err := NewLoader().Load(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Backend != domainconfig.BackendFilesystem {
		t.Errorf("Storage.Backend = %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Dir != "/tmp/oversight-test" {
		t.Errorf("Storage.Dir = %q", cfg.Storage.Dir)
	}
	if cfg.Engine.FetchDelay.Duration() != 50*time.Millisecond {
		t.Errorf("Engine.FetchDelay = %v, want 50ms", cfg.Engine.FetchDelay)
	}
	if cfg.Engine.Retries() != 3 {
		t.Errorf("Engine.Retries() = %d, want 3", cfg.Engine.Retries())
	}
	if cfg.Engine.RefreshInterval.Duration() != 2*time.Second {
		t.Errorf("Engine.RefreshInterval = %v, want 2s", cfg.Engine.RefreshInterval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoader_LoadAppliesDefaults(t *testing.T) {
	cfg, err := NewLoader().Load(strings.NewReader("storage:\n  backend: badger\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Backend != domainconfig.BackendBadger {
		t.Errorf("Storage.Backend = %q, want badger", cfg.Storage.Backend)
	}
	if cfg.Engine.FetchTimeout.Duration() != 5*time.Second {
		t.Errorf("Engine.FetchTimeout = %v, want default 5s", cfg.Engine.FetchTimeout)
	}
	if cfg.Broadcast.Backend != domainconfig.BroadcastNone {
		t.Errorf("Broadcast.Backend = %q, want none", cfg.Broadcast.Backend)
	}
}

func TestLoader_ExplicitZeroRetries(t *testing.T) {
	cfg, err := NewLoader().Load(strings.NewReader("engine:\n  max_retries: 0\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Engine.Retries() != 0 {
		t.Errorf("Engine.Retries() = %d, an explicit zero must survive defaulting", cfg.Engine.Retries())
	}
}

func TestLoader_LoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad yaml", "storage: ["},
		{"unknown backend", "storage:\n  backend: dynamo\n"},
		{"redis without address", "storage:\n  backend: redis\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLoader().Load(strings.NewReader(tt.input)); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watcher.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}

func TestLoader_LoadFileNotFound(t *testing.T) {
	_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, domainconfig.ErrConfigNotFound) {
		t.Errorf("LoadFile(missing) error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoader_LoadOrDefault(t *testing.T) {
	cfg, err := NewLoader().LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault(\"\") error = %v", err)
	}
	if cfg.Storage.Backend != domainconfig.BackendFilesystem {
		t.Errorf("Storage.Backend = %q, want filesystem", cfg.Storage.Backend)
	}
}

func TestEnvExpander_Expand(t *testing.T) {
	t.Setenv("OVERSIGHT_TEST_ADDR", "redis:6379")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"set variable", "address: ${OVERSIGHT_TEST_ADDR}", "address: redis:6379"},
		{"default used", "address: ${OVERSIGHT_TEST_UNSET:-fallback}", "address: fallback"},
		{"default ignored", "address: ${OVERSIGHT_TEST_ADDR:-fallback}", "address: redis:6379"},
		{"missing lenient", "address: ${OVERSIGHT_TEST_UNSET}", "address: "},
		{"no variables", "address: plain", "address: plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &envExpander{}
			got, err := e.Expand(tt.input)
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expand(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEnvExpander_Strict(t *testing.T) {
	e := &envExpander{strict: true}
	_, err := e.Expand("value: ${OVERSIGHT_TEST_DEFINITELY_UNSET}")
	if !errors.Is(err, domainconfig.ErrMissingEnvVar) {
		t.Errorf("Expand() error = %v, want ErrMissingEnvVar", err)
	}
}
