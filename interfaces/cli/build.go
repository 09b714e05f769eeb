package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/oversight/application"
	domaincfg "github.com/felixgeelhaar/oversight/domain/config"
	"github.com/felixgeelhaar/oversight/domain/state"
	"github.com/felixgeelhaar/oversight/infrastructure/fetch"
	"github.com/felixgeelhaar/oversight/infrastructure/resilience"
	"github.com/felixgeelhaar/oversight/infrastructure/storage/badger"
	"github.com/felixgeelhaar/oversight/infrastructure/storage/filesystem"
	"github.com/felixgeelhaar/oversight/infrastructure/storage/memory"
	storageredis "github.com/felixgeelhaar/oversight/infrastructure/storage/redis"
	"github.com/felixgeelhaar/oversight/infrastructure/storage/sqlite"
)

// buildEngine wires a complete engine from configuration: store, sync
// channels, and the resilient fetcher. The engine owns the wired resources
// and releases them on Close.
func (a *App) buildEngine(ctx context.Context, cfg *domaincfg.Config, extra ...application.Option) (*application.Engine, error) {
	origin := uuid.NewString()

	store, watcher, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	broadcast, err := buildBroadcast(cfg, origin)
	if err != nil {
		store.Close()
		return nil, err
	}

	fetcher := resilience.NewFetcher(
		fetch.NewSimulator(fetch.WithDelay(cfg.Engine.FetchDelay.Duration())),
		resilienceConfig(cfg),
	)

	opts := []application.Option{
		application.WithOrigin(origin),
		application.WithStore(store),
		application.WithFetcher(fetcher),
		application.WithRefreshInterval(cfg.Engine.RefreshInterval.Duration()),
	}
	if watcher != nil {
		opts = append(opts, application.WithStorageEvents(watcher))
	}
	if broadcast != nil {
		opts = append(opts, application.WithBroadcast(broadcast))
	}
	opts = append(opts, extra...)

	engine, err := application.NewEngineWithOptions(ctx, opts...)
	if err != nil {
		store.Close()
		if watcher != nil {
			watcher.Close()
		}
		if broadcast != nil {
			broadcast.Close()
		}
		return nil, err
	}
	return engine, nil
}

// buildStore constructs the configured snapshot store. For the filesystem
// backend it also returns the storage-event watcher so changes written by
// other processes are observed.
func buildStore(cfg *domaincfg.Config) (state.Store, state.Transport, error) {
	switch cfg.Storage.Backend {
	case domaincfg.BackendFilesystem:
		dir, err := stateDir(cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := filesystem.NewSnapshotStore(dir)
		if err != nil {
			return nil, nil, err
		}
		watcher, err := filesystem.NewWatcher(store)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, watcher, nil

	case domaincfg.BackendBadger:
		dir, err := stateDir(cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := badger.NewSnapshotStore(badger.Config{}, badger.WithDir(filepath.Join(dir, "badger")))
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case domaincfg.BackendRedis:
		store, err := storageredis.NewSnapshotStore(redisConfig(cfg.Storage.Redis))
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case domaincfg.BackendSQLite:
		dir, err := stateDir(cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := sqlite.NewSnapshotStore(filepath.Join(dir, "snapshots.db"))
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case domaincfg.BackendMemory:
		return memory.NewSnapshotStore(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// buildBroadcast constructs the configured broadcast transport, if any.
func buildBroadcast(cfg *domaincfg.Config, origin string) (state.Transport, error) {
	switch cfg.Broadcast.Backend {
	case domaincfg.BroadcastRedis:
		return storageredis.NewTransport(redisConfig(cfg.Broadcast.Redis), origin)
	case domaincfg.BroadcastMemory:
		// A process-local bus has no peers in a single CLI process; sync
		// still flows through the storage watcher.
		return memory.NewBus().Connect(), nil
	case domaincfg.BroadcastNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown broadcast backend %q", cfg.Broadcast.Backend)
	}
}

// redisConfig maps domain configuration onto the redis adapter defaults.
func redisConfig(rc domaincfg.RedisConfig) storageredis.Config {
	out := storageredis.DefaultConfig()
	if rc.Address != "" {
		out.Address = rc.Address
	}
	if rc.Password != "" {
		out.Password = rc.Password
	}
	if rc.DB != 0 {
		out.DB = rc.DB
	}
	if rc.KeyPrefix != "" {
		out.KeyPrefix = rc.KeyPrefix
	}
	return out
}

// resilienceConfig maps the engine retry settings onto the fetcher defaults.
func resilienceConfig(cfg *domaincfg.Config) resilience.FetcherConfig {
	out := resilience.DefaultFetcherConfig()
	out.MaxRetries = cfg.Engine.Retries()
	out.AttemptTimeout = cfg.Engine.FetchTimeout.Duration()
	return out
}

// stateDir resolves and creates the state directory for file-backed stores.
func stateDir(cfg *domaincfg.Config) (string, error) {
	dir := cfg.Storage.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot resolve state directory: %w", err)
		}
		dir = filepath.Join(home, ".oversight")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("cannot create state directory: %w", err)
	}
	return dir, nil
}
