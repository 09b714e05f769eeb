// Package application provides the application layer: the observable state
// engine that owns the snapshot, its persistence, and its replication.
package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/oversight/domain/action"
	"github.com/felixgeelhaar/oversight/domain/state"
	"github.com/felixgeelhaar/oversight/infrastructure/fetch"
	"github.com/felixgeelhaar/oversight/infrastructure/logging"
	"github.com/felixgeelhaar/oversight/infrastructure/resilience"
	"github.com/felixgeelhaar/oversight/infrastructure/statemachine"
	"github.com/felixgeelhaar/oversight/infrastructure/storage/memory"
	"github.com/felixgeelhaar/oversight/infrastructure/telemetry"
)

// Sync channel names used for logging and metrics attribution.
const (
	channelBroadcast = "broadcast"
	channelStorage   = "storage"
)

// Engine is the single mutable state container per execution context. All
// mutation flows through one update path that stamps LastUpdated, persists
// the snapshot, broadcasts it, and notifies local subscribers, in that order.
type Engine struct {
	mu          sync.Mutex
	snapshot    state.Snapshot
	subscribers map[int]func(state.Snapshot)
	nextSubID   int
	refreshStop chan struct{}
	closed      bool
	version     uint64

	// syncMu serializes persist/broadcast fan-out; lastSynced carries the
	// highest version already synced so a mutation overtaken after
	// releasing mu cannot clobber a newer persisted snapshot.
	syncMu     sync.Mutex
	lastSynced uint64

	origin          string
	fetcher         action.Fetcher
	store           state.Store
	broadcast       state.Transport
	storageEvents   state.Transport
	workflow        *statemachine.Interpreter
	metrics         *telemetry.MetricsProvider
	refreshInterval time.Duration
	clock           func() string
}

// EngineConfig contains configuration for the engine.
type EngineConfig struct {
	// Fetcher retrieves action records. Defaults to the simulator wrapped
	// in the resilient executor.
	Fetcher action.Fetcher

	// Store persists the snapshot across restarts. Defaults to an
	// in-memory store.
	Store state.Store

	// Broadcast is the primary sync channel. Optional.
	Broadcast state.Transport

	// StorageEvents is the fallback sync channel observing durable-store
	// changes made by other contexts. Optional.
	StorageEvents state.Transport

	// RefreshInterval enables the auto-refresh ticker after a successful
	// load. Zero disables it.
	RefreshInterval time.Duration

	// Origin identifies this engine instance on the broadcast channel.
	// Defaults to a random UUID.
	Origin string

	// Metrics records engine counters. Defaults to a provider on the
	// global meter.
	Metrics *telemetry.MetricsProvider

	// Clock is the timestamp source. Defaults to the shared snapshot
	// timestamp format.
	Clock func() string
}

// NewEngine creates an engine, restores any persisted snapshot, and starts
// the sync receivers.
func NewEngine(ctx context.Context, config EngineConfig) (*Engine, error) {
	e := &Engine{
		snapshot:        state.Initial(),
		subscribers:     make(map[int]func(state.Snapshot)),
		origin:          config.Origin,
		fetcher:         config.Fetcher,
		store:           config.Store,
		broadcast:       config.Broadcast,
		storageEvents:   config.StorageEvents,
		metrics:         config.Metrics,
		refreshInterval: config.RefreshInterval,
		clock:           config.Clock,
	}

	// Set defaults
	if e.origin == "" {
		e.origin = uuid.NewString()
	}
	if e.fetcher == nil {
		e.fetcher = resilience.NewFetcher(fetch.NewSimulator(), resilience.DefaultFetcherConfig())
	}
	if e.store == nil {
		e.store = memory.NewSnapshotStore()
	}
	if e.metrics == nil {
		e.metrics = telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())
	}
	if e.clock == nil {
		e.clock = state.Timestamp
	}

	machine, err := statemachine.NewLoadMachine()
	if err != nil {
		return nil, fmt.Errorf("failed to create load machine: %w", err)
	}
	e.workflow = statemachine.NewInterpreter(machine, statemachine.NewContext())
	e.workflow.Start()

	// Restore the persisted snapshot, if any. A broken store degrades to a
	// fresh state rather than failing construction.
	if snap, found, loadErr := e.store.Load(ctx); loadErr != nil {
		logging.Warn().
			Add(logging.Origin(e.origin)).
			Add(logging.Err(loadErr)).
			Msg("could not restore persisted state")
	} else if found {
		if !snap.Status.IsValid() {
			logging.Warn().
				Add(logging.Origin(e.origin)).
				Add(logging.Status(snap.Status)).
				Msg("discarding persisted snapshot with unknown status")
		} else if resumeErr := e.workflow.ResumeFrom(snap.Status); resumeErr != nil {
			logging.Warn().
				Add(logging.Origin(e.origin)).
				Add(logging.Err(resumeErr)).
				Msg("discarding persisted snapshot the workflow cannot resume from")
		} else {
			e.snapshot = normalize(snap)
		}
	}

	if e.broadcast != nil {
		if err := e.broadcast.Receive(ctx, func(msg state.Message) {
			e.applyRemote(channelBroadcast, msg)
		}); err != nil {
			return nil, fmt.Errorf("failed to start broadcast receiver: %w", err)
		}
	}
	if e.storageEvents != nil {
		if err := e.storageEvents.Receive(ctx, func(msg state.Message) {
			e.applyRemote(channelStorage, msg)
		}); err != nil {
			return nil, fmt.Errorf("failed to start storage-event receiver: %w", err)
		}
	}

	logging.Info().
		Add(logging.Origin(e.origin)).
		Add(logging.Status(e.snapshot.Status)).
		Msg("engine started")

	return e, nil
}

// Origin returns the instance ID this engine publishes under.
func (e *Engine) Origin() string {
	return e.origin
}

// GetState returns a deep copy of the current snapshot. No side effects.
func (e *Engine) GetState() state.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Clone()
}

// Subscribe registers a listener, invokes it synchronously with the current
// state, and returns an idempotent unsubscribe function.
func (e *Engine) Subscribe(fn func(state.Snapshot)) func() {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	snap := e.snapshot.Clone()
	e.mu.Unlock()

	fn(snap)

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subscribers, id)
			e.mu.Unlock()
		})
	}
}

// LoadAction runs the load workflow for referenceID. It is the sole entry
// point that can set the action record. Every failure is converted into a
// terminal Failed state; the returned error mirrors that outcome for callers
// that want it, but the snapshot carries the authoritative result.
func (e *Engine) LoadAction(ctx context.Context, referenceID, actor string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load failed unexpectedly: %v", r)
			e.fail(ctx, err)
		}
	}()

	// Step 1: reset to a clean loading state.
	e.resetWorkflow()
	e.update(ctx, func(s *state.Snapshot) bool {
		*s = state.Snapshot{Status: action.StatusIdle, IsLoading: true, Logs: []string{}}
		s.Logs = append(s.Logs, e.logLine("Loading action record %s", referenceID))
		return true
	})

	// Step 2: validate the reference.
	if err := action.ValidateReference(referenceID); err != nil {
		e.fail(ctx, err)
		return err
	}

	// Step 3: reference accepted.
	if err := e.transition(ctx, action.StatusFetched, "reference validated",
		e.logLine("Reference %s validated", referenceID)); err != nil {
		e.fail(ctx, err)
		return err
	}

	// Step 4: retrieve the record.
	record, err := e.fetcher.Fetch(ctx, referenceID, actor)
	if err != nil {
		e.fail(ctx, err)
		return err
	}

	// Step 5: verification confirmed.
	if err := e.transition(ctx, action.StatusVerified, "record verified",
		e.logLine("Record %s verified via %s", record.ActionID, record.Evidence.VerifiedVia)); err != nil {
		e.fail(ctx, err)
		return err
	}

	// Step 6: publish the record.
	e.mu.Lock()
	terr := e.workflow.Transition(action.StatusDisplayed, "record displayed")
	e.mu.Unlock()
	if terr != nil {
		e.fail(ctx, terr)
		return terr
	}
	e.update(ctx, func(s *state.Snapshot) bool {
		s.Action = &record
		s.Status = action.StatusDisplayed
		s.IsLoading = false
		s.Logs = append(s.Logs,
			e.logLine("Action %s ready", record.ActionID),
			e.logLine("Evidence log %s", record.Evidence.Log))
		return true
	})

	// Step 7: start auto-refresh if configured.
	if e.refreshInterval > 0 {
		e.startAutoRefresh()
	}

	e.metrics.RecordLoad(ctx, "displayed")
	logging.Info().
		Add(logging.Origin(e.origin)).
		Add(logging.ReferenceID(referenceID)).
		Add(logging.Status(action.StatusDisplayed)).
		Msg("load completed")
	return nil
}

// Clear stops auto-refresh and resets the snapshot to its initial shape.
func (e *Engine) Clear(ctx context.Context) {
	e.StopAutoRefresh()
	e.resetWorkflow()
	e.update(ctx, func(s *state.Snapshot) bool {
		*s = state.Snapshot{Status: action.StatusIdle, Logs: []string{}}
		s.Logs = append(s.Logs, e.logLine("State cleared"))
		return true
	})
}

// StopAutoRefresh cancels the periodic refresh timer if active. Idempotent.
func (e *Engine) StopAutoRefresh() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopRefreshLocked()
}

// Close tears the engine down: the timer is cancelled, subscriptions are
// released, and the sync channels and store are closed. Persisted data
// outlives the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.stopRefreshLocked()
	e.subscribers = make(map[int]func(state.Snapshot))
	e.mu.Unlock()

	e.workflow.Stop()

	var errs []error
	if e.broadcast != nil {
		errs = append(errs, e.broadcast.Close())
	}
	if e.storageEvents != nil {
		errs = append(errs, e.storageEvents.Close())
	}
	errs = append(errs, e.store.Close())
	return errors.Join(errs...)
}

// update is the single local mutation path: apply the change, stamp
// LastUpdated, persist, broadcast, then notify subscribers. Both sync
// channels fail open. A mutate that returns false made no change and skips
// the whole fan-out.
func (e *Engine) update(ctx context.Context, mutate func(*state.Snapshot) bool) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if !mutate(&e.snapshot) {
		e.mu.Unlock()
		return
	}
	e.snapshot.LastUpdated = e.clock()
	e.version++
	version := e.version
	snap := e.snapshot.Clone()
	subs := e.currentSubscribersLocked()
	e.mu.Unlock()

	e.metrics.RecordMutation(ctx)
	e.syncOut(ctx, snap, version)

	for _, fn := range subs {
		fn(snap)
	}
}

// syncOut persists and broadcasts one snapshot. Concurrent mutations can
// reach this point out of order once the state lock is released; the version
// guard drops the stale snapshot so the durable store never ends up holding
// the older of two states.
func (e *Engine) syncOut(ctx context.Context, snap state.Snapshot, version uint64) {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()
	if version <= e.lastSynced {
		return
	}
	e.lastSynced = version

	if err := e.store.Save(ctx, snap); err != nil {
		logging.Warn().
			Add(logging.Origin(e.origin)).
			Add(logging.Err(err)).
			Msg("failed to persist state")
	}

	if e.broadcast != nil {
		msg := state.NewStateUpdate(snap, e.origin)
		if err := e.broadcast.Publish(ctx, msg); err != nil {
			e.metrics.RecordSyncDropped(ctx, channelBroadcast)
			logging.Warn().
				Add(logging.Origin(e.origin)).
				Add(logging.Channel(channelBroadcast)).
				Add(logging.Err(err)).
				Msg("failed to broadcast state")
		}
	}
}

// applyRemote replaces the whole local snapshot with a replicated one and
// notifies subscribers. It never re-persists or re-broadcasts, so deliveries
// cannot echo. Last delivery wins.
func (e *Engine) applyRemote(channel string, msg state.Message) {
	if !msg.IsStateUpdate() {
		return
	}
	if !msg.State.Status.IsValid() {
		logging.Warn().
			Add(logging.Origin(e.origin)).
			Add(logging.Channel(channel)).
			Add(logging.Status(msg.State.Status)).
			Msg("dropping replicated snapshot with unknown status")
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.snapshot = normalize(msg.State)
	if err := e.workflow.ResumeFrom(e.snapshot.Status); err != nil {
		logging.Warn().
			Add(logging.Origin(e.origin)).
			Add(logging.Err(err)).
			Msg("could not resume workflow from replicated status")
	}
	snap := e.snapshot.Clone()
	subs := e.currentSubscribersLocked()
	e.mu.Unlock()

	e.metrics.RecordSyncApplied(context.Background(), channel)

	for _, fn := range subs {
		fn(snap)
	}
}

// transition advances the workflow machine and records the new status.
func (e *Engine) transition(ctx context.Context, to action.Status, reason, line string) error {
	e.mu.Lock()
	err := e.workflow.Transition(to, reason)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.update(ctx, func(s *state.Snapshot) bool {
		s.Status = to
		s.Logs = append(s.Logs, line)
		return true
	})
	return nil
}

// fail converts any load error into the terminal Failed state.
func (e *Engine) fail(ctx context.Context, cause error) {
	e.mu.Lock()
	if err := e.workflow.Transition(action.StatusFailed, cause.Error()); err != nil {
		// Failure can strike from any point in the workflow; force the
		// machine over if the edge is missing.
		if resumeErr := e.workflow.ResumeFrom(action.StatusFailed); resumeErr != nil {
			logging.Warn().
				Add(logging.Origin(e.origin)).
				Add(logging.Err(resumeErr)).
				Msg("could not move workflow to failed")
		}
	}
	e.mu.Unlock()

	e.update(ctx, func(s *state.Snapshot) bool {
		s.Status = action.StatusFailed
		s.Error = cause.Error()
		s.IsLoading = false
		s.Logs = append(s.Logs, e.logLine("Load failed: %v", cause))
		return true
	})

	e.metrics.RecordLoad(ctx, "failed")
	logging.Warn().
		Add(logging.Origin(e.origin)).
		Add(logging.Err(cause)).
		Msg("load failed")
}

// startAutoRefresh restarts the periodic timestamp refresh. A prior ticker,
// if running, is stopped first.
func (e *Engine) startAutoRefresh() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.stopRefreshLocked()

	stop := make(chan struct{})
	e.refreshStop = stop

	go func() {
		ticker := time.NewTicker(e.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.refreshTick()
			}
		}
	}()
}

// refreshTick touches the record timestamp and appends one log line through
// the normal mutation path. The record presence check runs inside the locked
// mutate so a concurrent Clear cannot slip between check and update; a tick
// with no record makes no mutation and no fan-out.
func (e *Engine) refreshTick() {
	ctx := context.Background()
	e.metrics.RecordRefreshTick(ctx)
	e.update(ctx, func(s *state.Snapshot) bool {
		if s.Action == nil {
			return false
		}
		record := s.Action.WithTimestamp(e.clock())
		s.Action = &record
		s.Logs = append(s.Logs, e.logLine("Refreshed action %s", record.ActionID))
		return true
	})
}

// resetWorkflow returns the workflow machine to idle regardless of its
// current state.
func (e *Engine) resetWorkflow() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.workflow.ResumeFrom(action.StatusIdle); err != nil {
		logging.Warn().
			Add(logging.Origin(e.origin)).
			Add(logging.Err(err)).
			Msg("could not reset workflow")
	}
}

// stopRefreshLocked stops the refresh goroutine. Caller holds e.mu.
func (e *Engine) stopRefreshLocked() {
	if e.refreshStop != nil {
		close(e.refreshStop)
		e.refreshStop = nil
	}
}

// currentSubscribersLocked snapshots the listener set. Caller holds e.mu.
func (e *Engine) currentSubscribersLocked() []func(state.Snapshot) {
	subs := make([]func(state.Snapshot), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

// logLine formats one timestamped trace entry.
func (e *Engine) logLine(format string, args ...any) string {
	return fmt.Sprintf("[%s] %s", e.clock(), fmt.Sprintf(format, args...))
}

// normalize repairs a snapshot that crossed a serialization boundary.
func normalize(snap state.Snapshot) state.Snapshot {
	out := snap.Clone()
	if out.Logs == nil {
		out.Logs = []string{}
	}
	return out
}
