// Package syncengine keeps a library store in step with the remote store.
//
// On Start the engine either loads the user's remote snapshot or, when the
// remote has nothing yet, migrates the legacy local blob and pushes it once.
// After that every state change re-arms a debounce timer; when the timer
// fires the current state is pushed as one full snapshot. The last push to
// complete wins.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/legacy"
	"github.com/mrlokans/bookshelf/internal/library"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
)

var ErrNotStarted = errors.New("sync engine not started")

// RemoteStore persists full snapshots keyed by user.
type RemoteStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
	LoadAll(ctx context.Context, userID string) (*entities.Snapshot, error)
	SaveAll(ctx context.Context, userID string, snapshot *entities.Snapshot) error
}

// LegacyStorage returns the pre-sync local blob, or nil when there is none.
type LegacyStorage interface {
	Read() ([]byte, error)
}

// ProgressRecorder mirrors push outcomes somewhere durable.
type ProgressRecorder interface {
	StartPush(userID string, generation uint64, totalItems int) error
	CompletePush(userID string, generation uint64, pushErr error) error
}

type Config struct {
	Debounce    time.Duration
	PushTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Debounce:    2 * time.Second,
		PushTimeout: 30 * time.Second,
	}
}

// Info is a point-in-time view of the engine.
type Info struct {
	UserID     string     `json:"user_id"`
	Status     Status     `json:"status"`
	Attached   bool       `json:"attached"`
	Loading    bool       `json:"loading"`
	Pending    bool       `json:"pending"`
	LastSync   *time.Time `json:"last_sync,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	Generation uint64     `json:"generation"`
}

type Engine struct {
	store    *library.Store
	remote   RemoteStore
	legacy   LegacyStorage
	progress ProgressRecorder
	cfg      Config
	now      func() time.Time

	mu          sync.Mutex
	userID      string
	attached    bool
	loading     bool
	status      Status
	lastSync    time.Time
	lastErr     string
	generation  uint64
	timer       *time.Timer
	unsubscribe func()

	inflight sync.WaitGroup
}

// Option configures an Engine
type Option func(*Engine)

func WithProgressRecorder(p ProgressRecorder) Option {
	return func(e *Engine) {
		e.progress = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine for store. legacyStorage may be nil.
func New(store *library.Store, remote RemoteStore, legacyStorage LegacyStorage, cfg Config, opts ...Option) *Engine {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = DefaultConfig().PushTimeout
	}
	e := &Engine{
		store:  store,
		remote: remote,
		legacy: legacyStorage,
		cfg:    cfg,
		now:    time.Now,
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start bootstraps the store for userID.
//
// If the remote check or load fails the engine stays detached, so nothing
// local can overwrite remote data it never saw. If the legacy migration
// fails the store keeps its default state and the engine attaches anyway.
func (e *Engine) Start(ctx context.Context, userID string) error {
	e.mu.Lock()
	if e.attached || e.loading {
		current := e.userID
		e.mu.Unlock()
		if current == userID {
			return nil
		}
		return fmt.Errorf("sync engine already started for %q", current)
	}
	e.userID = userID
	e.loading = true
	e.status = StatusSyncing
	if e.unsubscribe == nil {
		e.unsubscribe = e.store.Subscribe(e.onChange)
	}
	e.mu.Unlock()

	exists, err := e.remote.Exists(ctx, userID)
	if err != nil {
		return e.finishStart(false, fmt.Errorf("failed to check remote library: %w", err))
	}

	if exists {
		snap, err := e.remote.LoadAll(ctx, userID)
		if err != nil {
			return e.finishStart(false, fmt.Errorf("failed to load remote library: %w", err))
		}
		e.store.Dispatch(library.ImportFromSnapshot(*snap))
		log.Printf("Sync: loaded library for %s (%d books)", userID, len(snap.Books))
		e.markSynced()
		return e.finishStart(true, nil)
	}

	return e.finishStart(true, e.bootstrap(ctx, userID))
}

// bootstrap migrates the legacy blob and pushes it as the user's first
// remote snapshot. It is the only push not preceded by a load.
func (e *Engine) bootstrap(ctx context.Context, userID string) error {
	if e.legacy == nil {
		return nil
	}
	raw, err := e.legacy.Read()
	if err != nil {
		return fmt.Errorf("failed to read legacy library: %w", err)
	}
	if raw == nil {
		return nil
	}

	now := e.now()
	state, migrated, err := legacy.Upgrade(raw, now)
	if err != nil {
		return fmt.Errorf("failed to migrate legacy library: %w", err)
	}

	snap := state.Snapshot(now)
	// The migrated library is kept locally even when the first push fails;
	// the next debounced push carries it.
	e.store.Dispatch(library.ImportFromSnapshot(snap))
	if err := e.remote.SaveAll(ctx, userID, &snap); err != nil {
		return fmt.Errorf("failed to push migrated library: %w", err)
	}
	log.Printf("Sync: bootstrapped library for %s from local storage (%d books, migrated=%t)", userID, len(snap.Books), migrated)
	e.markSynced()
	return nil
}

func (e *Engine) finishStart(attach bool, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.loading = false
	e.attached = attach
	if err != nil {
		e.status = StatusError
		e.lastErr = err.Error()
		log.Printf("Sync: start for %s failed (attached=%t): %v", e.userID, attach, err)
		return err
	}
	e.status = StatusIdle
	return nil
}

func (e *Engine) markSynced() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSync = e.now()
	e.lastErr = ""
}

func (e *Engine) onChange(change library.Change) {
	switch change.Action.(type) {
	case library.PushNotification, library.DismissNotification:
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.attached || e.loading {
		return
	}

	e.generation++
	gen := e.generation
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.cfg.Debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.PushTimeout)
		defer cancel()
		_ = e.push(ctx, gen)
	})
}

// PushNow cancels the pending debounce and pushes the current state.
func (e *Engine) PushNow(ctx context.Context) error {
	e.mu.Lock()
	if !e.attached {
		e.mu.Unlock()
		return ErrNotStarted
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	return e.push(ctx, gen)
}

func (e *Engine) push(ctx context.Context, gen uint64) error {
	e.mu.Lock()
	if !e.attached {
		e.mu.Unlock()
		return ErrNotStarted
	}
	if gen != e.generation {
		// A newer change re-armed the timer after this one fired.
		e.mu.Unlock()
		return nil
	}
	userID := e.userID
	e.status = StatusSyncing
	e.timer = nil
	e.inflight.Add(1)
	e.mu.Unlock()
	defer e.inflight.Done()

	snap := e.store.State().Snapshot(e.now())
	if e.progress != nil {
		if err := e.progress.StartPush(userID, gen, len(snap.Books)); err != nil {
			log.Printf("Sync: failed to record push start: %v", err)
		}
	}

	err := e.remote.SaveAll(ctx, userID, &snap)

	e.mu.Lock()
	latest := e.generation
	if err != nil {
		e.status = StatusError
		e.lastErr = err.Error()
	} else {
		e.status = StatusIdle
		e.lastErr = ""
		e.lastSync = e.now()
	}
	e.mu.Unlock()

	if latest != gen {
		log.Printf("Sync: push generation %d for %s finished after generation %d was armed", gen, userID, latest)
	}
	if e.progress != nil {
		if perr := e.progress.CompletePush(userID, gen, err); perr != nil {
			log.Printf("Sync: failed to record push result: %v", perr)
		}
	}
	if err != nil {
		log.Printf("Sync: push generation %d for %s failed: %v", gen, userID, err)
		return fmt.Errorf("failed to push library: %w", err)
	}
	return nil
}

// Stop cancels a pending push and detaches the engine from the store.
// Pending changes are not flushed and in-flight pushes are left to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.attached = false
	e.generation++
}

// Wait blocks until in-flight pushes have finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

func (e *Engine) Info() Info {
	e.mu.Lock()
	defer e.mu.Unlock()

	info := Info{
		UserID:     e.userID,
		Status:     e.status,
		Attached:   e.attached,
		Loading:    e.loading,
		Pending:    e.timer != nil,
		LastError:  e.lastErr,
		Generation: e.generation,
	}
	if !e.lastSync.IsZero() {
		last := e.lastSync
		info.LastSync = &last
	}
	return info
}

// Store returns the library store the engine syncs.
func (e *Engine) Store() *library.Store {
	return e.store
}
