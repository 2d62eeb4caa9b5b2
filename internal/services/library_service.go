// Package services keeps one library session per user: a store, the sync
// engine attached to it and the business rules callers apply on top of the
// reducer (point rewards, purchase pre-checks).
package services

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/mrlokans/bookshelf/internal/legacy"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/syncengine"
	"github.com/mrlokans/bookshelf/internal/utils"
)

var (
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrNoSession          = errors.New("no library session")
	ErrPointsDisabled     = errors.New("points are disabled")
)

// Session is one user's open library.
type Session struct {
	UserID   string
	Store    *library.Store
	Engine   *syncengine.Engine
	OpenedAt time.Time
}

// LibraryService is the registry of open sessions.
type LibraryService struct {
	remote    syncengine.RemoteStore
	progress  syncengine.ProgressRecorder
	legacyDir string
	syncCfg   syncengine.Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewLibraryService creates the registry. legacyDir holds the per-user legacy
// files (<dir>/<user>.json); empty disables the legacy migration. progress
// may be nil.
func NewLibraryService(remote syncengine.RemoteStore, progress syncengine.ProgressRecorder, legacyDir string, syncCfg syncengine.Config) *LibraryService {
	return &LibraryService{
		remote:    remote,
		progress:  progress,
		legacyDir: legacyDir,
		syncCfg:   syncCfg,
		sessions:  make(map[string]*Session),
	}
}

// Open returns the user's session, creating and starting it when needed.
// A session whose start failed is kept and retried on the next Open; the
// start error is returned together with the session.
func (s *LibraryService) Open(ctx context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	if !ok {
		session = s.newSession(userID)
		s.sessions[userID] = session
	}
	s.mu.Unlock()

	if err := session.Engine.Start(ctx, userID); err != nil {
		log.Printf("Library: session for %s opened without sync: %v", userID, err)
		return session, err
	}
	return session, nil
}

func (s *LibraryService) newSession(userID string) *Session {
	store := library.NewStore(library.NewState())

	var legacyStorage syncengine.LegacyStorage
	if s.legacyDir != "" {
		legacyStorage = legacy.NewFileStorage(utils.UserFile(s.legacyDir, userID, ".json"))
	}

	var opts []syncengine.Option
	if s.progress != nil {
		opts = append(opts, syncengine.WithProgressRecorder(s.progress))
	}

	return &Session{
		UserID:   userID,
		Store:    store,
		Engine:   syncengine.New(store, s.remote, legacyStorage, s.syncCfg, opts...),
		OpenedAt: time.Now(),
	}
}

// Get returns an already open session.
func (s *LibraryService) Get(userID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	return session, ok
}

// Users lists the users with an open session.
func (s *LibraryService) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]string, 0, len(s.sessions))
	for userID := range s.sessions {
		users = append(users, userID)
	}
	slices.Sort(users)
	return users
}

// Close ends a session (logout). Pending changes are dropped.
func (s *LibraryService) Close(userID string) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if !ok {
		return
	}
	session.Engine.Stop()
	log.Printf("Library: closed session for %s", userID)
}

// Shutdown flushes pending pushes of every session, then stops them and
// waits for in-flight pushes.
func (s *LibraryService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		if info := session.Engine.Info(); info.Attached && info.Pending {
			if err := session.Engine.PushNow(ctx); err != nil {
				log.Printf("Library: final push for %s failed: %v", session.UserID, err)
			}
		}
		session.Engine.Stop()
	}
	for _, session := range sessions {
		session.Engine.Wait()
	}
	log.Printf("Library: shut down %d sessions", len(sessions))
}

// Dispatch applies action and awards the points the transition earned:
// books that became read and sagas that became complete. Imports and
// points actions never earn points.
func (session *Session) Dispatch(action library.Action) library.State {
	change := session.Store.DispatchChange(action)
	if !rewardable(action) {
		return change.After
	}

	if earned := library.EarnedBetween(change.Before, change.After); earned > 0 {
		return session.Store.Dispatch(library.EarnPoints{Amount: earned})
	}
	return change.After
}

func rewardable(action library.Action) bool {
	switch action.(type) {
	case library.AddBook, library.UpdateBook, library.ChangeBookState, library.LinkBookToSaga:
		return true
	}
	return false
}

// Purchase spends the configured cost on one book. Unlike the reducer,
// which clamps, it refuses when the balance does not cover the cost.
func (session *Session) Purchase() (library.State, error) {
	return session.Store.DispatchIf(library.PurchaseWithPoints{}, func(state library.State) error {
		if state.Config.EnablePoints != nil && !*state.Config.EnablePoints {
			return ErrPointsDisabled
		}
		if !state.Ledger.CanAfford(state.Config.PurchasePrice()) {
			return ErrInsufficientPoints
		}
		return nil
	})
}
