// Package sessions remembers which library a browser has open. Users are
// authenticated elsewhere; the cookie only carries the library user id.
package sessions

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/bookshelf/internal/config"
)

// Session data keys
const (
	KeyUserID    = "library_user_id"
	KeyStartedAt = "library_started_at"
)

func init() {
	gob.Register(time.Time{})
}

// Manager wraps scs.SessionManager with library-specific accessors.
type Manager struct {
	*scs.SessionManager
	store *sqlite3store.SQLite3Store
}

// NewManager creates a session manager persisting sessions in sqlDB, which
// is usually the *sql.DB underneath gorm.
func NewManager(sqlDB *sql.DB, cfg config.Session) (*Manager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	store := sqlite3store.New(sqlDB)
	sm.Store = store

	sm.Lifetime = cfg.Lifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = 24 * time.Hour
	}

	sm.Cookie.Name = cfg.CookieName
	if sm.Cookie.Name == "" {
		sm.Cookie.Name = "bookshelf_session"
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &Manager{SessionManager: sm, store: store}, nil
}

// Begin binds the session to userID, renewing the token first.
func (m *Manager) Begin(ctx context.Context, userID string) error {
	if err := m.RenewToken(ctx); err != nil {
		return err
	}
	m.Put(ctx, KeyUserID, userID)
	m.Put(ctx, KeyStartedAt, time.Now().UTC())
	return nil
}

// End destroys the session.
func (m *Manager) End(ctx context.Context) error {
	return m.Destroy(ctx)
}

// UserID returns the library user of the session, or "".
func (m *Manager) UserID(ctx context.Context) string {
	return m.GetString(ctx, KeyUserID)
}

// StartedAt returns when Begin was called, or the zero time.
func (m *Manager) StartedAt(ctx context.Context) time.Time {
	startedAt, _ := m.Get(ctx, KeyStartedAt).(time.Time)
	return startedAt
}

// Close stops the background cleanup of expired sessions.
func (m *Manager) Close() {
	if m.store != nil {
		m.store.StopCleanup()
	}
}
