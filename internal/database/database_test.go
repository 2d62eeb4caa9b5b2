package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase_MigratesTables(t *testing.T) {
	db := setupTestDB(t)

	for _, model := range []any{
		&entities.LibraryRecord{},
		&entities.Book{},
		&entities.Saga{},
		&entities.ScanRecord{},
		&entities.Setting{},
		&entities.SyncProgress{},
	} {
		assert.True(t, db.DB.Migrator().HasTable(model), "%T", model)
	}
}

func TestDatabase_PingAndStats(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Ping(context.Background()))

	libraries, books, err := db.Stats()
	require.NoError(t, err)
	assert.Zero(t, libraries)
	assert.Zero(t, books)

	require.NoError(t, db.DB.Create(&entities.LibraryRecord{UserID: "ana"}).Error)
	require.NoError(t, db.DB.Create(&entities.Book{ID: 1, UserID: "ana", Title: "Dune"}).Error)
	require.NoError(t, db.DB.Create(&entities.Book{ID: 1, UserID: "bob", Title: "Dune"}).Error)

	libraries, books, err = db.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), libraries)
	assert.Equal(t, int64(2), books)
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}
