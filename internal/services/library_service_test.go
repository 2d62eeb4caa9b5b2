package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/snapshots"
	syncrepo "github.com/mrlokans/bookshelf/internal/database/sync"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/syncengine"
)

type testEnv struct {
	service   *LibraryService
	remote    *snapshots.Repository
	progress  *syncrepo.Repository
	legacyDir string
}

func setupService(t *testing.T, debounce time.Duration) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := database.NewDatabase(filepath.Join(dir, "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	legacyDir := filepath.Join(dir, "legacy")
	require.NoError(t, os.MkdirAll(legacyDir, 0755))

	remote := snapshots.NewRepository(db.DB)
	progress := syncrepo.NewRepository(db.DB)
	cfg := syncengine.Config{Debounce: debounce, PushTimeout: 5 * time.Second}

	service := NewLibraryService(remote, progress, legacyDir, cfg)
	t.Cleanup(func() { service.Shutdown(context.Background()) })

	return &testEnv{service: service, remote: remote, progress: progress, legacyDir: legacyDir}
}

func TestLibraryService_OpenMigratesLegacyFile(t *testing.T) {
	env := setupService(t, time.Hour)
	ctx := context.Background()

	blob := `{
		"tbr": [{"id": 1, "title": "Dune", "author": "Frank Herbert"}],
		"history": [{"id": 2, "title": "Emma", "finishedAt": "2023-01-02"}],
		"currentPoints": 15
	}`
	require.NoError(t, os.WriteFile(filepath.Join(env.legacyDir, "ana.json"), []byte(blob), 0644))

	session, err := env.service.Open(ctx, "ana")
	require.NoError(t, err)

	state := session.Store.State()
	require.Len(t, state.Books, 2)
	assert.Equal(t, 15, state.CurrentPoints)

	exists, err := env.remote.Exists(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, exists)

	info := session.Engine.Info()
	assert.True(t, info.Attached)
	assert.NotNil(t, info.LastSync)
}

func TestLibraryService_OpenIsIdempotent(t *testing.T) {
	env := setupService(t, time.Hour)
	ctx := context.Background()

	first, err := env.service.Open(ctx, "ana")
	require.NoError(t, err)
	second, err := env.service.Open(ctx, "ana")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = env.service.Open(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "bob"}, env.service.Users())

	got, ok := env.service.Get("bob")
	require.True(t, ok)
	assert.Equal(t, "bob", got.UserID)

	_, ok = env.service.Get("carol")
	assert.False(t, ok)
}

func TestSession_DispatchAwardsPoints(t *testing.T) {
	env := setupService(t, time.Hour)
	session, err := env.service.Open(context.Background(), "ana")
	require.NoError(t, err)

	session.Dispatch(library.AddBook{Book: entities.Book{ID: 1, Title: "The Final Empire", SagaName: "Mistborn"}})
	session.Dispatch(library.AddBook{Book: entities.Book{ID: 2, Title: "The Well of Ascension", SagaName: "Mistborn"}})

	state := session.Dispatch(library.ChangeBookState{ID: 1, NewState: entities.BookStatusRead})
	assert.Equal(t, 10, state.CurrentPoints)

	// Finishing the saga earns the book and the saga bonus
	state = session.Dispatch(library.ChangeBookState{ID: 2, NewState: entities.BookStatusRead})
	assert.Equal(t, 70, state.CurrentPoints)
	assert.Equal(t, 70, state.TotalEarned)

	// Re-marking an already read book earns nothing
	state = session.Dispatch(library.ChangeBookState{ID: 2, NewState: entities.BookStatusRead, Note: "again"})
	assert.Equal(t, 70, state.CurrentPoints)
}

func TestSession_DispatchSkipsImportsAndDisabledPoints(t *testing.T) {
	env := setupService(t, time.Hour)
	session, err := env.service.Open(context.Background(), "ana")
	require.NoError(t, err)

	books := []entities.Book{{ID: 1, Title: "Dune", Status: entities.BookStatusRead}}
	state := session.Dispatch(library.ImportData{Books: &books})
	assert.Zero(t, state.CurrentPoints)

	disabled := false
	session.Dispatch(library.UpdateConfig{Patch: entities.Settings{EnablePoints: &disabled}})
	session.Dispatch(library.AddBook{Book: entities.Book{ID: 2, Title: "Emma"}})
	state = session.Dispatch(library.ChangeBookState{ID: 2, NewState: entities.BookStatusRead})
	assert.Zero(t, state.CurrentPoints)

	_, err = session.Purchase()
	assert.ErrorIs(t, err, ErrPointsDisabled)
}

func TestSession_Purchase(t *testing.T) {
	env := setupService(t, time.Hour)
	session, err := env.service.Open(context.Background(), "ana")
	require.NoError(t, err)

	session.Dispatch(library.EarnPoints{Amount: 60})
	state, err := session.Purchase()
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Equal(t, 60, state.CurrentPoints)

	session.Dispatch(library.EarnPoints{Amount: 50})
	state, err = session.Purchase()
	require.NoError(t, err)
	assert.Equal(t, 10, state.CurrentPoints)
	assert.Equal(t, 1, state.BooksPurchasedWithPoints)
}

func TestSession_ConcurrentPurchasesRespectBalance(t *testing.T) {
	env := setupService(t, time.Hour)
	session, err := env.service.Open(context.Background(), "ana")
	require.NoError(t, err)

	session.Dispatch(library.EarnPoints{Amount: 150})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := session.Purchase()
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, ErrInsufficientPoints) {
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, refused)
	state := session.Store.State()
	assert.Equal(t, 50, state.CurrentPoints)
	assert.Equal(t, 1, state.BooksPurchasedWithPoints)
}

func TestLibraryService_ShutdownFlushesPending(t *testing.T) {
	env := setupService(t, time.Hour)
	ctx := context.Background()

	session, err := env.service.Open(ctx, "ana")
	require.NoError(t, err)
	session.Dispatch(library.AddBook{Book: entities.Book{ID: 1, Title: "Dune"}})
	require.True(t, session.Engine.Info().Pending)

	env.service.Shutdown(ctx)

	snap, err := env.remote.LoadAll(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, snap.Books, 1)
	assert.Equal(t, "Dune", snap.Books[0].Title)

	progress, err := env.progress.GetSyncProgress("ana")
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusCompleted, progress.Status)
	assert.Empty(t, env.service.Users())
}

func TestLibraryService_CloseDropsPending(t *testing.T) {
	env := setupService(t, time.Hour)
	ctx := context.Background()

	session, err := env.service.Open(ctx, "ana")
	require.NoError(t, err)
	session.Dispatch(library.AddBook{Book: entities.Book{ID: 1, Title: "Dune"}})

	env.service.Close("ana")
	env.service.Close("ana")

	exists, err := env.remote.Exists(ctx, "ana")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.False(t, session.Engine.Info().Attached)
}

func TestLibraryService_DebouncedPush(t *testing.T) {
	env := setupService(t, 20*time.Millisecond)
	ctx := context.Background()

	session, err := env.service.Open(ctx, "ana")
	require.NoError(t, err)
	session.Dispatch(library.AddBook{Book: entities.Book{ID: 1, Title: "Dune"}})

	assert.Eventually(t, func() bool {
		snap, err := env.remote.LoadAll(ctx, "ana")
		return err == nil && len(snap.Books) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
