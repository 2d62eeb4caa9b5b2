package library

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(24 * time.Hour)
)

func ptr[T any](v T) *T {
	return &v
}

func mistbornState(t *testing.T) State {
	t.Helper()

	s := Apply(NewState(), AddSaga{Saga: entities.Saga{Name: "Mistborn"}})
	require.Len(t, s.Sagas, 1)
	require.Equal(t, int64(1), s.Sagas[0].ID)

	return Apply(s, AddBook{
		Book: entities.Book{ID: 100, Title: "The Final Empire", SagaID: ptr(int64(1)), Status: entities.BookStatusTBR},
		At:   t0,
	})
}

func TestScenario_AddSagaThenLinkedBook(t *testing.T) {
	s := Apply(NewState(), AddSaga{Saga: entities.Saga{Name: "Mistborn"}})
	require.Len(t, s.Sagas, 1)
	assert.Equal(t, 0, s.Sagas[0].Count)
	assert.False(t, s.Sagas[0].IsComplete)

	s = mistbornState(t)

	saga, ok := s.Saga(1)
	require.True(t, ok)
	assert.Equal(t, 1, saga.Count)
	assert.False(t, saga.IsComplete)

	book, ok := s.Book(100)
	require.True(t, ok)
	assert.Equal(t, "Mistborn", book.SagaName)
}

func TestScenario_ReadingLastBookCompletesSaga(t *testing.T) {
	s := mistbornState(t)

	s = Apply(s, ChangeBookState{ID: 100, NewState: entities.BookStatusRead, At: t1})

	book, _ := s.Book(100)
	require.Len(t, book.StatusHistory, 2)
	assert.Equal(t, entities.BookStatusTBR, book.StatusHistory[0].Status)
	assert.Equal(t, t0, book.StatusHistory[0].Timestamp)
	assert.Equal(t, entities.BookStatusRead, book.StatusHistory[1].Status)
	assert.Equal(t, t1, book.StatusHistory[1].Timestamp)
	assert.Equal(t, entities.BookStatusRead, book.Status)

	saga, _ := s.Saga(1)
	assert.True(t, saga.IsComplete)
}

func TestScenario_DeletingOnlyBookPrunesSaga(t *testing.T) {
	s := mistbornState(t)

	s = Apply(s, DeleteBook{ID: 100})

	assert.Empty(t, s.Books)
	_, ok := s.Saga(1)
	assert.False(t, ok)
}

func TestScenario_SpendClampsAtZero(t *testing.T) {
	s := Apply(NewState(), EarnPoints{Amount: 30})
	s = Apply(s, SpendPoints{Amount: 100})

	assert.Equal(t, 0, s.CurrentPoints)
	assert.Equal(t, 30, s.TotalEarned)
}

func TestScenario_ImportWithoutSagasKeepsExistingSagas(t *testing.T) {
	s := NewState()
	for _, name := range []string{"Mistborn", "Stormlight", "Dune"} {
		s = Apply(s, AddSaga{Saga: entities.Saga{Name: name}})
	}
	require.Len(t, s.Sagas, 3)

	books := make([]entities.Book, 5)
	for i := range books {
		books[i] = entities.Book{ID: int64(i + 1), Title: "Imported", Status: entities.BookStatusTBR}
	}
	s = Apply(s, ImportData{Books: &books})

	assert.Len(t, s.Books, 5)
	assert.Len(t, s.Sagas, 3)
}

func TestApply_UnknownActionReturnsStateUnchanged(t *testing.T) {
	type bogus struct{ AddSearch }
	s := mistbornState(t)

	next := Apply(s, bogus{})

	assert.Equal(t, s, next)
}

func TestApply_MissingIDsAreSilentNoOps(t *testing.T) {
	s := mistbornState(t)

	actions := []Action{
		UpdateBook{ID: 999, Patch: BookPatch{Title: ptr("x")}},
		DeleteBook{ID: 999},
		ChangeBookState{ID: 999, NewState: entities.BookStatusRead},
		UpdateSaga{ID: 999, Patch: SagaPatch{Name: ptr("x")}},
		DeleteSaga{ID: 999},
		LinkBookToSaga{BookID: 100, SagaID: 999},
		LinkBookToSaga{BookID: 999, SagaID: 1},
		UnlinkBookFromSaga{BookID: 999},
		AddReading{BookID: 999},
		LoanBook{BookID: 999, To: "Ana"},
	}
	for _, a := range actions {
		t.Run(a.Type(), func(t *testing.T) {
			assert.Equal(t, s, Apply(s, a))
		})
	}
}

func TestAddBook_Defaults(t *testing.T) {
	s := Apply(NewState(), AddBook{Book: entities.Book{ID: 1, Title: "Dune"}, At: t0})

	book, ok := s.Book(1)
	require.True(t, ok)
	assert.Equal(t, entities.BookStatusTBR, book.Status)
	require.Len(t, book.StatusHistory, 1)
	assert.Equal(t, "added to reading list", book.StatusHistory[0].Message)
	assert.Equal(t, t0, book.StatusHistory[0].Timestamp)
}

func TestAddBook_KeepsProvidedHistory(t *testing.T) {
	history := []entities.StatusEntry{{Status: entities.BookStatusRead, Timestamp: t0}}
	s := Apply(NewState(), AddBook{
		Book: entities.Book{ID: 1, Title: "Dune", Status: entities.BookStatusRead, StatusHistory: history},
		At:   t1,
	})

	book, _ := s.Book(1)
	assert.Equal(t, history, book.StatusHistory)
}

func TestAddBook_SagaNameCreatesOrReusesSaga(t *testing.T) {
	s := Apply(NewState(), AddBook{
		Book:      entities.Book{ID: 1, Title: "The Final Empire", SagaName: "Mistborn"},
		NewSagaID: 42,
	})
	s = Apply(s, AddBook{Book: entities.Book{ID: 2, Title: "The Well of Ascension", SagaName: "Mistborn"}})
	s = Apply(s, AddBook{Book: entities.Book{ID: 3, Title: "Elantris", SagaName: "mistborn"}})

	require.Len(t, s.Sagas, 2)
	saga, ok := s.Saga(42)
	require.True(t, ok)
	assert.Equal(t, "Mistborn", saga.Name)
	assert.Equal(t, 2, saga.Count)

	other, ok := SagaByName(s, "mistborn")
	require.True(t, ok)
	assert.Equal(t, int64(43), other.ID)
	assert.Equal(t, 1, other.Count)
}

func TestUpdateBook_MergesPatchAndTracksStatus(t *testing.T) {
	s := mistbornState(t)

	s = Apply(s, UpdateBook{ID: 100, Patch: BookPatch{Pages: ptr(541), Genre: ptr("Fantasy")}, At: t1})
	book, _ := s.Book(100)
	assert.Equal(t, 541, book.Pages)
	assert.Equal(t, "Fantasy", book.Genre)
	assert.Equal(t, "The Final Empire", book.Title)
	assert.Len(t, book.StatusHistory, 1)

	s = Apply(s, UpdateBook{ID: 100, Patch: BookPatch{Status: ptr(entities.BookStatusReading)}, At: t1})
	book, _ = s.Book(100)
	assert.Equal(t, entities.BookStatusReading, book.Status)
	require.Len(t, book.StatusHistory, 2)
	assert.Equal(t, "started reading", book.StatusHistory[1].Message)

	s = Apply(s, UpdateBook{ID: 100, Patch: BookPatch{Status: ptr(entities.BookStatusReading)}, At: t1})
	book, _ = s.Book(100)
	assert.Len(t, book.StatusHistory, 2)
}

func TestDeleteSaga_UnlinksBooks(t *testing.T) {
	s := mistbornState(t)

	s = Apply(s, DeleteSaga{ID: 1})

	assert.Empty(t, s.Sagas)
	book, _ := s.Book(100)
	assert.Nil(t, book.SagaID)
	assert.Empty(t, book.SagaName)
}

func TestUpdateSaga_RenameRefreshesBookCache(t *testing.T) {
	s := mistbornState(t)

	s = Apply(s, UpdateSaga{ID: 1, Patch: SagaPatch{Name: ptr("Mistborn Era 1"), Author: ptr("Brandon Sanderson")}})

	saga, _ := s.Saga(1)
	assert.Equal(t, "Mistborn Era 1", saga.Name)
	assert.Equal(t, "Brandon Sanderson", saga.Author)
	book, _ := s.Book(100)
	assert.Equal(t, "Mistborn Era 1", book.SagaName)
}

func TestLinkAndUnlink(t *testing.T) {
	s := mistbornState(t)
	s = Apply(s, AddBook{Book: entities.Book{ID: 200, Title: "Warbreaker"}})
	s = Apply(s, AddSaga{Saga: entities.Saga{ID: 7, Name: "Standalones"}})

	s = Apply(s, LinkBookToSaga{BookID: 200, SagaID: 1})
	saga, _ := s.Saga(1)
	assert.Equal(t, 2, saga.Count)
	book, _ := s.Book(200)
	assert.Equal(t, "Mistborn", book.SagaName)
	_, ok := s.Saga(7)
	assert.False(t, ok, "link prunes sagas without books")

	s = Apply(s, UnlinkBookFromSaga{BookID: 200})
	book, _ = s.Book(200)
	assert.Nil(t, book.SagaID)
	assert.Empty(t, book.SagaName)
	saga, _ = s.Saga(1)
	assert.Equal(t, 1, saga.Count)

	s = Apply(s, UnlinkBookFromSaga{BookID: 100})
	assert.Empty(t, s.Sagas)
}

func TestSagaCompletionNeedsEveryBookRead(t *testing.T) {
	s := mistbornState(t)
	s = Apply(s, AddBook{Book: entities.Book{ID: 101, Title: "The Well of Ascension", SagaID: ptr(int64(1))}})

	s = Apply(s, ChangeBookState{ID: 100, NewState: entities.BookStatusRead})
	saga, _ := s.Saga(1)
	assert.False(t, saga.IsComplete)

	s = Apply(s, ChangeBookState{ID: 101, NewState: entities.BookStatusRead})
	saga, _ = s.Saga(1)
	assert.True(t, saga.IsComplete)

	s = Apply(s, ChangeBookState{ID: 101, NewState: entities.BookStatusAbandoned})
	saga, _ = s.Saga(1)
	assert.False(t, saga.IsComplete)
}

func TestScanHistory(t *testing.T) {
	s := Apply(NewState(), AddScan{Record: entities.ScanRecord{ID: "a", ISBN: "1"}})
	s = Apply(s, AddScan{Record: entities.ScanRecord{ID: "b", ISBN: "2"}})

	require.Len(t, s.ScanHistory, 2)
	assert.Equal(t, "b", s.ScanHistory[0].ID)
	assert.Equal(t, "a", s.ScanHistory[1].ID)

	s = Apply(s, ClearScanHistory{})
	assert.Empty(t, s.ScanHistory)
}

func TestSearchHistory(t *testing.T) {
	s := NewState()
	for i := 0; i < 12; i++ {
		s = Apply(s, AddSearch{Term: string(rune('a' + i))})
	}
	require.Len(t, s.SearchHistory, SearchHistoryLimit)
	assert.Equal(t, "l", s.SearchHistory[0])
	assert.Equal(t, "c", s.SearchHistory[9])

	s = Apply(s, AddSearch{Term: "f"})
	assert.Len(t, s.SearchHistory, SearchHistoryLimit)
	assert.Equal(t, "f", s.SearchHistory[0])
	assert.Equal(t, "l", s.SearchHistory[1])
	assert.NotContains(t, s.SearchHistory[1:], "f")

	before := s.SearchHistory
	s = Apply(s, AddSearch{Term: "   "})
	assert.Equal(t, before, s.SearchHistory)

	s = Apply(s, ClearSearchHistory{})
	assert.Empty(t, s.SearchHistory)
}

func TestImportData_FieldFallback(t *testing.T) {
	s := mistbornState(t)
	s = Apply(s, UpdateConfig{Patch: entities.Settings{YearlyGoal: ptr(12), PreferredCamera: ptr("back")}})
	s = Apply(s, EarnPoints{Amount: 50})
	s = Apply(s, AddSearch{Term: "dune"})

	s = Apply(s, ImportData{
		Config:        &entities.Settings{YearlyGoal: ptr(24)},
		CurrentPoints: ptr(5),
	})

	assert.Len(t, s.Books, 1)
	assert.Len(t, s.Sagas, 1)
	assert.Equal(t, []string{"dune"}, s.SearchHistory)
	assert.Equal(t, 24, *s.Config.YearlyGoal)
	assert.Equal(t, "back", *s.Config.PreferredCamera)
	assert.Equal(t, 5, s.CurrentPoints)
	assert.Equal(t, 50, s.TotalEarned)
}

func TestImportData_RecomputesDerivedSagaFields(t *testing.T) {
	sagas := []entities.Saga{{ID: 3, Name: "Dune", Count: 99, IsComplete: false}}
	books := []entities.Book{
		{ID: 1, Title: "Dune", Status: entities.BookStatusRead, SagaID: ptr(int64(3))},
	}

	s := Apply(NewState(), ImportData{Books: &books, Sagas: &sagas})

	saga, _ := s.Saga(3)
	assert.Equal(t, 1, saga.Count)
	assert.True(t, saga.IsComplete)
	book, _ := s.Book(1)
	assert.Equal(t, "Dune", book.SagaName)
}

func TestPurchaseWithPointsUsesConfiguredCost(t *testing.T) {
	s := Apply(NewState(), EarnPoints{Amount: 120})
	s = Apply(s, PurchaseWithPoints{})
	assert.Equal(t, 20, s.CurrentPoints)
	assert.Equal(t, 1, s.BooksPurchasedWithPoints)

	s = Apply(s, UpdateConfig{Patch: entities.Settings{PurchaseCost: ptr(15)}})
	s = Apply(s, PurchaseWithPoints{})
	assert.Equal(t, 5, s.CurrentPoints)
	assert.Equal(t, 2, s.BooksPurchasedWithPoints)

	s = Apply(s, PurchaseWithPoints{})
	assert.Equal(t, 0, s.CurrentPoints)
	assert.Equal(t, 3, s.BooksPurchasedWithPoints)

	s = Apply(s, ResetPoints{})
	assert.Equal(t, Ledger{}, s.Ledger)
}

func TestReadingsAndLoans(t *testing.T) {
	s := mistbornState(t)

	s = Apply(s, AddReading{BookID: 100, Reading: entities.Reading{StartDate: t0, EndDate: t1, Rating: ptr(4.5)}})
	s = Apply(s, AddReading{BookID: 100, Reading: entities.Reading{StartDate: t1}})
	book, _ := s.Book(100)
	require.Len(t, book.Readings, 2)
	assert.Equal(t, int64(1), book.Readings[0].ID)
	assert.Equal(t, int64(2), book.Readings[1].ID)

	s = Apply(s, DeleteReading{BookID: 100, ReadingID: 1})
	book, _ = s.Book(100)
	require.Len(t, book.Readings, 1)
	assert.Equal(t, int64(2), book.Readings[0].ID)

	s = Apply(s, LoanBook{BookID: 100, To: "Ana"})
	book, _ = s.Book(100)
	assert.True(t, book.Loaned)
	assert.Equal(t, "Ana", book.LoanedTo)
	assert.Equal(t, entities.BookStatusTBR, book.Status)

	s = Apply(s, ReturnBook{BookID: 100})
	book, _ = s.Book(100)
	assert.False(t, book.Loaned)
	assert.Empty(t, book.LoanedTo)
}

func TestNotifications(t *testing.T) {
	s := Apply(NewState(), PushNotification{Notification: Notification{ID: "n1", Message: "hello"}})
	s = Apply(s, PushNotification{Notification: Notification{ID: "n2", Message: "world"}})
	require.Len(t, s.Notifications, 2)

	s = Apply(s, DismissNotification{ID: "n1"})
	require.Len(t, s.Notifications, 1)
	assert.Equal(t, "n2", s.Notifications[0].ID)
}

// randomAction draws an action from a small id space so that collisions
// between books, sagas and links happen often.
func randomAction(rng *rand.Rand, nextID *int64) Action {
	statuses := entities.AllBookStatuses
	sagaNames := []string{"Mistborn", "Dune", "Discworld"}
	existing := func() int64 { return rng.Int63n(*nextID+1) + 1 }

	switch rng.Intn(13) {
	case 0, 1:
		*nextID++
		book := entities.Book{ID: *nextID, Title: "Book", Status: statuses[rng.Intn(len(statuses))]}
		if rng.Intn(2) == 0 {
			book.SagaName = sagaNames[rng.Intn(len(sagaNames))]
		}
		return AddBook{Book: book, At: t0}
	case 2, 3:
		return ChangeBookState{ID: existing(), NewState: statuses[rng.Intn(len(statuses))], At: t1}
	case 4:
		return DeleteBook{ID: existing()}
	case 5:
		return LinkBookToSaga{BookID: existing(), SagaID: rng.Int63n(4) + 1}
	case 6:
		return UnlinkBookFromSaga{BookID: existing()}
	case 7:
		return DeleteSaga{ID: rng.Int63n(4) + 1}
	case 8:
		return UpdateBook{ID: existing(), Patch: BookPatch{Status: &statuses[rng.Intn(len(statuses))]}, At: t1}
	case 9:
		return EarnPoints{Amount: rng.Intn(60)}
	case 10:
		return SpendPoints{Amount: rng.Intn(80)}
	case 11:
		return AddSaga{Saga: entities.Saga{Name: "Stormlight"}}
	default:
		return PurchaseWithPoints{}
	}
}

func TestApply_InvariantsHoldForRandomSequences(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		var nextID int64
		s := NewState()

		for step := 0; step < 200; step++ {
			action := randomAction(rng, &nextID)
			before := s.Clone()
			next := Apply(s, action)

			require.Equal(t, before, s, "seed %d step %d: Apply mutated its input (%s)", seed, step, action.Type())
			assertSagaInvariants(t, next)
			assertHistoryAppendOnly(t, s, next)
			require.GreaterOrEqual(t, next.CurrentPoints, 0)
			require.GreaterOrEqual(t, next.TotalEarned, s.TotalEarned)

			// Orphan sagas are pruned only by the actions that can unlink
			// books. Any other action may keep an orphan, but the only new
			// one it can introduce is a saga added without books.
			switch a := action.(type) {
			case DeleteBook, DeleteSaga, LinkBookToSaga, UnlinkBookFromSaga:
				assertNoOrphans(t, next)
			default:
				allowed := orphanIDs(s)
				if _, ok := a.(AddSaga); ok {
					allowed[next.Sagas[len(next.Sagas)-1].ID] = true
				}
				for id := range orphanIDs(next) {
					require.True(t, allowed[id], "seed %d step %d: %s orphaned saga %d", seed, step, action.Type(), id)
				}
			}
			s = next
		}
	}
}

func assertSagaInvariants(t *testing.T, s State) {
	t.Helper()
	for _, saga := range s.Sagas {
		linked := s.SagaBooks(saga.ID)
		require.Equal(t, len(linked), saga.Count, "saga %d count", saga.ID)

		allRead := len(linked) > 0
		for _, b := range linked {
			require.Equal(t, saga.Name, b.SagaName)
			if b.Status != entities.BookStatusRead {
				allRead = false
			}
		}
		require.Equal(t, allRead, saga.IsComplete, "saga %d completion", saga.ID)
	}
	for _, b := range s.Books {
		if b.SagaID == nil {
			require.Empty(t, b.SagaName)
		}
	}
}

func orphanIDs(s State) map[int64]bool {
	ids := make(map[int64]bool)
	for _, saga := range s.Sagas {
		if len(s.SagaBooks(saga.ID)) == 0 {
			ids[saga.ID] = true
		}
	}
	return ids
}

func assertNoOrphans(t *testing.T, s State) {
	t.Helper()
	for _, saga := range s.Sagas {
		require.NotEmpty(t, s.SagaBooks(saga.ID), "saga %d is orphaned", saga.ID)
	}
}

func assertHistoryAppendOnly(t *testing.T, before, after State) {
	t.Helper()
	for _, b := range after.Books {
		prev, ok := before.Book(b.ID)
		if !ok {
			continue
		}
		require.GreaterOrEqual(t, len(b.StatusHistory), len(prev.StatusHistory))
		require.Equal(t, prev.StatusHistory, b.StatusHistory[:len(prev.StatusHistory)])
	}
}
