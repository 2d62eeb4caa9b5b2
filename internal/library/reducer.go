package library

import (
	"slices"
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Apply returns the state that results from applying action to s. It never
// modifies s, never fails and performs no I/O. Unknown actions and actions
// referring to missing books or sagas leave the state unchanged.
//
// Saga counts are recomputed after every action. Sagas that lost their last
// book are pruned after the actions that can unlink books.
func Apply(s State, action Action) State {
	next, ok := reduce(s, action)
	if !ok {
		return s
	}

	next = RecomputeSagas(next)
	switch action.(type) {
	case DeleteBook, DeleteSaga, LinkBookToSaga, UnlinkBookFromSaga:
		next = PruneOrphanSagas(next)
	}
	return next
}

func reduce(s State, action Action) (State, bool) {
	switch a := action.(type) {
	case AddBook:
		return addBook(s, a), true
	case UpdateBook:
		return updateBook(s, a), true
	case DeleteBook:
		s.Books = slices.DeleteFunc(slices.Clone(s.Books), func(b entities.Book) bool { return b.ID == a.ID })
		return s, true
	case ChangeBookState:
		return withBook(s, a.ID, func(b entities.Book) entities.Book {
			return AppendHistory(b, a.NewState, a.Note, a.At)
		}), true

	case AddSaga:
		return addSaga(s, a), true
	case UpdateSaga:
		return updateSaga(s, a), true
	case DeleteSaga:
		return deleteSaga(s, a.ID), true
	case LinkBookToSaga:
		if s.sagaIndex(a.SagaID) < 0 {
			return s, true
		}
		return withBook(s, a.BookID, func(b entities.Book) entities.Book {
			id := a.SagaID
			b.SagaID = &id
			return b
		}), true
	case UnlinkBookFromSaga:
		return withBook(s, a.BookID, func(b entities.Book) entities.Book {
			b.SagaID = nil
			b.SagaName = ""
			return b
		}), true

	case AddScan:
		s.ScanHistory = append([]entities.ScanRecord{a.Record}, s.ScanHistory...)
		return s, true
	case ClearScanHistory:
		s.ScanHistory = []entities.ScanRecord{}
		return s, true
	case AddSearch:
		return addSearch(s, a.Term), true
	case ClearSearchHistory:
		s.SearchHistory = []string{}
		return s, true

	case ImportData:
		return importData(s, a), true
	case UpdateConfig:
		s.Config = s.Config.Merge(a.Patch)
		return s, true

	case EarnPoints:
		s.Ledger = s.Ledger.Earn(a.Amount)
		return s, true
	case SpendPoints:
		s.Ledger = s.Ledger.Spend(a.Amount)
		return s, true
	case PurchaseWithPoints:
		s.Ledger = s.Ledger.PurchaseWithPoints(s.Config.PurchasePrice())
		return s, true
	case ResetPoints:
		s.Ledger = s.Ledger.Reset()
		return s, true

	case AddReading:
		return withBook(s, a.BookID, func(b entities.Book) entities.Book {
			r := a.Reading
			if r.ID == 0 {
				r.ID = nextReadingID(b)
			}
			b.Readings = append(slices.Clip(b.Readings), r)
			return b
		}), true
	case DeleteReading:
		return withBook(s, a.BookID, func(b entities.Book) entities.Book {
			b.Readings = slices.DeleteFunc(slices.Clone(b.Readings), func(r entities.Reading) bool {
				return r.ID == a.ReadingID
			})
			return b
		}), true
	case LoanBook:
		return withBook(s, a.BookID, func(b entities.Book) entities.Book {
			b.Loaned = true
			b.LoanedTo = a.To
			return b
		}), true
	case ReturnBook:
		return withBook(s, a.BookID, func(b entities.Book) entities.Book {
			b.Loaned = false
			b.LoanedTo = ""
			return b
		}), true

	case PushNotification:
		s.Notifications = append(slices.Clip(s.Notifications), a.Notification)
		return s, true
	case DismissNotification:
		s.Notifications = slices.DeleteFunc(slices.Clone(s.Notifications), func(n Notification) bool {
			return n.ID == a.ID
		})
		return s, true
	}
	return s, false
}

// withBook replaces the book with the given id by fn's result. Missing ids
// leave the state as it is.
func withBook(s State, id int64, fn func(entities.Book) entities.Book) State {
	i := s.bookIndex(id)
	if i < 0 {
		return s
	}
	books := slices.Clone(s.Books)
	books[i] = fn(books[i])
	s.Books = books
	return s
}

func addBook(s State, a AddBook) State {
	book := cloneBook(a.Book)
	if book.Status == "" {
		book.Status = entities.BookStatusTBR
	}
	if len(book.StatusHistory) == 0 {
		book = AppendHistory(book, book.Status, "", a.At)
	}

	name := strings.TrimSpace(book.SagaName)
	if book.SagaID == nil && name != "" {
		saga, ok := SagaByName(s, name)
		if !ok {
			saga = entities.Saga{ID: a.NewSagaID, Name: name}
			if saga.ID == 0 || s.sagaIndex(saga.ID) >= 0 {
				saga.ID = nextSagaID(s)
			}
			s.Sagas = append(slices.Clip(s.Sagas), saga)
		}
		id := saga.ID
		book.SagaID = &id
	}

	s.Books = append(slices.Clip(s.Books), book)
	return s
}

func updateBook(s State, a UpdateBook) State {
	return withBook(s, a.ID, func(b entities.Book) entities.Book {
		p := a.Patch
		if p.Title != nil {
			b.Title = *p.Title
		}
		if p.Author != nil {
			b.Author = *p.Author
		}
		if p.Pages != nil {
			b.Pages = *p.Pages
		}
		if p.ISBN != nil {
			b.ISBN = *p.ISBN
		}
		if p.Publisher != nil {
			b.Publisher = *p.Publisher
		}
		if p.PublicationYear != nil {
			b.PublicationYear = *p.PublicationYear
		}
		if p.Description != nil {
			b.Description = *p.Description
		}
		if p.Genre != nil {
			b.Genre = *p.Genre
		}
		if p.Categories != nil {
			b.Categories = slices.Clone(*p.Categories)
		}
		if p.Language != nil {
			b.Language = *p.Language
		}
		if p.Rating != nil {
			b.Rating = *p.Rating
		}
		if p.Format != nil {
			b.Format = *p.Format
		}
		if p.Location != nil {
			b.Location = *p.Location
		}
		if p.Price != nil {
			b.Price = *p.Price
		}
		if p.CoverURL != nil {
			b.CoverURL = *p.CoverURL
		}
		if p.CustomCover != nil {
			b.CustomCover = *p.CustomCover
		}
		if p.Status != nil && *p.Status != b.Status {
			b = AppendHistory(b, *p.Status, "", a.At)
		}
		return b
	})
}

func addSaga(s State, a AddSaga) State {
	saga := a.Saga
	if saga.ID == 0 {
		saga.ID = nextSagaID(s)
	}
	saga.Count = 0
	saga.IsComplete = false
	s.Sagas = append(slices.Clip(s.Sagas), saga)
	return s
}

func updateSaga(s State, a UpdateSaga) State {
	i := s.sagaIndex(a.ID)
	if i < 0 {
		return s
	}
	sagas := slices.Clone(s.Sagas)
	p := a.Patch
	if p.Name != nil {
		sagas[i].Name = *p.Name
	}
	if p.Description != nil {
		sagas[i].Description = *p.Description
	}
	if p.Genre != nil {
		sagas[i].Genre = *p.Genre
	}
	if p.Author != nil {
		sagas[i].Author = *p.Author
	}
	s.Sagas = sagas
	return s
}

func deleteSaga(s State, id int64) State {
	if s.sagaIndex(id) < 0 {
		return s
	}
	s.Sagas = slices.DeleteFunc(slices.Clone(s.Sagas), func(sg entities.Saga) bool { return sg.ID == id })

	books := slices.Clone(s.Books)
	for i := range books {
		if books[i].InSaga(id) {
			books[i].SagaID = nil
			books[i].SagaName = ""
		}
	}
	s.Books = books
	return s
}

func addSearch(s State, term string) State {
	term = strings.TrimSpace(term)
	if term == "" {
		return s
	}
	history := make([]string, 0, SearchHistoryLimit)
	history = append(history, term)
	for _, t := range s.SearchHistory {
		if len(history) == SearchHistoryLimit {
			break
		}
		if t != term {
			history = append(history, t)
		}
	}
	s.SearchHistory = history
	return s
}

func importData(s State, a ImportData) State {
	if a.Books != nil {
		s.Books = cloneBooks(nonNil(*a.Books))
	}
	if a.Sagas != nil {
		s.Sagas = slices.Clone(nonNil(*a.Sagas))
	}
	if a.Config != nil {
		s.Config = s.Config.Merge(*a.Config)
	}
	if a.ScanHistory != nil {
		s.ScanHistory = slices.Clone(nonNil(*a.ScanHistory))
	}
	if a.SearchHistory != nil {
		s.SearchHistory = slices.Clone(nonNil(*a.SearchHistory))
	}
	if a.CurrentPoints != nil {
		s.CurrentPoints = max(0, *a.CurrentPoints)
	}
	if a.TotalEarned != nil {
		s.TotalEarned = *a.TotalEarned
	}
	if a.BooksPurchasedWithPoints != nil {
		s.BooksPurchasedWithPoints = *a.BooksPurchasedWithPoints
	}
	return s
}

func nextReadingID(b entities.Book) int64 {
	var highest int64
	for _, r := range b.Readings {
		highest = max(highest, r.ID)
	}
	return highest + 1
}
