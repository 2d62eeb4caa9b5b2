package library

import (
	"slices"
	"time"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// SearchHistoryLimit caps the number of remembered search terms.
const SearchHistoryLimit = 10

type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a transient message for whoever renders the library.
// Notifications are never persisted.
type Notification struct {
	ID      string           `json:"id"`
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

// State is the whole in-memory library of one user.
type State struct {
	Ledger

	Config        entities.Settings     `json:"config"`
	Books         []entities.Book       `json:"books"`
	Sagas         []entities.Saga       `json:"sagas"`
	ScanHistory   []entities.ScanRecord `json:"scanHistory"`
	SearchHistory []string              `json:"searchHistory"`

	Notifications []Notification `json:"notifications"`
}

// NewState returns the empty library a session starts from.
func NewState() State {
	return State{
		Books:         []entities.Book{},
		Sagas:         []entities.Saga{},
		ScanHistory:   []entities.ScanRecord{},
		SearchHistory: []string{},
		Notifications: []Notification{},
	}
}

// Book returns the book with the given id.
func (s State) Book(id int64) (entities.Book, bool) {
	if i := s.bookIndex(id); i >= 0 {
		return s.Books[i], true
	}
	return entities.Book{}, false
}

// Saga returns the saga with the given id.
func (s State) Saga(id int64) (entities.Saga, bool) {
	if i := s.sagaIndex(id); i >= 0 {
		return s.Sagas[i], true
	}
	return entities.Saga{}, false
}

// BooksWithStatus returns the books currently in the given status.
func (s State) BooksWithStatus(status entities.BookStatus) []entities.Book {
	var result []entities.Book
	for _, b := range s.Books {
		if b.Status == status {
			result = append(result, b)
		}
	}
	return result
}

// SagaBooks returns the books linked to a saga.
func (s State) SagaBooks(sagaID int64) []entities.Book {
	var result []entities.Book
	for _, b := range s.Books {
		if b.InSaga(sagaID) {
			result = append(result, b)
		}
	}
	return result
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := s
	c.Books = cloneBooks(s.Books)
	c.Sagas = slices.Clone(s.Sagas)
	c.ScanHistory = slices.Clone(s.ScanHistory)
	c.SearchHistory = slices.Clone(s.SearchHistory)
	c.Notifications = slices.Clone(s.Notifications)
	return c
}

// Snapshot converts the state into its persisted shape, dropping
// notifications.
func (s State) Snapshot(now time.Time) entities.Snapshot {
	c := s.Clone()
	return entities.Snapshot{
		Books:                    nonNil(c.Books),
		Sagas:                    nonNil(c.Sagas),
		Config:                   c.Config,
		ScanHistory:              nonNil(c.ScanHistory),
		SearchHistory:            nonNil(c.SearchHistory),
		CurrentPoints:            c.CurrentPoints,
		TotalEarned:              c.TotalEarned,
		BooksPurchasedWithPoints: c.BooksPurchasedWithPoints,
		UpdatedAt:                now,
	}
}

// ImportFromSnapshot builds the IMPORT_DATA action carrying every field of a
// snapshot.
func ImportFromSnapshot(snap entities.Snapshot) ImportData {
	books := cloneBooks(nonNil(snap.Books))
	sagas := slices.Clone(nonNil(snap.Sagas))
	scans := slices.Clone(nonNil(snap.ScanHistory))
	searches := slices.Clone(nonNil(snap.SearchHistory))
	config := snap.Config
	current := snap.CurrentPoints
	total := snap.TotalEarned
	purchased := snap.BooksPurchasedWithPoints

	return ImportData{
		Books:                    &books,
		Sagas:                    &sagas,
		Config:                   &config,
		ScanHistory:              &scans,
		SearchHistory:            &searches,
		CurrentPoints:            &current,
		TotalEarned:              &total,
		BooksPurchasedWithPoints: &purchased,
	}
}

func (s State) bookIndex(id int64) int {
	return slices.IndexFunc(s.Books, func(b entities.Book) bool { return b.ID == id })
}

func (s State) sagaIndex(id int64) int {
	return slices.IndexFunc(s.Sagas, func(sg entities.Saga) bool { return sg.ID == id })
}

func cloneBook(b entities.Book) entities.Book {
	b.Categories = slices.Clone(b.Categories)
	b.StatusHistory = slices.Clone(b.StatusHistory)
	b.Readings = slices.Clone(b.Readings)
	if b.SagaID != nil {
		id := *b.SagaID
		b.SagaID = &id
	}
	return b
}

func cloneBooks(books []entities.Book) []entities.Book {
	if books == nil {
		return nil
	}
	out := make([]entities.Book, len(books))
	for i, b := range books {
		out[i] = cloneBook(b)
	}
	return out
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
