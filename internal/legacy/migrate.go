// Package legacy converts the old per-shelf library layout into the unified
// book list and reads it from local storage.
package legacy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
)

var ErrMalformedBlob = errors.New("malformed legacy library")

// markers are top-level keys that only exist in the old layout.
var markers = []string{"tbr", "currentBook", "history", "wishlist"}

var scanNamespace = uuid.MustParse("6f2c1a4e-3b7d-4c1e-9a55-2d8e0f1b7c90")

// IsLegacy reports whether raw is a library stored in the old layout.
func IsLegacy(raw []byte) bool {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return false
	}
	for _, k := range markers {
		if _, ok := keys[k]; ok {
			return true
		}
	}
	return false
}

// Upgrade turns a stored blob into a library state. Old-layout blobs are
// migrated, anything else is read as a snapshot. migrated reports which of
// the two happened. An empty blob yields the empty library.
func Upgrade(raw []byte, now time.Time) (state library.State, migrated bool, err error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return library.NewState(), false, nil
	}

	if IsLegacy(raw) {
		var blob Blob
		if err := json.Unmarshal(raw, &blob); err != nil {
			return library.NewState(), false, fmt.Errorf("%w: %v", ErrMalformedBlob, err)
		}
		state, err := Migrate(blob, now)
		if err != nil {
			return library.NewState(), false, err
		}
		return state, true, nil
	}

	var snap entities.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return library.NewState(), false, fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}
	return library.Apply(library.NewState(), library.ImportFromSnapshot(snap)), false, nil
}

type shelf struct {
	name   string
	status entities.BookStatus
	books  []Book
}

// Migrate maps the old shelves onto one book list. Each book gets a single
// history entry dated with the best timestamp the old layout kept, or now.
// When a book id shows up on several shelves the first shelf wins, in the
// order reading, history, tbr, wishlist. Either every book migrates or an
// error wrapping ErrMalformedBlob is returned.
func Migrate(blob Blob, now time.Time) (library.State, error) {
	var current []Book
	if blob.CurrentBook != nil {
		current = []Book{*blob.CurrentBook}
	}
	shelves := []shelf{
		{name: "currentBook", status: entities.BookStatusReading, books: current},
		{name: "history", status: entities.BookStatusRead, books: blob.History},
		{name: "tbr", status: entities.BookStatusTBR, books: blob.TBR},
		{name: "wishlist", status: entities.BookStatusWishlist, books: blob.Wishlist},
	}

	var highest int64
	for _, sh := range shelves {
		for i, b := range sh.books {
			if strings.TrimSpace(b.Title) == "" {
				return library.NewState(), fmt.Errorf("%w: %s[%d] has no title", ErrMalformedBlob, sh.name, i)
			}
			highest = max(highest, b.ID.Int64())
		}
	}

	sagas := make([]entities.Saga, len(blob.Sagas))
	copy(sagas, blob.Sagas)
	scans := migrateScans(blob.ScanHistory, now)
	searches := append([]string{}, blob.SearchHistory...)
	state := library.Apply(library.NewState(), library.ImportData{
		Sagas:                    &sagas,
		Config:                   &blob.Config,
		ScanHistory:              &scans,
		SearchHistory:            &searches,
		CurrentPoints:            &blob.CurrentPoints,
		TotalEarned:              &blob.TotalEarned,
		BooksPurchasedWithPoints: &blob.BooksPurchasedWithPoints,
	})

	seen := make(map[int64]bool)
	for _, sh := range shelves {
		for _, old := range sh.books {
			id := old.ID.Int64()
			if id <= 0 {
				highest++
				id = highest
			}
			if seen[id] {
				continue
			}
			seen[id] = true

			status := sh.status
			if status == entities.BookStatusRead && old.Abandoned {
				status = entities.BookStatusAbandoned
			}
			book, at := convertBook(old, id, status, now)
			state = library.Apply(state, library.AddBook{Book: book, At: at})
		}
	}

	return library.PruneOrphanSagas(state), nil
}

func convertBook(old Book, id int64, status entities.BookStatus, now time.Time) (entities.Book, time.Time) {
	book := entities.Book{
		ID:       id,
		Title:    strings.TrimSpace(old.Title),
		Author:   old.Author,
		Pages:    old.Pages,
		ISBN:     old.ISBN,
		Genre:    old.Genre,
		CoverURL: old.Cover,
		Rating:   old.Rating,
		SagaID:   old.SagaID,
		SagaName: old.SagaName,
		Status:   status,
	}

	if status == entities.BookStatusRead && !old.StartedAt.IsZero() && !old.FinishedAt.IsZero() {
		reading := entities.Reading{
			ID:        1,
			StartDate: old.StartedAt.Time,
			EndDate:   old.FinishedAt.Time,
			Review:    old.Review,
		}
		if old.Rating > 0 {
			rating := old.Rating
			reading.Rating = &rating
		}
		book.Readings = []entities.Reading{reading}
	}

	return book, bestTimestamp(old, status, now)
}

func bestTimestamp(old Book, status entities.BookStatus, now time.Time) time.Time {
	var candidates []Timestamp
	switch status {
	case entities.BookStatusRead, entities.BookStatusAbandoned:
		candidates = []Timestamp{old.FinishedAt, old.StartedAt, old.AddedAt}
	case entities.BookStatusReading:
		candidates = []Timestamp{old.StartedAt, old.AddedAt}
	default:
		candidates = []Timestamp{old.AddedAt}
	}
	for _, ts := range candidates {
		if !ts.IsZero() {
			return ts.Time
		}
	}
	return now
}

func migrateScans(old []ScanRecord, now time.Time) []entities.ScanRecord {
	scans := make([]entities.ScanRecord, 0, len(old))
	for i, s := range old {
		id := string(s.ID)
		if id == "" {
			id = uuid.NewSHA1(scanNamespace, []byte(fmt.Sprintf("%d:%s", i, s.ISBN))).String()
		}
		ts := s.Timestamp.Time
		if ts.IsZero() {
			ts = now
		}
		scans = append(scans, entities.ScanRecord{
			ID:        id,
			ISBN:      s.ISBN,
			Title:     s.Title,
			Author:    s.Author,
			Timestamp: ts,
			Success:   s.Success,
			Error:     s.Error,
		})
	}
	return scans
}
