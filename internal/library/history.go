package library

import (
	"slices"
	"time"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var statusMessages = map[entities.BookStatus]string{
	entities.BookStatusTBR:       "added to reading list",
	entities.BookStatusReading:   "started reading",
	entities.BookStatusRead:      "marked as read",
	entities.BookStatusAbandoned: "marked as abandoned",
	entities.BookStatusWishlist:  "added to wishlist",
	entities.BookStatusPurchased: "marked as purchased",
	entities.BookStatusLoaned:    "marked as loaned",
}

// StatusMessage returns the human readable history message for a status.
func StatusMessage(status entities.BookStatus) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "status changed to " + string(status)
}

// AppendHistory returns a copy of book moved to status, with one history
// entry appended. Existing entries are never touched.
func AppendHistory(book entities.Book, status entities.BookStatus, note string, at time.Time) entities.Book {
	msg := StatusMessage(status)
	if note != "" {
		msg += ": " + note
	}

	book.Status = status
	// Clip forces append to allocate, so the caller's backing array stays intact.
	book.StatusHistory = append(slices.Clip(book.StatusHistory), entities.StatusEntry{
		Status:    status,
		Timestamp: at,
		Message:   msg,
		Note:      note,
	})
	return book
}

// FirstStatusAt returns when the book first entered status.
func FirstStatusAt(book entities.Book, status entities.BookStatus) (time.Time, bool) {
	for _, e := range book.StatusHistory {
		if e.Status == status {
			return e.Timestamp, true
		}
	}
	return time.Time{}, false
}

// LastStatusAt returns when the book most recently entered status.
func LastStatusAt(book entities.Book, status entities.BookStatus) (time.Time, bool) {
	for i := len(book.StatusHistory) - 1; i >= 0; i-- {
		if book.StatusHistory[i].Status == status {
			return book.StatusHistory[i].Timestamp, true
		}
	}
	return time.Time{}, false
}
