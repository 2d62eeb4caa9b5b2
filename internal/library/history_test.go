package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func TestAppendHistory(t *testing.T) {
	tests := []struct {
		status  entities.BookStatus
		note    string
		message string
	}{
		{entities.BookStatusTBR, "", "added to reading list"},
		{entities.BookStatusReading, "", "started reading"},
		{entities.BookStatusRead, "loved it", "marked as read: loved it"},
		{entities.BookStatusAbandoned, "", "marked as abandoned"},
		{entities.BookStatusWishlist, "", "added to wishlist"},
		{entities.BookStatusPurchased, "", "marked as purchased"},
		{entities.BookStatusLoaned, "to Ana", "marked as loaned: to Ana"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			book := entities.Book{ID: 1, Status: entities.BookStatusWishlist}

			got := AppendHistory(book, tt.status, tt.note, t0)

			assert.Equal(t, tt.status, got.Status)
			require.Len(t, got.StatusHistory, 1)
			assert.Equal(t, tt.message, got.StatusHistory[0].Message)
			assert.Equal(t, tt.note, got.StatusHistory[0].Note)
			assert.Equal(t, t0, got.StatusHistory[0].Timestamp)
			assert.Empty(t, book.StatusHistory)
		})
	}
}

func TestAppendHistory_DoesNotShareBackingArray(t *testing.T) {
	history := make([]entities.StatusEntry, 1, 8)
	history[0] = entities.StatusEntry{Status: entities.BookStatusTBR, Timestamp: t0}
	book := entities.Book{ID: 1, Status: entities.BookStatusTBR, StatusHistory: history}

	a := AppendHistory(book, entities.BookStatusReading, "", t1)
	b := AppendHistory(book, entities.BookStatusAbandoned, "", t1)

	assert.Equal(t, entities.BookStatusReading, a.StatusHistory[1].Status)
	assert.Equal(t, entities.BookStatusAbandoned, b.StatusHistory[1].Status)
	assert.Len(t, book.StatusHistory, 1)
}

func TestFirstAndLastStatusAt(t *testing.T) {
	book := entities.Book{ID: 1}
	book = AppendHistory(book, entities.BookStatusReading, "", t0)
	book = AppendHistory(book, entities.BookStatusTBR, "", t0.Add(1))
	book = AppendHistory(book, entities.BookStatusReading, "", t1)

	first, ok := FirstStatusAt(book, entities.BookStatusReading)
	require.True(t, ok)
	assert.Equal(t, t0, first)

	last, ok := LastStatusAt(book, entities.BookStatusReading)
	require.True(t, ok)
	assert.Equal(t, t1, last)

	_, ok = FirstStatusAt(book, entities.BookStatusRead)
	assert.False(t, ok)
}
