package lookup

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/library"
)

type stubLookup struct {
	result *Result
	err    error
}

func (s stubLookup) LookupISBN(ctx context.Context, isbn string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.result, s.err
}

func TestScanner_Success(t *testing.T) {
	scanner := NewScanner(stubLookup{result: &Result{
		Title:    "Dune",
		Author:   "Frank Herbert",
		ISBN:     "9780441013593",
		Pages:    604,
		Subjects: []string{"a", "b", "c", "d", "e", "f", "g"},
		CoverURL: "https://covers.example/dune.jpg",
	}})

	got, err := scanner.Scan(context.Background(), " 978-0-441-01359-3 ")
	require.NoError(t, err)

	record := got.Action.Record
	assert.True(t, record.Success)
	assert.Equal(t, "9780441013593", record.ISBN)
	assert.Equal(t, "Dune", record.Title)
	assert.Equal(t, "Frank Herbert", record.Author)
	assert.Empty(t, record.Error)

	require.NotNil(t, got.Book)
	assert.Equal(t, "Dune", got.Book.Title)
	assert.Equal(t, 604, got.Book.Pages)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got.Book.Categories)
	assert.Equal(t, "https://covers.example/dune.jpg", got.Book.CoverURL)
	assert.Empty(t, got.Book.Status)
}

func TestScanner_FailuresAreRecorded(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", fmt.Errorf("%w: 123", ErrNotFound), "book not found"},
		{"invalid", fmt.Errorf("%w: \"x\"", ErrInvalidISBN), "invalid ISBN"},
		{"other", errors.New("connection refused"), "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewScanner(stubLookup{err: tt.err}).Scan(context.Background(), "9780000000002")
			require.NoError(t, err)

			assert.False(t, got.Action.Record.Success)
			assert.Equal(t, tt.want, got.Action.Record.Error)
			assert.Equal(t, "9780000000002", got.Action.Record.ISBN)
			assert.Nil(t, got.Book)
		})
	}
}

func TestScanner_Disabled(t *testing.T) {
	got, err := NewScanner(nil).Scan(context.Background(), "9780441013593")
	require.NoError(t, err)
	assert.False(t, got.Action.Record.Success)
	assert.Equal(t, "lookup service disabled", got.Action.Record.Error)
}

func TestScanner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(stubLookup{err: context.Canceled}).Scan(ctx, "9780441013593")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanner_ActionFeedsStore(t *testing.T) {
	scanner := NewScanner(stubLookup{result: &Result{Title: "Dune", ISBN: "9780441013593"}})
	got, err := scanner.Scan(context.Background(), "9780441013593")
	require.NoError(t, err)

	store := library.NewStore(library.NewState())
	state := store.Dispatch(got.Action)

	require.Len(t, state.ScanHistory, 1)
	assert.NotEmpty(t, state.ScanHistory[0].ID)
	assert.False(t, state.ScanHistory[0].Timestamp.IsZero())
	assert.True(t, state.ScanHistory[0].Success)
}
