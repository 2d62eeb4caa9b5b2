package lookup

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
)

const maxCategories = 5

// ISBNLookup resolves an ISBN to metadata.
type ISBNLookup interface {
	LookupISBN(ctx context.Context, isbn string) (*Result, error)
}

// ScanResult is what a scan produces: the ADD_SCAN action to dispatch and,
// when the lookup succeeded, a book payload ready for ADD_BOOK.
type ScanResult struct {
	Action library.AddScan `json:"action"`
	Book   *entities.Book  `json:"book,omitempty"`
}

// Scanner turns captured ISBNs into scan records. Capturing the barcode
// itself happens on the client.
type Scanner struct {
	lookup ISBNLookup
}

func NewScanner(lookup ISBNLookup) *Scanner {
	return &Scanner{lookup: lookup}
}

// Scan looks the ISBN up. Lookup failures are not errors: they are recorded
// in the scan history as unsuccessful scans. Only a cancelled context is
// returned as an error.
func (s *Scanner) Scan(ctx context.Context, isbn string) (ScanResult, error) {
	isbn = strings.TrimSpace(isbn)
	record := entities.ScanRecord{ISBN: isbn}

	if s.lookup == nil {
		record.Error = "lookup service disabled"
		return ScanResult{Action: library.AddScan{Record: record}}, nil
	}

	result, err := s.lookup.LookupISBN(ctx, isbn)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ScanResult{}, ctxErr
		}
		log.Printf("Scanner: lookup of %q failed: %v", isbn, err)
		record.Error = scanError(err)
		return ScanResult{Action: library.AddScan{Record: record}}, nil
	}

	record.ISBN = result.ISBN
	record.Title = result.Title
	record.Author = result.Author
	record.Success = true

	return ScanResult{
		Action: library.AddScan{Record: record},
		Book:   result.Book(),
	}, nil
}

func scanError(err error) string {
	switch {
	case errors.Is(err, ErrInvalidISBN):
		return "invalid ISBN"
	case errors.Is(err, ErrNotFound):
		return "book not found"
	default:
		return err.Error()
	}
}

// Book converts the metadata into an ADD_BOOK payload. Id and status are
// left for the caller.
func (r *Result) Book() *entities.Book {
	book := &entities.Book{
		Title:           r.Title,
		Author:          r.Author,
		ISBN:            r.ISBN,
		Pages:           r.Pages,
		Publisher:       r.Publisher,
		PublicationYear: r.PublicationYear,
		Description:     r.Description,
		CoverURL:        r.CoverURL,
	}
	if len(r.Subjects) > 0 {
		n := min(len(r.Subjects), maxCategories)
		book.Categories = append([]string(nil), r.Subjects[:n]...)
	}
	return book
}
