// Package lookup resolves ISBNs to book metadata and turns scans into
// library actions.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBaseURL = "https://openlibrary.org"
	coversBaseURL  = "https://covers.openlibrary.org"
	userAgent      = "Bookshelf/1.0 (https://github.com/mrlokans/bookshelf)"
)

var (
	ErrInvalidISBN = errors.New("invalid ISBN")
	ErrNotFound    = errors.New("ISBN not found")
)

// Result is the metadata found for one ISBN.
type Result struct {
	Title           string   `json:"title,omitempty"`
	Author          string   `json:"author,omitempty"`
	ISBN            string   `json:"isbn,omitempty"`
	CoverURL        string   `json:"coverUrl,omitempty"`
	Publisher       string   `json:"publisher,omitempty"`
	PublicationYear int      `json:"publicationYear,omitempty"`
	Description     string   `json:"description,omitempty"`
	Subjects        []string `json:"subjects,omitempty"`
	Pages           int      `json:"pages,omitempty"`
}

// Client fetches book metadata from the OpenLibrary API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

// wait blocks until the next call is allowed or ctx is done.
func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if since := time.Since(r.lastCall); since < r.interval {
		timer := time.NewTimer(r.interval - since)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.lastCall = time.Now()
	return nil
}

// NewClient creates an OpenLibrary client allowing one request per
// interval. An empty baseURL uses the public API.
func NewClient(baseURL string, timeout, interval time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: newRateLimiter(interval),
	}
}

// LookupISBN looks up a book by its ISBN-10 or ISBN-13.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*Result, error) {
	normalized := NormalizeISBN(isbn)
	if normalized == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidISBN, isbn)
	}

	var book openLibraryBook
	if err := c.getJSON(ctx, fmt.Sprintf("%s/isbn/%s.json", c.baseURL, normalized), &book); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, normalized)
		}
		return nil, fmt.Errorf("fetch ISBN data: %w", err)
	}

	result := convertBook(&book, normalized)

	if len(book.Authors) > 0 {
		var author struct {
			Name string `json:"name"`
		}
		if err := c.getJSON(ctx, c.baseURL+book.Authors[0].Key+".json", &author); err == nil {
			result.Author = author.Name
		}
	}

	return result, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func convertBook(book *openLibraryBook, isbn string) *Result {
	result := &Result{
		Title:    book.Title,
		ISBN:     isbn,
		Pages:    book.NumberOfPages,
		CoverURL: fmt.Sprintf("%s/b/isbn/%s-L.jpg", coversBaseURL, isbn),
	}

	if book.PublishDate != "" {
		result.PublicationYear = extractYear(book.PublishDate)
	}
	if len(book.Publishers) > 0 {
		result.Publisher = book.Publishers[0]
	}

	// description is either a plain string or {type, value}
	switch v := book.Description.(type) {
	case string:
		result.Description = v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			result.Description = val
		}
	}

	if len(book.Subjects) > 0 {
		result.Subjects = book.Subjects
		if len(result.Subjects) > 10 {
			result.Subjects = result.Subjects[:10]
		}
	}

	return result
}

// NormalizeISBN strips hyphens and spaces. It returns "" unless the result
// is a ten or thirteen character ISBN.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.ToUpper(strings.TrimSpace(isbn))

	switch len(isbn) {
	case 13:
		if strings.Trim(isbn, "0123456789") != "" {
			return ""
		}
	case 10:
		// ISBN-10 check digit may be X
		if strings.Trim(isbn[:9], "0123456789") != "" || strings.Trim(isbn[9:], "0123456789X") != "" {
			return ""
		}
	default:
		return ""
	}

	return isbn
}

// extractYear tries to extract a 4-digit year from a date string.
func extractYear(dateStr string) int {
	dateStr = strings.TrimSpace(dateStr)
	if len(dateStr) < 4 {
		return 0
	}

	formats := []string{
		"2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2006-01-02",
		"January 2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Year()
		}
	}

	// Last resort: find 4 consecutive digits
	for i := 0; i <= len(dateStr)-4; i++ {
		if dateStr[i] >= '0' && dateStr[i] <= '9' {
			var year int
			if _, err := fmt.Sscanf(dateStr[i:i+4], "%d", &year); err == nil && year > 1000 && year < 3000 {
				return year
			}
		}
	}

	return 0
}

type openLibraryBook struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Authors       []authorRef `json:"authors"`
	Publishers    []string    `json:"publishers"`
	PublishDate   string      `json:"publish_date"`
	NumberOfPages int         `json:"number_of_pages"`
	Description   any         `json:"description"`
	Subjects      []string    `json:"subjects"`
}

type authorRef struct {
	Key string `json:"key"`
}
