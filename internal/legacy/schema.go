package legacy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Blob is the pre-unification library: one list per shelf instead of a
// single book list with a status field.
type Blob struct {
	TBR         []Book `json:"tbr"`
	CurrentBook *Book  `json:"currentBook"`
	History     []Book `json:"history"`
	Wishlist    []Book `json:"wishlist"`

	Sagas         []entities.Saga   `json:"sagas"`
	Config        entities.Settings `json:"config"`
	ScanHistory   []ScanRecord      `json:"scanHistory"`
	SearchHistory []string          `json:"searchHistory"`

	CurrentPoints            int `json:"currentPoints"`
	TotalEarned              int `json:"totalEarned"`
	BooksPurchasedWithPoints int `json:"booksPurchasedWithPoints"`
}

type Book struct {
	ID         FlexibleID `json:"id"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Pages      int        `json:"pages"`
	ISBN       string     `json:"isbn"`
	Cover      string     `json:"cover"`
	Genre      string     `json:"genre"`
	SagaID     *int64     `json:"sagaId"`
	SagaName   string     `json:"sagaName"`
	AddedAt    Timestamp  `json:"addedAt"`
	StartedAt  Timestamp  `json:"startedAt"`
	FinishedAt Timestamp  `json:"finishedAt"`
	Abandoned  bool       `json:"abandoned"`
	Rating     float64    `json:"rating"`
	Review     string     `json:"review"`
}

type ScanRecord struct {
	ID        FlexibleID `json:"id"`
	ISBN      string     `json:"isbn"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Timestamp Timestamp  `json:"timestamp"`
	Success   bool       `json:"success"`
	Error     string     `json:"error"`
}

// FlexibleID accepts ids stored either as JSON numbers or as strings.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or a string: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

// Int64 returns the numeric value of the id, or 0 when it is not numeric.
func (id FlexibleID) Int64() int64 {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(id), 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return n
}

// Timestamp accepts RFC 3339 strings, plain dates and epoch milliseconds.
// Anything empty decodes to the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}

	if data[0] != '"' {
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", data, err)
		}
		ts.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time)
}
