package entities

import (
	"time"
)

type BookStatus string

const (
	BookStatusTBR       BookStatus = "tbr"
	BookStatusReading   BookStatus = "reading"
	BookStatusRead      BookStatus = "read"
	BookStatusAbandoned BookStatus = "abandoned"
	BookStatusWishlist  BookStatus = "wishlist"
	BookStatusPurchased BookStatus = "purchased"
	BookStatusLoaned    BookStatus = "loaned"
)

// AllBookStatuses lists every lifecycle state in display order.
var AllBookStatuses = []BookStatus{
	BookStatusTBR,
	BookStatusReading,
	BookStatusRead,
	BookStatusAbandoned,
	BookStatusWishlist,
	BookStatusPurchased,
	BookStatusLoaned,
}

func (s BookStatus) Valid() bool {
	for _, known := range AllBookStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type BookFormat string

const (
	BookFormatPhysical  BookFormat = "physical"
	BookFormatDigital   BookFormat = "digital"
	BookFormatAudiobook BookFormat = "audiobook"
)

// StatusEntry is one immutable line of a book's lifecycle audit trail.
type StatusEntry struct {
	Status    BookStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	Message   string     `json:"message,omitempty"`
	Note      string     `json:"note,omitempty"`
}

// Reading is one reading session of a book. Re-reads add more sessions.
type Reading struct {
	ID        int64     `json:"id"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Rating    *float64  `json:"rating,omitempty"`
	Review    string    `json:"review,omitempty"`
	PagesRead int       `json:"pagesRead,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// Book is one library entry. Stored rows are keyed by (UserID, Position)
// since book ids are not guaranteed unique.
type Book struct {
	UserID   string `gorm:"primaryKey;size:128" json:"-"`
	Position int    `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ID       int64  `gorm:"index" json:"id"`

	Title           string     `gorm:"index;size:512" json:"title"`
	Author          string     `gorm:"index;size:256" json:"author,omitempty"`
	Pages           int        `json:"pages,omitempty"`
	ISBN            string     `gorm:"index;size:20" json:"isbn,omitempty"`
	Publisher       string     `gorm:"size:256" json:"publisher,omitempty"`
	PublicationYear int        `json:"publicationYear,omitempty"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	Genre           string     `gorm:"size:128" json:"genre,omitempty"`
	Categories      []string   `gorm:"serializer:json;type:text" json:"categories,omitempty"`
	Language        string     `gorm:"size:32" json:"language,omitempty"`
	Rating          float64    `json:"rating,omitempty"`
	Format          BookFormat `gorm:"size:20" json:"format,omitempty"`
	Location        string     `gorm:"size:256" json:"location,omitempty"`
	Price           float64    `json:"price,omitempty"`

	Status        BookStatus    `gorm:"size:20;index" json:"status"`
	StatusHistory []StatusEntry `gorm:"serializer:json;type:text" json:"statusHistory"`

	// SagaName mirrors the linked saga's name for display and is empty
	// whenever SagaID is nil.
	SagaID   *int64 `gorm:"index" json:"sagaId,omitempty"`
	SagaName string `gorm:"size:256" json:"sagaName,omitempty"`

	Loaned   bool   `json:"loaned"`
	LoanedTo string `gorm:"size:256" json:"loanedTo,omitempty"`

	Readings []Reading `gorm:"serializer:json;type:text" json:"readings,omitempty"`

	CoverURL    string `gorm:"size:2048" json:"coverUrl,omitempty"`
	CustomCover string `gorm:"type:text" json:"customCover,omitempty"` // data URI uploaded by the user
}

// Cover returns the image to display: a user upload always wins over a
// fetched cover.
func (b Book) Cover() string {
	if b.CustomCover != "" {
		return b.CustomCover
	}
	return b.CoverURL
}

// InSaga reports whether the book is linked to the saga with the given id.
func (b Book) InSaga(sagaID int64) bool {
	return b.SagaID != nil && *b.SagaID == sagaID
}

type Saga struct {
	UserID      string `gorm:"primaryKey;size:128" json:"-"`
	Position    int    `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ID          int64  `gorm:"index" json:"id"`
	Name        string `gorm:"size:256" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Genre       string `gorm:"size:128" json:"genre,omitempty"`
	Author      string `gorm:"size:256" json:"author,omitempty"`

	// Derived from the book collection on every mutation.
	Count      int  `json:"count"`
	IsComplete bool `json:"isComplete"`
}

// ScanRecord is one barcode/ISBN lookup attempt.
type ScanRecord struct {
	UserID    string    `gorm:"primaryKey;size:128" json:"-"`
	Position  int       `gorm:"primaryKey;autoIncrement:false" json:"-"` // 0 is newest
	ID        string    `gorm:"index;size:64" json:"id"`
	ISBN      string    `gorm:"size:20" json:"isbn"`
	Title     string    `gorm:"size:512" json:"title,omitempty"`
	Author    string    `gorm:"size:256" json:"author,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

func (Saga) TableName() string {
	return "sagas"
}

func (ScanRecord) TableName() string {
	return "scan_records"
}
