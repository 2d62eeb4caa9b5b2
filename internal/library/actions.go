package library

import (
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Action is a single library mutation. Actions are plain values; Apply is
// the only thing that gives them meaning.
type Action interface {
	// Type returns the wire name of the action.
	Type() string
}

// preparer is implemented by actions that need a clock reading or a fresh
// identifier. The Store fills those in before reducing so Apply stays pure.
type preparer interface {
	prepare(now time.Time) Action
}

const (
	TypeAddBook             = "ADD_BOOK"
	TypeUpdateBook          = "UPDATE_BOOK"
	TypeDeleteBook          = "DELETE_BOOK"
	TypeChangeBookState     = "CHANGE_BOOK_STATE"
	TypeAddSaga             = "ADD_SAGA"
	TypeUpdateSaga          = "UPDATE_SAGA"
	TypeDeleteSaga          = "DELETE_SAGA"
	TypeLinkBookSaga        = "LINK_BOOK_SAGA"
	TypeUnlinkBookSaga      = "UNLINK_BOOK_SAGA"
	TypeAddScan             = "ADD_SCAN"
	TypeClearScanHistory    = "CLEAR_SCAN_HISTORY"
	TypeAddSearch           = "ADD_SEARCH"
	TypeClearSearchHistory  = "CLEAR_SEARCH_HISTORY"
	TypeImportData          = "IMPORT_DATA"
	TypeUpdateConfig        = "UPDATE_CONFIG"
	TypeEarnPoints          = "EARN_POINTS"
	TypeSpendPoints         = "SPEND_POINTS"
	TypePurchaseWithPoints  = "PURCHASE_WITH_POINTS"
	TypeResetPoints         = "RESET_POINTS"
	TypeAddReading          = "ADD_READING"
	TypeDeleteReading       = "DELETE_READING"
	TypeLoanBook            = "LOAN_BOOK"
	TypeReturnBook          = "RETURN_BOOK"
	TypePushNotification    = "PUSH_NOTIFICATION"
	TypeDismissNotification = "DISMISS_NOTIFICATION"
)

// AddBook inserts a book. When the book carries a SagaName but no SagaID it
// is linked to the saga of that name, which is created if missing. NewSagaID
// is the id to give such a saga; zero means one past the highest saga id.
type AddBook struct {
	Book      entities.Book `json:"book"`
	NewSagaID int64         `json:"newSagaId,omitempty"`
	At        time.Time     `json:"at,omitempty"`
}

// BookPatch lists the book fields an update may touch. Nil means unchanged.
type BookPatch struct {
	Title           *string              `json:"title,omitempty"`
	Author          *string              `json:"author,omitempty"`
	Pages           *int                 `json:"pages,omitempty"`
	ISBN            *string              `json:"isbn,omitempty"`
	Publisher       *string              `json:"publisher,omitempty"`
	PublicationYear *int                 `json:"publicationYear,omitempty"`
	Description     *string              `json:"description,omitempty"`
	Genre           *string              `json:"genre,omitempty"`
	Categories      *[]string            `json:"categories,omitempty"`
	Language        *string              `json:"language,omitempty"`
	Rating          *float64             `json:"rating,omitempty"`
	Format          *entities.BookFormat `json:"format,omitempty"`
	Location        *string              `json:"location,omitempty"`
	Price           *float64             `json:"price,omitempty"`
	Status          *entities.BookStatus `json:"status,omitempty"`
	CoverURL        *string              `json:"coverUrl,omitempty"`
	CustomCover     *string              `json:"customCover,omitempty"`
}

type UpdateBook struct {
	ID    int64     `json:"id"`
	Patch BookPatch `json:"patch"`
	At    time.Time `json:"at,omitempty"`
}

type DeleteBook struct {
	ID int64 `json:"id"`
}

type ChangeBookState struct {
	ID       int64               `json:"id"`
	NewState entities.BookStatus `json:"newState"`
	Note     string              `json:"note,omitempty"`
	At       time.Time           `json:"at,omitempty"`
}

type AddSaga struct {
	Saga entities.Saga `json:"saga"`
}

type SagaPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Genre       *string `json:"genre,omitempty"`
	Author      *string `json:"author,omitempty"`
}

type UpdateSaga struct {
	ID    int64     `json:"id"`
	Patch SagaPatch `json:"patch"`
}

type DeleteSaga struct {
	ID int64 `json:"id"`
}

type LinkBookToSaga struct {
	BookID int64 `json:"bookId"`
	SagaID int64 `json:"sagaId"`
}

type UnlinkBookFromSaga struct {
	BookID int64 `json:"bookId"`
}

type AddScan struct {
	Record entities.ScanRecord `json:"record"`
}

type ClearScanHistory struct{}

type AddSearch struct {
	Term string `json:"term"`
}

type ClearSearchHistory struct{}

// ImportData replaces state fields with the ones present in the payload and
// keeps the existing value for every absent field. Config is merged.
type ImportData struct {
	Books         *[]entities.Book       `json:"books,omitempty"`
	Sagas         *[]entities.Saga       `json:"sagas,omitempty"`
	Config        *entities.Settings     `json:"config,omitempty"`
	ScanHistory   *[]entities.ScanRecord `json:"scanHistory,omitempty"`
	SearchHistory *[]string              `json:"searchHistory,omitempty"`

	CurrentPoints            *int `json:"currentPoints,omitempty"`
	TotalEarned              *int `json:"totalEarned,omitempty"`
	BooksPurchasedWithPoints *int `json:"booksPurchasedWithPoints,omitempty"`
}

type UpdateConfig struct {
	Patch entities.Settings `json:"patch"`
}

type EarnPoints struct {
	Amount int `json:"amount"`
}

type SpendPoints struct {
	Amount int `json:"amount"`
}

// PurchaseWithPoints spends the configured purchase cost. Callers check
// Ledger.CanAfford first; the ledger only clamps.
type PurchaseWithPoints struct{}

type ResetPoints struct{}

type AddReading struct {
	BookID  int64            `json:"bookId"`
	Reading entities.Reading `json:"reading"`
}

type DeleteReading struct {
	BookID    int64 `json:"bookId"`
	ReadingID int64 `json:"readingId"`
}

type LoanBook struct {
	BookID int64  `json:"bookId"`
	To     string `json:"to"`
}

type ReturnBook struct {
	BookID int64 `json:"bookId"`
}

type PushNotification struct {
	Notification Notification `json:"notification"`
}

type DismissNotification struct {
	ID string `json:"id"`
}

func (AddBook) Type() string             { return TypeAddBook }
func (UpdateBook) Type() string          { return TypeUpdateBook }
func (DeleteBook) Type() string          { return TypeDeleteBook }
func (ChangeBookState) Type() string     { return TypeChangeBookState }
func (AddSaga) Type() string             { return TypeAddSaga }
func (UpdateSaga) Type() string          { return TypeUpdateSaga }
func (DeleteSaga) Type() string          { return TypeDeleteSaga }
func (LinkBookToSaga) Type() string      { return TypeLinkBookSaga }
func (UnlinkBookFromSaga) Type() string  { return TypeUnlinkBookSaga }
func (AddScan) Type() string             { return TypeAddScan }
func (ClearScanHistory) Type() string    { return TypeClearScanHistory }
func (AddSearch) Type() string           { return TypeAddSearch }
func (ClearSearchHistory) Type() string  { return TypeClearSearchHistory }
func (ImportData) Type() string          { return TypeImportData }
func (UpdateConfig) Type() string        { return TypeUpdateConfig }
func (EarnPoints) Type() string          { return TypeEarnPoints }
func (SpendPoints) Type() string         { return TypeSpendPoints }
func (PurchaseWithPoints) Type() string  { return TypePurchaseWithPoints }
func (ResetPoints) Type() string         { return TypeResetPoints }
func (AddReading) Type() string          { return TypeAddReading }
func (DeleteReading) Type() string       { return TypeDeleteReading }
func (LoanBook) Type() string            { return TypeLoanBook }
func (ReturnBook) Type() string          { return TypeReturnBook }
func (PushNotification) Type() string    { return TypePushNotification }
func (DismissNotification) Type() string { return TypeDismissNotification }

func (a AddBook) prepare(now time.Time) Action {
	if a.At.IsZero() {
		a.At = now
	}
	return a
}

func (a UpdateBook) prepare(now time.Time) Action {
	if a.At.IsZero() {
		a.At = now
	}
	return a
}

func (a ChangeBookState) prepare(now time.Time) Action {
	if a.At.IsZero() {
		a.At = now
	}
	return a
}

func (a AddScan) prepare(now time.Time) Action {
	if a.Record.ID == "" {
		a.Record.ID = uuid.NewString()
	}
	if a.Record.Timestamp.IsZero() {
		a.Record.Timestamp = now
	}
	return a
}

func (a PushNotification) prepare(time.Time) Action {
	if a.Notification.ID == "" {
		a.Notification.ID = uuid.NewString()
	}
	if a.Notification.Kind == "" {
		a.Notification.Kind = NotificationInfo
	}
	return a
}
