package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/exporters"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/lookup"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/utils"
)

// ISBNScanner turns an ISBN into an ADD_SCAN action.
type ISBNScanner interface {
	Scan(ctx context.Context, isbn string) (lookup.ScanResult, error)
}

// LibraryController exposes the open library of the session user.
type LibraryController struct {
	scanner ISBNScanner
}

func NewLibraryController(scanner ISBNScanner) *LibraryController {
	return &LibraryController{scanner: scanner}
}

// GetState handles GET /api/library
func (lc *LibraryController) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, librarySession(c).Store.State())
}

// ListBooks handles GET /api/library/books?status=
func (lc *LibraryController) ListBooks(c *gin.Context) {
	state := librarySession(c).Store.State()

	raw := c.Query("status")
	if raw == "" {
		c.JSON(http.StatusOK, gin.H{"books": state.Books, "total": len(state.Books)})
		return
	}

	status := entities.BookStatus(raw)
	if !status.Valid() {
		respondBadRequest(c, fmt.Sprintf("invalid status %q", raw))
		return
	}
	books := state.BooksWithStatus(status)
	c.JSON(http.StatusOK, gin.H{"books": books, "total": len(books)})
}

// ListSagas handles GET /api/library/sagas
func (lc *LibraryController) ListSagas(c *gin.Context) {
	state := librarySession(c).Store.State()
	c.JSON(http.StatusOK, gin.H{"sagas": state.Sagas, "total": len(state.Sagas)})
}

// Dispatch handles POST /api/library/actions with a {"type","payload"} body.
func (lc *LibraryController) Dispatch(c *gin.Context) {
	var envelope library.Envelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		respondBadRequest(c, "invalid action body")
		return
	}

	action, err := envelope.Decode()
	if err != nil {
		if errors.Is(err, library.ErrUnknownAction) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "unknown_action"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_payload"})
		return
	}

	c.JSON(http.StatusOK, librarySession(c).Dispatch(action))
}

// Purchase handles POST /api/library/purchase
func (lc *LibraryController) Purchase(c *gin.Context) {
	state, err := librarySession(c).Purchase()
	switch {
	case errors.Is(err, services.ErrInsufficientPoints):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   err.Error(),
			Code:    "insufficient_points",
			Details: gin.H{"currentPoints": state.CurrentPoints, "cost": state.Config.PurchasePrice()},
		})
	case errors.Is(err, services.ErrPointsDisabled):
		respondConflict(c, "points_disabled", err.Error())
	case err != nil:
		respondInternalError(c, err, "purchase")
	default:
		c.JSON(http.StatusOK, state)
	}
}

type scanRequest struct {
	ISBN string `json:"isbn" binding:"required"`
}

// ScanResponse carries the state after ADD_SCAN and, for a successful
// lookup, the book ready to be added.
type ScanResponse struct {
	Scan  entities.ScanRecord `json:"scan"`
	Book  *entities.Book      `json:"book,omitempty"`
	State library.State       `json:"state"`
}

// Scan handles POST /api/library/scan
func (lc *LibraryController) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ISBN) == "" {
		respondBadRequest(c, "isbn is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := lc.scanner.Scan(ctx, req.ISBN)
	if err != nil {
		respondError(c, http.StatusGatewayTimeout, "lookup cancelled")
		return
	}

	state := librarySession(c).Dispatch(result.Action)
	resp := ScanResponse{Book: result.Book, State: state}
	if len(state.ScanHistory) > 0 {
		resp.Scan = state.ScanHistory[0]
	}
	c.JSON(http.StatusOK, resp)
}

// Export handles GET /api/library/export and downloads the current state
// as a snapshot file.
func (lc *LibraryController) Export(c *gin.Context) {
	session := librarySession(c)
	now := time.Now()
	snap := session.Store.State().Snapshot(now)

	data, err := exporters.MarshalSnapshot(&snap)
	if err != nil {
		respondInternalError(c, err, "marshal snapshot")
		return
	}

	filename := utils.TimestampedFile("", session.UserID, ".json", now)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/json", data)
}

