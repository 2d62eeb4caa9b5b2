package http

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/sessions"
)

// contextKeySession is where requireSession stores the open library session.
const contextKeySession = "library_session"

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondConflict(c *gin.Context, code, message string) {
	c.JSON(http.StatusConflict, ErrorResponse{Error: message, Code: code})
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Library Session ---

// LibrarySessions opens and looks up per-user library sessions.
type LibrarySessions interface {
	Open(ctx context.Context, userID string) (*services.Session, error)
	Get(userID string) (*services.Session, bool)
	Close(userID string)
}

// libraryUser returns the user set by sessions.RequireUser.
func libraryUser(c *gin.Context) string {
	return c.GetString(sessions.ContextKeyUserID)
}

// requireSession resolves the library session of the cookie user. A cookie
// that outlived a server restart reopens the library.
func requireSession(libs LibrarySessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := libraryUser(c)
		session, ok := libs.Get(userID)
		if !ok {
			var err error
			session, err = libs.Open(c.Request.Context(), userID)
			if session == nil {
				respondInternalError(c, err, "reopen library")
				c.Abort()
				return
			}
		}
		c.Set(contextKeySession, session)
		c.Next()
	}
}

// librarySession returns the session resolved by requireSession.
func librarySession(c *gin.Context) *services.Session {
	session, _ := c.MustGet(contextKeySession).(*services.Session)
	return session
}
