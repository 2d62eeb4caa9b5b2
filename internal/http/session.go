package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/syncengine"
)

// CookieSessions binds a browser session to a library user.
type CookieSessions interface {
	Begin(ctx context.Context, userID string) error
	End(ctx context.Context) error
	UserID(ctx context.Context) string
}

// SessionController handles login into and logout from a library.
type SessionController struct {
	libs    LibrarySessions
	cookies CookieSessions
}

func NewSessionController(libs LibrarySessions, cookies CookieSessions) *SessionController {
	return &SessionController{libs: libs, cookies: cookies}
}

type openSessionRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// SessionResponse describes the opened library.
type SessionResponse struct {
	UserID  string          `json:"user_id"`
	Sync    syncengine.Info `json:"sync"`
	Warning string          `json:"warning,omitempty"`
}

// Open handles POST /api/session.
// A library whose sync failed to start is still opened; the failure is
// reported in the warning field.
func (sc *SessionController) Open(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "user_id is required")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		respondBadRequest(c, "user_id is required")
		return
	}

	ctx := c.Request.Context()
	session, startErr := sc.libs.Open(ctx, userID)
	if session == nil {
		respondInternalError(c, startErr, "open library")
		return
	}

	if err := sc.cookies.Begin(ctx, userID); err != nil {
		respondInternalError(c, err, "begin session")
		return
	}

	resp := SessionResponse{UserID: userID, Sync: session.Engine.Info()}
	if startErr != nil {
		resp.Warning = startErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// Close handles DELETE /api/session.
func (sc *SessionController) Close(c *gin.Context) {
	ctx := c.Request.Context()
	if userID := sc.cookies.UserID(ctx); userID != "" {
		sc.libs.Close(userID)
	}
	if err := sc.cookies.End(ctx); err != nil {
		respondInternalError(c, err, "end session")
		return
	}
	respondSuccess(c, "logged out")
}
