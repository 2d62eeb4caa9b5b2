package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/syncengine"
)

// ProgressReader returns the persisted outcome of the last push.
type ProgressReader interface {
	GetSyncProgress(userID string) (*entities.SyncProgress, error)
}

// SyncController reports and drives the sync engine of the session user.
type SyncController struct {
	progress ProgressReader
}

func NewSyncController(progress ProgressReader) *SyncController {
	return &SyncController{progress: progress}
}

// SyncStatusResponse combines the live engine view with the persisted
// progress record.
type SyncStatusResponse struct {
	Engine   syncengine.Info        `json:"engine"`
	Progress *entities.SyncProgress `json:"progress,omitempty"`
}

// Status handles GET /api/sync/status
func (sc *SyncController) Status(c *gin.Context) {
	session := librarySession(c)
	resp := SyncStatusResponse{Engine: session.Engine.Info()}

	if sc.progress != nil {
		progress, err := sc.progress.GetSyncProgress(session.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			respondInternalError(c, err, "sync progress")
			return
		}
		resp.Progress = progress
	}

	c.JSON(http.StatusOK, resp)
}

// Push handles POST /api/sync/push
func (sc *SyncController) Push(c *gin.Context) {
	session := librarySession(c)
	err := session.Engine.PushNow(c.Request.Context())
	switch {
	case errors.Is(err, syncengine.ErrNotStarted):
		respondConflict(c, "sync_detached", "library is not attached to the remote store")
	case err != nil:
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "push_failed"})
	default:
		c.JSON(http.StatusOK, SyncStatusResponse{Engine: session.Engine.Info()})
	}
}
