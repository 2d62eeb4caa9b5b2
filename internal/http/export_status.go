package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/database/settings"
	"github.com/mrlokans/bookshelf/internal/scheduler"
)

// ExportStatusReader returns the outcome of the last scheduled export.
type ExportStatusReader interface {
	GetExportStatus() settings.ExportStatus
}

// ExportSchedule is the view of the export scheduler the API needs.
type ExportSchedule interface {
	Schedule() string
	IsRunning() bool
	NextRun() *time.Time
	RunNow()
}

// ExportStatusController reports and triggers scheduled exports of every
// stored library.
type ExportStatusController struct {
	status    ExportStatusReader
	scheduler ExportSchedule
}

func NewExportStatusController(status ExportStatusReader, sched ExportSchedule) *ExportStatusController {
	return &ExportStatusController{status: status, scheduler: sched}
}

// ExportStatusResponse combines the persisted last run with the schedule.
type ExportStatusResponse struct {
	settings.ExportStatus
	Enabled     bool       `json:"enabled"`
	Schedule    string     `json:"schedule,omitempty"`
	Description string     `json:"description,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

// Status handles GET /api/export/status
func (ec *ExportStatusController) Status(c *gin.Context) {
	resp := ExportStatusResponse{ExportStatus: ec.status.GetExportStatus()}
	if ec.scheduler != nil {
		resp.Enabled = ec.scheduler.IsRunning()
		resp.Schedule = ec.scheduler.Schedule()
		resp.Description = scheduler.CronDescription(resp.Schedule)
		resp.NextRun = ec.scheduler.NextRun()
	}
	c.JSON(http.StatusOK, resp)
}

// RunNow handles POST /api/export/run-now
func (ec *ExportStatusController) RunNow(c *gin.Context) {
	if ec.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, "scheduled exports are disabled")
		return
	}
	ec.scheduler.RunNow()
	respondAccepted(c, "export of all libraries started", nil)
}
