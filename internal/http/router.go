package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/sessions"
)

// RouterConfig holds every dependency of the router. Optional parts are
// skipped when nil.
type RouterConfig struct {
	Database Pinger
	Version  string

	Libraries LibrarySessions
	Sessions  *sessions.Manager
	Scanner   ISBNScanner
	Progress  ProgressReader
	Tasks     TaskQueue // optional
	Events    *EventHub // optional

	ExportStatus   ExportStatusReader // optional
	ExportSchedule ExportSchedule     // optional
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	healthController := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", healthController.Status)

	api := router.Group("/api")
	api.Use(cfg.Sessions.LoadSave())

	sessionController := NewSessionController(cfg.Libraries, cfg.Sessions)
	api.POST("/session", sessionController.Open)
	api.DELETE("/session", sessionController.Close)

	authed := api.Group("")
	authed.Use(cfg.Sessions.RequireUser(), requireSession(cfg.Libraries))

	libraryController := NewLibraryController(cfg.Scanner)
	authed.GET("/library", libraryController.GetState)
	authed.GET("/library/books", libraryController.ListBooks)
	authed.GET("/library/sagas", libraryController.ListSagas)
	authed.POST("/library/actions", libraryController.Dispatch)
	authed.POST("/library/purchase", libraryController.Purchase)
	authed.POST("/library/scan", libraryController.Scan)
	authed.GET("/library/export", libraryController.Export)

	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks)
		authed.POST("/library/export/run", tasksController.RunExport)
		authed.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	if cfg.Events != nil {
		authed.GET("/library/events", EventsHandler(cfg.Events))
	}

	if cfg.ExportStatus != nil {
		exportController := NewExportStatusController(cfg.ExportStatus, cfg.ExportSchedule)
		authed.GET("/export/status", exportController.Status)
		authed.POST("/export/run-now", exportController.RunNow)
	}

	syncController := NewSyncController(cfg.Progress)
	authed.GET("/sync/status", syncController.Status)
	authed.POST("/sync/push", syncController.Push)

	return router
}
