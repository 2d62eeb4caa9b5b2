package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/settings"
	"github.com/mrlokans/bookshelf/internal/database/snapshots"
	syncrepo "github.com/mrlokans/bookshelf/internal/database/sync"
	"github.com/mrlokans/bookshelf/internal/exporters"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/lookup"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/sessions"
	"github.com/mrlokans/bookshelf/internal/syncengine"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bookshelf v%s", version)

	if cfg.Export.ScheduleEnabled {
		if err := scheduler.ValidateCronSchedule(cfg.Export.Schedule); err != nil {
			log.Fatalf("Invalid EXPORT_SCHEDULE %q: %v", cfg.Export.Schedule, err)
		}
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	remote := snapshots.NewRepository(db.DB)
	progress := syncrepo.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)

	libraries := services.NewLibraryService(remote, progress, cfg.Legacy.Dir, syncengine.Config{
		Debounce:    cfg.Sync.Debounce,
		PushTimeout: cfg.Sync.PushTimeout,
	})
	if cfg.Legacy.Dir != "" {
		log.Printf("Legacy libraries are read from %s", cfg.Legacy.Dir)
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := sessions.NewManager(sqlDB, cfg.Session)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	var isbnLookup lookup.ISBNLookup
	if cfg.Lookup.Enabled {
		isbnLookup = lookup.NewClient(cfg.Lookup.BaseURL, cfg.Lookup.Timeout, cfg.Lookup.Interval)
	} else {
		log.Printf("ISBN lookup disabled; scans will be recorded as unsuccessful")
	}
	scanner := lookup.NewScanner(isbnLookup)

	libraryExporter := exporters.NewLibraryExporter(remote, exporters.NewJSONExporter(cfg.Export.Dir))

	routerCfg := http_controllers.RouterConfig{
		Database:     db,
		Version:      version,
		Libraries:    libraries,
		Sessions:     sessionManager,
		Scanner:      scanner,
		Progress:     progress,
		Events:       http_controllers.NewEventHub(),
		ExportStatus: settingsRepo,
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewExportLibraryQueue(libraryExporter))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		routerCfg.Tasks = taskClient
	}

	var exportScheduler *scheduler.ExportScheduler
	if cfg.Export.ScheduleEnabled {
		exportScheduler = scheduler.NewExportScheduler(libraryExporter, settingsRepo, cfg.Export.Schedule, cfg.Export.Timeout)
		if err := exportScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start export scheduler: %v", err)
		}
		routerCfg.ExportSchedule = exportScheduler
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		libraries.Shutdown(ctx)
		if exportScheduler != nil {
			exportScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		sessionManager.Close()
	}

	Serve(router, cfg, onShutdown)
}
