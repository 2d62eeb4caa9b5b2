package interfaces

// Compile-time interface implementation checks.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/settings"
	"github.com/mrlokans/bookshelf/internal/database/snapshots"
	"github.com/mrlokans/bookshelf/internal/database/sync"
	"github.com/mrlokans/bookshelf/internal/exporters"
	"github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/legacy"
	"github.com/mrlokans/bookshelf/internal/lookup"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/sessions"
	"github.com/mrlokans/bookshelf/internal/syncengine"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// =============================================================================
// Sync Engine
// =============================================================================

var _ syncengine.RemoteStore = (*snapshots.Repository)(nil)
var _ syncengine.ProgressRecorder = (*sync.Repository)(nil)
var _ syncengine.LegacyStorage = (*legacy.FileStorage)(nil)

// =============================================================================
// Exports
// =============================================================================

var _ exporters.SnapshotSource = (*snapshots.Repository)(nil)
var _ exporters.SnapshotExporter = (*exporters.JSONExporter)(nil)
var _ tasks.UserExporter = (*exporters.LibraryExporter)(nil)
var _ scheduler.LibrariesExporter = (*exporters.LibraryExporter)(nil)
var _ scheduler.StatusStore = (*settings.Repository)(nil)

// =============================================================================
// External Services
// =============================================================================

var _ lookup.ISBNLookup = (*lookup.Client)(nil)

// =============================================================================
// HTTP Dependencies
// =============================================================================

var _ http.Pinger = (*database.Database)(nil)
var _ http.LibrarySessions = (*services.LibraryService)(nil)
var _ http.CookieSessions = (*sessions.Manager)(nil)
var _ http.ISBNScanner = (*lookup.Scanner)(nil)
var _ http.ProgressReader = (*sync.Repository)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.ExportStatusReader = (*settings.Repository)(nil)
var _ http.ExportSchedule = (*scheduler.ExportScheduler)(nil)
