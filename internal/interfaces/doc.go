// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Sync Engine
//
//   - RemoteStore: whole-snapshot persistence per user (internal/syncengine/engine.go)
//   - ProgressRecorder: durable push outcomes (internal/syncengine/engine.go)
//   - LegacyStorage: the pre-sync local blob (internal/syncengine/engine.go)
//
// ## Exports
//
//   - SnapshotSource: stored snapshots to export (internal/exporters/library.go)
//   - SnapshotExporter: writes one snapshot somewhere (internal/exporters/generic.go)
//   - UserExporter: what the export_library task runs (internal/tasks/export_library.go)
//   - LibrariesExporter, StatusStore: the cron export job (internal/scheduler/export.go)
//
// ## External Services
//
//   - ISBNLookup: book metadata by ISBN (internal/lookup/scanner.go)
//
// ## HTTP
//
// Each controller declares the narrow interface it needs (LibrarySessions,
// CookieSessions, ISBNScanner, ProgressReader, TaskQueue, ...).
//
// # Adding a New Snapshot Exporter
//
//  1. Implement SnapshotExporter in internal/exporters/
//
//     type CSVExporter struct {
//         Dir string
//     }
//
//     func (e *CSVExporter) Export(userID string, snapshot *entities.Snapshot) (ExportResult, error)
//
//  2. Hand it to exporters.NewLibraryExporter in entrypoint.go
//
// # Adding a New Metadata Provider
//
//  1. Implement ISBNLookup in internal/lookup/
//
//     func (c *GoogleBooksClient) LookupISBN(ctx context.Context, isbn string) (*Result, error)
//
//  2. Pass it to lookup.NewScanner in entrypoint.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
