// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── snapshots/       # Per-user library snapshots (the sync remote store)
//	├── sync/            # Sync progress tracking
//	└── settings/        # Application settings
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./bookshelf.db")
//
//	// Create domain-specific repositories
//	libraries := snapshots.NewRepository(db.DB)
//	progress := sync.NewRepository(db.DB)
//
//	// Use repositories
//	snap, err := libraries.LoadAll(ctx, userID)
//
// # Interface Implementations
//
//   - snapshots.Repository: implements syncengine.RemoteStore
//   - sync.Repository: implements syncengine.ProgressRecorder
//   - settings.Repository: implements scheduler.StatusStore
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
