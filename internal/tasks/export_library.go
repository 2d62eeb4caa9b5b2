package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/exporters"
)

// UserExporter exports the persisted library of one user.
type UserExporter interface {
	ExportUser(ctx context.Context, userID string) (exporters.ExportResult, error)
}

// ExportLibraryTask writes one user's persisted library to the export
// directory.
type ExportLibraryTask struct {
	UserID string `json:"user_id"`
}

// Config returns the queue configuration for library export tasks.
func (t ExportLibraryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "export_library",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExportLibraryProcessor creates a processor function for ExportLibraryTask.
func ExportLibraryProcessor(exporter UserExporter) backlite.QueueProcessor[ExportLibraryTask] {
	return func(ctx context.Context, task ExportLibraryTask) error {
		if exporter == nil {
			return fmt.Errorf("library exporter not configured")
		}
		if task.UserID == "" {
			return fmt.Errorf("export task without user")
		}

		result, err := exporter.ExportUser(ctx, task.UserID)
		if err != nil {
			return fmt.Errorf("export library of %s: %w", task.UserID, err)
		}

		log.Printf("[TASK] Exported library of %s (%d books) to %s", task.UserID, result.Books, result.Path)
		return nil
	}
}

// NewExportLibraryQueue creates a backlite queue for library exports.
func NewExportLibraryQueue(exporter UserExporter) backlite.Queue {
	return backlite.NewQueue(ExportLibraryProcessor(exporter))
}
