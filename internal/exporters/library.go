package exporters

import (
	"context"
	"fmt"
	"log"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// SnapshotSource is the read side of the remote store.
type SnapshotSource interface {
	LoadAll(ctx context.Context, userID string) (*entities.Snapshot, error)
	ListUsers(ctx context.Context) ([]string, error)
}

// LibraryExporter exports persisted libraries straight from the database.
type LibraryExporter struct {
	source   SnapshotSource
	exporter SnapshotExporter
}

func NewLibraryExporter(source SnapshotSource, exporter SnapshotExporter) *LibraryExporter {
	return &LibraryExporter{source: source, exporter: exporter}
}

// ExportUser exports the last persisted snapshot of userID.
func (e *LibraryExporter) ExportUser(ctx context.Context, userID string) (ExportResult, error) {
	snapshot, err := e.source.LoadAll(ctx, userID)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to load library of %s: %w", userID, err)
	}

	result, err := e.exporter.Export(userID, snapshot)
	if err != nil {
		return result, fmt.Errorf("failed to export library of %s: %w", userID, err)
	}

	log.Printf("Export: wrote %d books and %d sagas of %s to %s", result.Books, result.Sagas, userID, result.Path)
	return result, nil
}

// ExportAll exports every stored library. A failing user does not stop the
// run; the first error is returned together with the successful results.
func (e *LibraryExporter) ExportAll(ctx context.Context) ([]ExportResult, error) {
	users, err := e.source.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}

	var (
		results  []ExportResult
		firstErr error
	)
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := e.ExportUser(ctx, userID)
		if err != nil {
			log.Printf("Export: %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		results = append(results, result)
	}

	return results, firstErr
}
