package exporters

import "github.com/mrlokans/bookshelf/internal/entities"

// SnapshotExporter writes one user's library snapshot somewhere.
type SnapshotExporter interface {
	Export(userID string, snapshot *entities.Snapshot) (ExportResult, error)
}

type ExportResult struct {
	UserID string `json:"user_id"`
	Path   string `json:"path"`
	Books  int    `json:"books"`
	Sagas  int    `json:"sagas"`
	Scans  int    `json:"scans"`
}
