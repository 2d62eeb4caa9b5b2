package exporters

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/utils"
)

// JSONExporter writes snapshots as indented JSON files, one per export run.
// The output has the same shape IMPORT_DATA accepts.
type JSONExporter struct {
	Dir string
	now func() time.Time
}

func NewJSONExporter(dir string) *JSONExporter {
	return &JSONExporter{Dir: dir, now: time.Now}
}

func (exporter *JSONExporter) ensureDir() error {
	if exporter.Dir == "" {
		return errors.New("export directory is not configured")
	}
	if err := os.MkdirAll(exporter.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return nil
}

// Export writes <dir>/<user>-<timestamp>.json. The file is written to a
// temporary name first and renamed, so a crash never leaves half a file.
func (exporter *JSONExporter) Export(userID string, snapshot *entities.Snapshot) (ExportResult, error) {
	if snapshot == nil {
		return ExportResult{}, errors.New("snapshot is nil")
	}
	if err := exporter.ensureDir(); err != nil {
		return ExportResult{}, err
	}

	data, err := MarshalSnapshot(snapshot)
	if err != nil {
		return ExportResult{}, err
	}

	now := time.Now
	if exporter.now != nil {
		now = exporter.now
	}
	outputPath := utils.TimestampedFile(exporter.Dir, userID, ".json", now())

	tmp, err := os.CreateTemp(exporter.Dir, ".export-*.json")
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return ExportResult{}, fmt.Errorf("failed to write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ExportResult{}, fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return ExportResult{}, fmt.Errorf("failed to move export file into place: %w", err)
	}

	return ExportResult{
		UserID: userID,
		Path:   filepath.Clean(outputPath),
		Books:  len(snapshot.Books),
		Sagas:  len(snapshot.Sagas),
		Scans:  len(snapshot.ScanHistory),
	}, nil
}

// MarshalSnapshot renders a snapshot the way export files store it.
func MarshalSnapshot(snapshot *entities.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}
