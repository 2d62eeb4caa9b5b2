package legacy

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// FileStorage is the local, single-blob store the library lived in before
// it was synced remotely.
type FileStorage struct {
	Path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

// Read returns the stored blob, or nil when nothing was ever stored.
func (s *FileStorage) Read() ([]byte, error) {
	if s.Path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy library %s: %w", s.Path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}
