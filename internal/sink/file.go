package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend writes one JSON file per journey into a directory
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) Name() string {
	return "file"
}

func (f *FileBackend) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Store writes through a temp file and renames it into place, so a reader
// never sees a partial document.
func (f *FileBackend) Store(ctx context.Context, key string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := f.Path(key)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	_, writeErr := file.Write(doc)
	closeErr := file.Close()
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return closeErr
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return nil
}
