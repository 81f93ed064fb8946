package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

// FileTaskRepository stores the collection as a JSON array in one file.
type FileTaskRepository struct {
	filePath string
	mu       sync.RWMutex
}

// NewFileTaskRepository creates a file-backed repository.
func NewFileTaskRepository(filePath string) *FileTaskRepository {
	return &FileTaskRepository{filePath: filePath}
}

// Path returns the backing file path.
func (r *FileTaskRepository) Path() string {
	return r.filePath
}

// Load reads the collection. Returns nil, nil if the file does not exist.
func (r *FileTaskRepository) Load(ctx context.Context) ([]task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.filePath, err)
	}
	return UnmarshalTasks(data)
}

// Save writes the collection to a temp file and renames it into place.
func (r *FileTaskRepository) Save(ctx context.Context, tasks []task.Task) error {
	data, err := MarshalTasks(tasks)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Dir(r.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tasks-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, r.filePath)
}
