package persistence

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

// InMemoryRepository keeps the collection in process memory.
type InMemoryRepository struct {
	mu    sync.RWMutex
	tasks []task.Task
	saved bool
	saves int
}

// NewInMemoryRepository creates an empty repository. Seed tasks, if any,
// are treated as previously saved.
func NewInMemoryRepository(seed ...task.Task) *InMemoryRepository {
	r := &InMemoryRepository{}
	if len(seed) > 0 {
		r.tasks = task.CloneAll(seed)
		r.saved = true
	}
	return r
}

// Load returns a copy of the stored collection.
func (r *InMemoryRepository) Load(ctx context.Context) ([]task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.saved {
		return nil, nil
	}
	return task.CloneAll(r.tasks), nil
}

// Save replaces the stored collection.
func (r *InMemoryRepository) Save(ctx context.Context, tasks []task.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = task.CloneAll(tasks)
	r.saved = true
	r.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (r *InMemoryRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
