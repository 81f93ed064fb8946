package task

import "context"

// Repository persists the whole task collection.
// Load returns (nil, nil) when nothing has been saved yet.
// Save overwrites everything previously stored.
type Repository interface {
	Load(ctx context.Context) ([]Task, error)
	Save(ctx context.Context, tasks []Task) error
}
