package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/migrations"
)

const postgresInsertTask = `INSERT INTO tasks (position, ` + taskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// PostgresTaskRepository stores the collection in PostgreSQL.
// Timestamps are kept at microsecond precision.
type PostgresTaskRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTaskRepository creates a new PostgreSQL task repository.
func NewPostgresTaskRepository(pool *pgxpool.Pool) *PostgresTaskRepository {
	return &PostgresTaskRepository{pool: pool}
}

// EnsureSchema applies the embedded Postgres migrations.
func (r *PostgresTaskRepository) EnsureSchema(ctx context.Context) error {
	return migrations.RunPostgresMigrations(ctx, r.pool)
}

// Load reads every task in saved order. Returns nil, nil before the first Save.
func (r *PostgresTaskRepository) Load(ctx context.Context) ([]task.Task, error) {
	var savedAt time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT saved_at FROM task_collection_state WHERE id = 1`).Scan(&savedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read collection state: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		var (
			t               task.Task
			assignedTo      string
			confirmedBy     *string
			frequency       string
			customFrequency *string
		)
		err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&assignedTo,
			&confirmedBy,
			&frequency,
			&customFrequency,
			&t.Completed,
			&t.DueDate,
			&t.CreatedAt,
			&t.Points,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.AssignedTo = task.Person(assignedTo)
		t.Frequency = task.Frequency(frequency)
		if confirmedBy != nil {
			p := task.Person(*confirmedBy)
			t.ConfirmedBy = &p
		}
		t.CustomFrequency = customFrequency
		t.DueDate = t.DueDate.UTC()
		t.CreatedAt = t.CreatedAt.UTC()
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// Save replaces the stored collection in one transaction using a batch.
func (r *PostgresTaskRepository) Save(ctx context.Context, tasks []task.Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM tasks`)
	for i, t := range tasks {
		var confirmedBy *string
		if t.ConfirmedBy != nil {
			s := string(*t.ConfirmedBy)
			confirmedBy = &s
		}
		batch.Queue(postgresInsertTask,
			i,
			t.ID,
			t.Title,
			t.Description,
			string(t.AssignedTo),
			confirmedBy,
			string(t.Frequency),
			t.CustomFrequency,
			t.Completed,
			t.DueDate,
			t.CreatedAt,
			t.Points,
		)
	}
	batch.Queue(`INSERT INTO task_collection_state (id, saved_at) VALUES (1, now())
		ON CONFLICT (id) DO UPDATE SET saved_at = EXCLUDED.saved_at`)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	return tx.Commit(ctx)
}
