package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

const (
	taskColumns = `id, title, description, assigned_to, confirmed_by, frequency,
		custom_frequency, completed, due_date, created_at, points`

	sqliteInsertTask = `INSERT INTO tasks (position, ` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// SQLiteTaskRepository stores the collection in the tasks table.
// Row order is kept in the position column.
type SQLiteTaskRepository struct {
	dbConn *sql.DB
	now    func() time.Time
}

// NewSQLiteTaskRepository creates a new SQLite task repository.
// The schema must already be migrated.
func NewSQLiteTaskRepository(dbConn *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{dbConn: dbConn, now: time.Now}
}

// Load reads every task in saved order. Returns nil, nil before the first Save.
func (r *SQLiteTaskRepository) Load(ctx context.Context) ([]task.Task, error) {
	var savedAt string
	err := r.dbConn.QueryRowContext(ctx,
		`SELECT saved_at FROM task_collection_state WHERE id = 1`).Scan(&savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read collection state: %w", err)
	}

	rows, err := r.dbConn.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		t, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// Save replaces the stored collection in one transaction.
func (r *SQLiteTaskRepository) Save(ctx context.Context, tasks []task.Task) error {
	tx, err := r.dbConn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, sqliteInsertTask)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		var completed int64
		if t.Completed {
			completed = 1
		}
		_, err := stmt.ExecContext(ctx,
			i,
			t.ID,
			t.Title,
			t.Description,
			string(t.AssignedTo),
			nullPerson(t.ConfirmedBy),
			string(t.Frequency),
			nullString(t.CustomFrequency),
			completed,
			formatTime(t.DueDate),
			formatTime(t.CreatedAt),
			t.Points,
		)
		if err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO task_collection_state (id, saved_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at`,
		formatTime(r.now()))
	if err != nil {
		return fmt.Errorf("mark collection saved: %w", err)
	}

	return tx.Commit()
}

func scanSQLiteTask(rows *sql.Rows) (task.Task, error) {
	var (
		t               task.Task
		assignedTo      string
		confirmedBy     sql.NullString
		frequency       string
		customFrequency sql.NullString
		completed       int64
		dueDate         string
		createdAt       string
	)
	err := rows.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&assignedTo,
		&confirmedBy,
		&frequency,
		&customFrequency,
		&completed,
		&dueDate,
		&createdAt,
		&t.Points,
	)
	if err != nil {
		return task.Task{}, fmt.Errorf("scan task: %w", err)
	}

	t.AssignedTo = task.Person(assignedTo)
	t.Frequency = task.Frequency(frequency)
	t.Completed = completed != 0
	if confirmedBy.Valid {
		p := task.Person(confirmedBy.String)
		t.ConfirmedBy = &p
	}
	if customFrequency.Valid {
		s := customFrequency.String
		t.CustomFrequency = &s
	}
	if t.DueDate, err = parseTime(dueDate); err != nil {
		return task.Task{}, fmt.Errorf("task %s due date: %w", t.ID, err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return task.Task{}, fmt.Errorf("task %s created at: %w", t.ID, err)
	}
	return t, nil
}

func nullPerson(p *task.Person) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*p), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
