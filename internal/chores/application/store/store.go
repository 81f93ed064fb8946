// Package store owns the chore collection: it applies mutations, keeps the
// points tally, persists the full collection after every change and tells
// listeners about it.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/pkg/observability"
	"github.com/google/uuid"
)

// TaskStore is the single source of truth for tasks.
type TaskStore struct {
	mu    sync.RWMutex
	tasks []task.Task

	repo   task.Repository
	writer *writer

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int

	// pending holds committed changes not yet delivered; draining is set
	// while one goroutine delivers them. Both are guarded by mu.
	pending  []Change
	draining bool

	logger  *slog.Logger
	metrics observability.Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures a TaskStore.
type Option func(*TaskStore)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *TaskStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics observability.Metrics) Option {
	return func(s *TaskStore) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *TaskStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides task id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *TaskStore) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithListener registers a listener before the initial load so it sees
// the ChangeLoaded notification.
func WithListener(l Listener) Option {
	return func(s *TaskStore) {
		s.addListener(l)
	}
}

// Open creates a store and loads the collection from repo. A failing or
// malformed backend never fails Open: the store starts empty and the
// problem is logged and reported to listeners as a PersistenceWarning.
// A nil repo keeps everything in memory.
func Open(ctx context.Context, repo task.Repository, opts ...Option) *TaskStore {
	s := &TaskStore{
		repo:      repo,
		listeners: make(map[int]Listener),
		logger:    slog.Default(),
		metrics:   observability.NoopMetrics{},
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if repo != nil {
		s.writer = newWriter(ctx, repo, s.logger, s.metrics)
	}

	_ = s.Reload(ctx)
	return s
}

// Reload replaces the in-memory collection with the backend's contents.
// On failure the collection becomes empty and the warning is returned.
func (s *TaskStore) Reload(ctx context.Context) error {
	loaded, warning := s.load(ctx)

	if warning != nil {
		s.logger.Warn("could not load tasks, starting empty", "error", warning)
	} else {
		s.logger.Info("tasks loaded", "tasks", len(loaded))
	}

	s.mu.Lock()
	s.tasks = loaded
	change := s.changeLocked(ChangeLoaded, nil, nil)
	change.Warning = warning
	s.publishLocked(change)
	return warning
}

func (s *TaskStore) load(ctx context.Context) (tasks []task.Task, warning error) {
	if s.repo == nil {
		return []task.Task{}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			tasks = []task.Task{}
			warning = &task.PersistenceWarning{Op: "load", Err: fmt.Errorf("backend panicked: %v", r)}
		}
	}()

	loaded, err := s.repo.Load(ctx)
	if err != nil {
		s.metrics.Counter(observability.MetricLoadFailed, 1)
		return []task.Task{}, &task.PersistenceWarning{Op: "load", Err: err}
	}

	out := make([]task.Task, 0, len(loaded))
	seen := make(map[string]struct{}, len(loaded))
	for _, t := range loaded {
		if t.ID == "" {
			s.logger.Warn("skipping stored task without id", "title", t.Title)
			continue
		}
		if _, dup := seen[t.ID]; dup {
			s.logger.Warn("skipping stored task with duplicate id", "task_id", t.ID)
			continue
		}
		seen[t.ID] = struct{}{}
		t.Normalize()
		out = append(out, t)
	}
	return out, nil
}

// Create adds a new task at the head of the collection.
func (s *TaskStore) Create(in task.CreateInput) (task.Task, error) {
	points := task.DefaultPoints
	if in.Points != nil {
		points = *in.Points
	}

	t := task.Task{
		Title:           in.Title,
		Description:     in.Description,
		AssignedTo:      in.AssignedTo,
		ConfirmedBy:     in.ConfirmedBy,
		Frequency:       in.Frequency,
		CustomFrequency: in.CustomFrequency,
		Completed:       in.Completed,
		DueDate:         in.DueDate,
		Points:          points,
	}
	t = t.Clone()
	t.Normalize()
	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}

	s.mu.Lock()
	t.ID = s.uniqueIDLocked()
	t.CreatedAt = s.now()
	s.tasks = append([]task.Task{t}, s.tasks...)
	created := t.Clone()
	change := s.changeLocked(ChangeCreated, &created, nil)
	s.persistLocked(change)
	s.publishLocked(change)

	s.logger.Info("task added", "task_id", t.ID, "title", t.Title, "assigned_to", t.AssignedTo)
	return created, nil
}

// Update merges patch into the task with the given id. Invalid results
// are rejected with a ValidationError and leave the task untouched. A
// patch that changes nothing after normalization, such as confirmedBy on
// an open task, is a no-op: no event and no save.
func (s *TaskStore) Update(id string, patch task.Patch) (task.Task, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return task.Task{}, fmt.Errorf("update %s: %w", id, task.ErrTaskNotFound)
	}
	previous := s.tasks[idx].Clone()
	if patch.IsEmpty() {
		s.mu.Unlock()
		return previous, nil
	}

	merged := patch.Apply(previous)
	merged.Normalize()
	if err := merged.Validate(); err != nil {
		s.mu.Unlock()
		return task.Task{}, err
	}
	fields := task.ChangedFields(previous, merged)
	if len(fields) == 0 {
		s.mu.Unlock()
		return previous, nil
	}
	s.tasks[idx] = merged
	updated := merged.Clone()
	change := s.changeLocked(ChangeUpdated, &updated, &previous)
	change.Fields = fields
	s.persistLocked(change)
	s.publishLocked(change)

	s.logger.Info("task updated", "task_id", id, "fields", change.Fields)
	return updated, nil
}

// Delete removes the task with the given id. Deleting an unknown id
// changes nothing and returns ErrTaskNotFound, which callers may ignore.
func (s *TaskStore) Delete(id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, task.ErrTaskNotFound)
	}
	removed := s.tasks[idx].Clone()
	s.tasks = append(s.tasks[:idx:idx], s.tasks[idx+1:]...)
	change := s.changeLocked(ChangeDeleted, &removed, &removed)
	s.persistLocked(change)
	s.publishLocked(change)

	s.logger.Info("task deleted", "task_id", id)
	return nil
}

// ToggleComplete flips the completed flag. Completing records confirmedBy,
// defaulting to the assignee; reopening always clears it.
func (s *TaskStore) ToggleComplete(id string, confirmedBy *task.Person) (task.Task, error) {
	if confirmedBy != nil && !confirmedBy.Valid() {
		return task.Task{}, &task.ValidationError{Field: "confirmedBy", Reason: "must be A, B or Both"}
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return task.Task{}, fmt.Errorf("toggle %s: %w", id, task.ErrTaskNotFound)
	}
	previous := s.tasks[idx].Clone()
	kind := ChangeCompleted
	if s.tasks[idx].Completed {
		s.tasks[idx].Reopen()
		kind = ChangeReopened
	} else {
		s.tasks[idx].Complete(confirmedBy)
	}
	toggled := s.tasks[idx].Clone()
	change := s.changeLocked(kind, &toggled, &previous)
	s.persistLocked(change)
	s.publishLocked(change)

	s.logger.Info("task toggled", "task_id", id, "completed", toggled.Completed, "confirmed_by", toggled.ConfirmedBy)
	return toggled, nil
}

// Get returns a copy of the task with the given id.
func (s *TaskStore) Get(id string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return task.Task{}, fmt.Errorf("get %s: %w", id, task.ErrTaskNotFound)
	}
	return s.tasks[idx].Clone(), nil
}

// Query returns the tasks matching f, newest first.
func (s *TaskStore) Query(f task.Filter) []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.Apply(s.tasks)
}

// Tasks returns a snapshot of the whole collection.
func (s *TaskStore) Tasks() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return task.CloneAll(s.tasks)
}

// Len returns the number of tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// PointsSummary tallies completed work per person.
func (s *TaskStore) PointsSummary() task.PointsSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return task.Summarize(s.tasks)
}

// Subscribe registers l and returns a function that removes it.
func (s *TaskStore) Subscribe(l Listener) (unsubscribe func()) {
	id := s.addListener(l)
	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

// Flush waits until all changes made so far have been handed to the backend.
func (s *TaskStore) Flush(ctx context.Context) error {
	if s.writer == nil {
		return nil
	}
	return s.writer.flush(ctx)
}

// Close flushes pending writes and stops the background writer.
func (s *TaskStore) Close(ctx context.Context) error {
	if s.writer == nil {
		return nil
	}
	return s.writer.close(ctx)
}

func (s *TaskStore) addListener(l Listener) int {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return id
}

func (s *TaskStore) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskStore) uniqueIDLocked() string {
	for {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id
		}
	}
}

func (s *TaskStore) changeLocked(kind ChangeKind, t, previous *task.Task) Change {
	c := Change{
		Kind:     kind,
		Task:     t,
		Previous: previous,
		Tasks:    task.CloneAll(s.tasks),
		Summary:  task.Summarize(s.tasks),
	}
	if t != nil {
		c.TaskID = t.ID
	}
	return c
}

// persistLocked hands the snapshot to the writer while the lock still
// orders it against concurrent mutations.
func (s *TaskStore) persistLocked(change Change) {
	if s.writer != nil {
		s.writer.submit(task.CloneAll(change.Tasks))
	}
}

// publishLocked queues change in commit order and releases mu. The first
// goroutine to find the queue idle delivers it, including changes other
// goroutines commit meanwhile, so listeners always see commit order. A
// mutation made from inside a listener is delivered after that listener
// returns.
func (s *TaskStore) publishLocked(change Change) {
	s.pending = append(s.pending, change)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()
		for _, c := range batch {
			s.committed(c)
		}
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

// committed announces a change after the lock is released.
func (s *TaskStore) committed(change Change) {
	if change.Kind != ChangeLoaded {
		s.metrics.Counter(observability.MetricMutations, 1, observability.T("kind", string(change.Kind)))
	}
	s.recordGauges(change)
	s.notify(change)
}

func (s *TaskStore) recordGauges(change Change) {
	s.metrics.Gauge(observability.MetricTasks, float64(len(change.Tasks)))
	s.metrics.Gauge(observability.MetricPoints, change.Summary.PersonA, observability.T("person", string(task.PersonA)))
	s.metrics.Gauge(observability.MetricPoints, change.Summary.PersonB, observability.T("person", string(task.PersonB)))
}

func (s *TaskStore) notify(change Change) {
	s.listenersMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		s.callListener(l, change)
	}
}

func (s *TaskStore) callListener(l Listener, change Change) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("store listener panicked", "kind", change.Kind, "panic", r)
		}
	}()
	l(change)
}
