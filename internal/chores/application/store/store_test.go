package store_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskmate/internal/chores/application/store"
	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/internal/chores/infrastructure/persistence"
	"github.com/felixgeelhaar/taskmate/pkg/observability"
)

// mockRepo is a mock implementation of task.Repository.
type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Load(ctx context.Context) ([]task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Task), args.Error(1)
}

func (m *mockRepo) Save(ctx context.Context, tasks []task.Task) error {
	args := m.Called(ctx, tasks)
	return args.Error(0)
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, repo task.Repository, opts ...store.Option) *store.TaskStore {
	t.Helper()
	base := []store.Option{
		store.WithLogger(discardLogger()),
		store.WithClock(func() time.Time { return testNow }),
	}
	s := store.Open(context.Background(), repo, append(base, opts...)...)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func pts(v float64) *float64 { return &v }

func input(title string, who task.Person) task.CreateInput {
	return task.CreateInput{
		Title:      title,
		AssignedTo: who,
		Frequency:  task.FrequencyWeekly,
		DueDate:    time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
	}
}

func mustCreate(t *testing.T, s *store.TaskStore, in task.CreateInput) task.Task {
	t.Helper()
	created, err := s.Create(in)
	require.NoError(t, err)
	return created
}

func TestCreate_PrependsWithDefaults(t *testing.T) {
	s := newTestStore(t, nil)

	first := mustCreate(t, s, input("Dishes", task.PersonA))
	second := mustCreate(t, s, input("Laundry", task.PersonB))

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, task.DefaultPoints, first.Points)
	assert.False(t, first.Completed)
	assert.Nil(t, first.ConfirmedBy)
	assert.Equal(t, testNow, first.CreatedAt)

	all := s.Tasks()
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	assert.Equal(t, first.ID, all[1].ID)
}

func TestCreate_RegeneratesCollidingIDs(t *testing.T) {
	ids := []string{"dup", "dup", "", "fresh"}
	var mu sync.Mutex
	next := func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	}
	s := newTestStore(t, nil, store.WithIDGenerator(next))

	a := mustCreate(t, s, input("One", task.PersonA))
	b := mustCreate(t, s, input("Two", task.PersonA))

	assert.Equal(t, "dup", a.ID)
	assert.Equal(t, "fresh", b.ID)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    task.CreateInput
		field string
	}{
		{"empty title", input("", task.PersonA), "title"},
		{"blank title", input("   ", task.PersonA), "title"},
		{"negative points", func() task.CreateInput { in := input("x", task.PersonA); in.Points = pts(-1); return in }(), "points"},
		{"unknown person", input("x", task.Person("C")), "assignedTo"},
		{"unknown frequency", func() task.CreateInput { in := input("x", task.PersonA); in.Frequency = "Yearly"; return in }(), "frequency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, nil)

			_, err := s.Create(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, task.ErrValidation)

			var verr *task.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, s.Len())
		})
	}
}

func TestCreate_ZeroPointsAllowed(t *testing.T) {
	s := newTestStore(t, nil)
	in := input("Free chore", task.PersonA)
	in.Points = pts(0)

	created := mustCreate(t, s, in)
	assert.Equal(t, 0.0, created.Points)
}

func TestCreate_ConfirmedByFollowsCompleted(t *testing.T) {
	s := newTestStore(t, nil)

	done := input("Already done", task.PersonB)
	done.Completed = true
	created := mustCreate(t, s, done)
	require.NotNil(t, created.ConfirmedBy)
	assert.Equal(t, task.PersonB, *created.ConfirmedBy)

	open := input("Not done", task.PersonB)
	open.ConfirmedBy = task.PersonA.Ptr()
	created = mustCreate(t, s, open)
	assert.Nil(t, created.ConfirmedBy)
}

func TestCreate_CustomFrequencyOnlyForCustom(t *testing.T) {
	s := newTestStore(t, nil)
	label := "Every other Sunday"

	in := input("Vacuum", task.PersonA)
	in.CustomFrequency = &label
	created := mustCreate(t, s, in)
	assert.Nil(t, created.CustomFrequency)

	in.Frequency = task.FrequencyCustom
	created = mustCreate(t, s, in)
	require.NotNil(t, created.CustomFrequency)
	assert.Equal(t, label, created.FrequencyLabel())
}

func TestCreate_ReturnsCopy(t *testing.T) {
	s := newTestStore(t, nil)
	in := input("Dishes", task.PersonA)
	in.Completed = true
	created := mustCreate(t, s, in)

	*created.ConfirmedBy = task.PersonB

	stored, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.PersonA, *stored.ConfirmedBy)
}

func TestUpdate_MergesOnlyGivenFields(t *testing.T) {
	s := newTestStore(t, nil)
	created := mustCreate(t, s, input("Dishes", task.PersonA))

	title := "Dishes and counters"
	updated, err := s.Update(created.ID, task.Patch{Title: &title, Points: pts(3)})
	require.NoError(t, err)

	assert.Equal(t, title, updated.Title)
	assert.Equal(t, 3.0, updated.Points)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.AssignedTo, updated.AssignedTo)
	assert.Equal(t, created.DueDate, updated.DueDate)
}

func TestUpdate_RejectsInvalidWithoutMutation(t *testing.T) {
	s := newTestStore(t, nil)
	created := mustCreate(t, s, input("Dishes", task.PersonA))

	_, err := s.Update(created.ID, task.Patch{Points: pts(-1)})
	assert.ErrorIs(t, err, task.ErrValidation)

	empty := "  "
	_, err = s.Update(created.ID, task.Patch{Title: &empty})
	assert.ErrorIs(t, err, task.ErrValidation)

	stored, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
}

func TestUpdate_CompletionKeepsConfirmedByConsistent(t *testing.T) {
	s := newTestStore(t, nil)
	created := mustCreate(t, s, input("Dishes", task.PersonB))

	done := true
	updated, err := s.Update(created.ID, task.Patch{Completed: &done})
	require.NoError(t, err)
	require.NotNil(t, updated.ConfirmedBy)
	assert.Equal(t, task.PersonB, *updated.ConfirmedBy)

	notDone := false
	updated, err = s.Update(created.ID, task.Patch{Completed: &notDone, ConfirmedBy: task.PersonA.Ptr()})
	require.NoError(t, err)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.ConfirmedBy)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := persistence.NewInMemoryRepository()
	s := newTestStore(t, repo)
	mustCreate(t, s, input("Dishes", task.PersonA))
	require.NoError(t, s.Flush(context.Background()))
	saves := repo.Saves()

	title := "x"
	_, err := s.Update("missing", task.Patch{Title: &title})
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
	assert.False(t, errors.Is(err, task.ErrValidation))

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, saves, repo.Saves())
}

func TestUpdate_EmptyPatchIsNoop(t *testing.T) {
	var changes []store.Change
	s := newTestStore(t, nil)
	created := mustCreate(t, s, input("Dishes", task.PersonA))
	s.Subscribe(func(c store.Change) { changes = append(changes, c) })

	got, err := s.Update(created.ID, task.Patch{})
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Empty(t, changes)
}

func TestUpdate_ConfirmedByOnOpenTaskIsNoop(t *testing.T) {
	repo := persistence.NewInMemoryRepository()
	s := newTestStore(t, repo)
	created := mustCreate(t, s, input("Dishes", task.PersonA))
	require.NoError(t, s.Flush(context.Background()))
	saves := repo.Saves()

	var changes []store.Change
	s.Subscribe(func(c store.Change) { changes = append(changes, c) })

	got, err := s.Update(created.ID, task.Patch{ConfirmedBy: task.PersonB.Ptr()})
	require.NoError(t, err)
	assert.Nil(t, got.ConfirmedBy)
	assert.Empty(t, changes)

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, saves, repo.Saves())
}

func TestUpdate_FieldsReportOnlyRealChanges(t *testing.T) {
	var changes []store.Change
	s := newTestStore(t, nil)
	created := mustCreate(t, s, input("Dishes", task.PersonA))
	s.Subscribe(func(c store.Change) { changes = append(changes, c) })

	title := created.Title
	_, err := s.Update(created.ID, task.Patch{Title: &title, Points: pts(2), ConfirmedBy: task.PersonB.Ptr()})
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, []string{"points"}, changes[0].Fields)
}

func TestUpdate_ClearsCustomFrequency(t *testing.T) {
	s := newTestStore(t, nil)
	in := input("Water plants", task.PersonB)
	in.Frequency = task.FrequencyCustom
	every := "every 3 days"
	in.CustomFrequency = &every
	created := mustCreate(t, s, in)
	require.NotNil(t, created.CustomFrequency)

	none := ""
	updated, err := s.Update(created.ID, task.Patch{CustomFrequency: &none})
	require.NoError(t, err)
	assert.Nil(t, updated.CustomFrequency)
	assert.Equal(t, task.FrequencyCustom, updated.Frequency)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, nil)
	a := mustCreate(t, s, input("A chore", task.PersonA))
	b := mustCreate(t, s, input("B chore", task.PersonB))

	require.NoError(t, s.Delete(a.ID))

	all := s.Tasks()
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)

	_, err := s.Get(a.ID)
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestDelete_UnknownIDLeavesCollection(t *testing.T) {
	s := newTestStore(t, nil)
	mustCreate(t, s, input("Dishes", task.PersonA))
	before := s.Tasks()

	err := s.Delete("missing")
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
	assert.Equal(t, before, s.Tasks())
}

func TestToggleComplete(t *testing.T) {
	s := newTestStore(t, nil)
	created := mustCreate(t, s, input("Dishes", task.PersonA))

	done, err := s.ToggleComplete(created.ID, task.PersonB.Ptr())
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.ConfirmedBy)
	assert.Equal(t, task.PersonB, *done.ConfirmedBy)

	reopened, err := s.ToggleComplete(created.ID, nil)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.ConfirmedBy)
	assert.Equal(t, created, reopened, "toggling twice restores the original task")

	// Without a confirming person the assignee gets the credit.
	done, err = s.ToggleComplete(created.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, done.ConfirmedBy)
	assert.Equal(t, task.PersonA, *done.ConfirmedBy)
}

func TestToggleComplete_Errors(t *testing.T) {
	s := newTestStore(t, nil)
	created := mustCreate(t, s, input("Dishes", task.PersonA))

	_, err := s.ToggleComplete("missing", nil)
	assert.ErrorIs(t, err, task.ErrTaskNotFound)

	_, err = s.ToggleComplete(created.ID, task.Person("Z").Ptr())
	assert.ErrorIs(t, err, task.ErrValidation)

	stored, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed)
}

func TestQuery(t *testing.T) {
	s := newTestStore(t, nil)
	mustCreate(t, s, input("Take out trash", task.PersonA))
	mustCreate(t, s, input("Wash car", task.PersonB))
	shared := mustCreate(t, s, input("Trash day prep", task.PersonBoth))
	_, err := s.ToggleComplete(shared.ID, nil)
	require.NoError(t, err)

	titles := func(tasks []task.Task) []string {
		out := make([]string, 0, len(tasks))
		for _, tk := range tasks {
			out = append(out, tk.Title)
		}
		return out
	}

	assert.Equal(t, []string{"Trash day prep", "Wash car", "Take out trash"}, titles(s.Query(task.Filter{})))
	assert.Equal(t, []string{"Take out trash"}, titles(s.Query(task.Filter{Person: task.FilterA})))
	assert.Equal(t, []string{"Trash day prep"}, titles(s.Query(task.Filter{Person: task.FilterBoth})))
	assert.Equal(t, []string{"Trash day prep", "Take out trash"}, titles(s.Query(task.Filter{Search: "TRASH"})))
	assert.Equal(t, []string{"Wash car", "Take out trash"}, titles(s.Query(task.Filter{Status: task.StatusActive})))
	assert.Equal(t, []string{"Trash day prep"}, titles(s.Query(task.Filter{Status: task.StatusCompleted})))
	assert.Empty(t, s.Query(task.Filter{Person: task.FilterB, Search: "trash"}))
}

func TestPointsSummary(t *testing.T) {
	s := newTestStore(t, nil)

	complete := func(title string, who task.Person, points float64, by *task.Person) {
		in := input(title, who)
		in.Points = pts(points)
		created := mustCreate(t, s, in)
		_, err := s.ToggleComplete(created.ID, by)
		require.NoError(t, err)
	}

	complete("A's own", task.PersonA, 3, nil)
	complete("Shared", task.PersonBoth, 2, nil)
	complete("A covered for B", task.PersonB, 4, task.PersonA.Ptr())

	open := input("Not done yet", task.PersonB)
	open.Points = pts(5)
	mustCreate(t, s, open)

	summary := s.PointsSummary()
	assert.Equal(t, 8.0, summary.PersonA)
	assert.Equal(t, 1.0, summary.PersonB)
	assert.Equal(t, 7.0, summary.Difference)
	assert.Equal(t, task.PersonA, summary.Leader())
}

func TestSubscribe_ReceivesChangesUntilUnsubscribed(t *testing.T) {
	s := newTestStore(t, nil)

	var kinds []store.ChangeKind
	var last store.Change
	unsubscribe := s.Subscribe(func(c store.Change) {
		kinds = append(kinds, c.Kind)
		last = c
	})

	created := mustCreate(t, s, input("Dishes", task.PersonA))
	title := "Dishes!"
	_, err := s.Update(created.ID, task.Patch{Title: &title})
	require.NoError(t, err)
	_, err = s.ToggleComplete(created.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, created.ID, last.TaskID)
	assert.Len(t, last.Tasks, 1)
	assert.Equal(t, 1.0, last.Summary.PersonA)
	require.NotNil(t, last.Previous)
	assert.False(t, last.Previous.Completed)

	_, err = s.ToggleComplete(created.ID, nil)
	require.NoError(t, err)
	require.NoError(t, s.Delete(created.ID))

	unsubscribe()
	mustCreate(t, s, input("Ignored", task.PersonB))

	assert.Equal(t, []store.ChangeKind{
		store.ChangeCreated,
		store.ChangeUpdated,
		store.ChangeCompleted,
		store.ChangeReopened,
		store.ChangeDeleted,
	}, kinds)
}

func TestSubscribe_PanickingListenerIsContained(t *testing.T) {
	s := newTestStore(t, nil)
	var calls int
	s.Subscribe(func(store.Change) { panic("boom") })
	s.Subscribe(func(store.Change) { calls++ })

	assert.NotPanics(t, func() { mustCreate(t, s, input("Dishes", task.PersonA)) })
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.Len())
}

func TestOpen_LoadFailureStartsEmpty(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Load", mock.Anything).Return(nil, errors.New("corrupt data"))
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	metrics := observability.NewInMemoryMetrics()

	var loaded store.Change
	s := newTestStore(t, repo,
		store.WithMetrics(metrics),
		store.WithListener(func(c store.Change) {
			if c.Kind == store.ChangeLoaded {
				loaded = c
			}
		}),
	)

	assert.Zero(t, s.Len())
	require.Error(t, loaded.Warning)
	var warning *task.PersistenceWarning
	require.ErrorAs(t, loaded.Warning, &warning)
	assert.Equal(t, "load", warning.Op)
	assert.Equal(t, int64(1), metrics.GetCounter("taskstore.load.failed"))

	// The store stays usable.
	mustCreate(t, s, input("Dishes", task.PersonA))
	assert.Equal(t, 1, s.Len())
}

func TestOpen_PanickingBackendStartsEmpty(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Load", mock.Anything).Run(func(mock.Arguments) { panic("driver bug") })

	var warning error
	s := newTestStore(t, repo, store.WithListener(func(c store.Change) { warning = c.Warning }))

	assert.Zero(t, s.Len())
	assert.Error(t, warning)
}

func TestOpen_SkipsBrokenRecordsAndNormalizes(t *testing.T) {
	custom := "Weekends"
	stored := []task.Task{
		{ID: "1", Title: "Dishes", AssignedTo: task.PersonA, Frequency: task.FrequencyDaily, Completed: true, Points: 1},
		{ID: "", Title: "No id", AssignedTo: task.PersonA, Frequency: task.FrequencyDaily},
		{ID: "1", Title: "Duplicate", AssignedTo: task.PersonB, Frequency: task.FrequencyDaily},
		{ID: "2", Title: "Laundry", AssignedTo: task.PersonB, ConfirmedBy: task.PersonA.Ptr(), Frequency: task.FrequencyWeekly, CustomFrequency: &custom},
	}
	s := newTestStore(t, persistence.NewInMemoryRepository(stored...))

	all := s.Tasks()
	require.Len(t, all, 2)
	assert.Equal(t, "Dishes", all[0].Title)
	require.NotNil(t, all[0].ConfirmedBy)
	assert.Equal(t, task.PersonA, *all[0].ConfirmedBy)
	assert.Nil(t, all[1].ConfirmedBy)
	assert.Nil(t, all[1].CustomFrequency)
}

func TestOpen_NothingSavedStartsEmpty(t *testing.T) {
	var warning error
	s := newTestStore(t, persistence.NewInMemoryRepository(),
		store.WithListener(func(c store.Change) { warning = c.Warning }))

	assert.Zero(t, s.Len())
	assert.NoError(t, warning)
}

func TestPersistence_SaveFailureKeepsMemory(t *testing.T) {
	repo := new(mockRepo)
	repo.On("Load", mock.Anything).Return(nil, nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	metrics := observability.NewInMemoryMetrics()

	s := newTestStore(t, repo, store.WithMetrics(metrics))

	created, err := s.Create(input("Dishes", task.PersonA))
	require.NoError(t, err, "save failures are not reported to the caller")
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, 1, s.Len())
	_, err = s.Get(created.ID)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, metrics.GetCounter("taskstore.persist.failed"), int64(1))
}

func TestPersistence_FinalStateIsSaved(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewInMemoryRepository()
	s := newTestStore(t, repo)

	var ids []string
	for i := 0; i < 20; i++ {
		created := mustCreate(t, s, input(fmt.Sprintf("Chore %d", i), task.PersonA))
		ids = append(ids, created.ID)
	}
	for _, id := range ids[:5] {
		require.NoError(t, s.Delete(id))
	}
	_, err := s.ToggleComplete(ids[10], task.PersonB.Ptr())
	require.NoError(t, err)

	require.NoError(t, s.Flush(ctx))

	saved, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Tasks(), saved)
	assert.LessOrEqual(t, repo.Saves(), 26)
	assert.GreaterOrEqual(t, repo.Saves(), 1)
}

func TestPersistence_ReopenRestoresCollection(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewInMemoryRepository()

	first := store.Open(ctx, repo, store.WithLogger(discardLogger()))
	created, err := first.Create(input("Dishes", task.PersonA))
	require.NoError(t, err)
	_, err = first.ToggleComplete(created.ID, task.PersonBoth.Ptr())
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second := newTestStore(t, repo)
	assert.Equal(t, first.Tasks(), second.Tasks())
	assert.Equal(t, 0.5, second.PointsSummary().PersonA)
	assert.Equal(t, 0.5, second.PointsSummary().PersonB)
}

func TestClose_LaterChangesStayInMemory(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewInMemoryRepository()
	s := store.Open(ctx, repo, store.WithLogger(discardLogger()))
	require.NoError(t, s.Close(ctx))

	mustCreate(t, s, input("After close", task.PersonA))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, repo.Saves())
	assert.NoError(t, s.Flush(ctx))
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewInMemoryRepository()
	s := newTestStore(t, repo)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := s.Create(input(fmt.Sprintf("Chore %d", i), task.PersonBoth))
			if err != nil {
				return
			}
			_, _ = s.ToggleComplete(created.ID, nil)
			_ = s.Query(task.Filter{Search: "chore"})
			_ = s.PointsSummary()
		}(i)
	}
	wg.Wait()
	require.NoError(t, s.Flush(ctx))

	assert.Equal(t, 50, s.Len())
	assert.Equal(t, 25.0, s.PointsSummary().PersonA)

	saved, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Tasks(), saved)
}

func TestSubscribe_ConcurrentChangesArriveInCommitOrder(t *testing.T) {
	s := newTestStore(t, nil)

	var (
		mu      sync.Mutex
		created []string
		sizes   []int
	)
	s.Subscribe(func(c store.Change) {
		mu.Lock()
		defer mu.Unlock()
		created = append(created, c.TaskID)
		sizes = append(sizes, len(c.Tasks))
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Create(input(fmt.Sprintf("Chore %d", i), task.PersonA))
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	all := s.Tasks()
	require.Len(t, created, len(all))
	for i, id := range created {
		assert.Equal(t, all[len(all)-1-i].ID, id, "change %d", i)
	}
	assert.IsIncreasing(t, sizes)
}

func TestSubscribe_MutationFromListenerIsDeliveredAfter(t *testing.T) {
	s := newTestStore(t, nil)

	var kinds []store.ChangeKind
	s.Subscribe(func(c store.Change) {
		kinds = append(kinds, c.Kind)
		if c.Kind == store.ChangeCreated {
			assert.Len(t, s.Tasks(), 1)
			_, err := s.ToggleComplete(c.TaskID, nil)
			assert.NoError(t, err)
		}
	})

	mustCreate(t, s, input("Dishes", task.PersonA))
	assert.Equal(t, []store.ChangeKind{store.ChangeCreated, store.ChangeCompleted}, kinds)
}

func TestMetrics_GaugesFollowCollection(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	s := newTestStore(t, persistence.NewInMemoryRepository(), store.WithMetrics(metrics))

	a := mustCreate(t, s, input("Dishes", task.PersonA))
	mustCreate(t, s, input("Laundry", task.PersonBoth))
	_, err := s.ToggleComplete(a.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 2.0, metrics.GetGauge(observability.MetricTasks))
	assert.Equal(t, 1.0, metrics.GetGauge(observability.MetricPoints, observability.T("person", "A")))
	assert.Zero(t, metrics.GetGauge(observability.MetricPoints, observability.T("person", "B")))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricMutations, observability.T("kind", "completed")))
}
