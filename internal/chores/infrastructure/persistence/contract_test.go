package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

func sampleTasks() []task.Task {
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 5, 20, 9, 30, 15, 123456000, time.UTC)
	custom := "Every other Tuesday"

	return []task.Task{
		{
			ID:          "t-2",
			Title:       "Take out trash",
			AssignedTo:  task.PersonB,
			ConfirmedBy: task.PersonA.Ptr(),
			Frequency:   task.FrequencyWeekly,
			Completed:   true,
			DueDate:     due,
			CreatedAt:   created.Add(time.Hour),
			Points:      2.5,
		},
		{
			ID:              "t-1",
			Title:           "Water plants",
			Description:     "Balcony and kitchen",
			AssignedTo:      task.PersonBoth,
			Frequency:       task.FrequencyCustom,
			CustomFrequency: &custom,
			DueDate:         due.AddDate(0, 0, 3),
			CreatedAt:       created,
			Points:          0,
		},
	}
}

// exerciseRepository checks the behavior every backend shares.
func exerciseRepository(t *testing.T, repo task.Repository) {
	t.Helper()
	ctx := context.Background()

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded, "nothing saved yet")

	want := sampleTasks()
	require.NoError(t, repo.Save(ctx, want))

	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, len(want))
	for i := range want {
		assertTaskEqual(t, want[i], loaded[i])
	}

	// Save overwrites, it does not append.
	require.NoError(t, repo.Save(ctx, want[1:]))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "t-1", loaded[0].ID)

	// An emptied collection is distinct from one never saved.
	require.NoError(t, repo.Save(ctx, nil))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}

func assertTaskEqual(t *testing.T, want, got task.Task) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, want.AssignedTo, got.AssignedTo)
	assert.Equal(t, want.ConfirmedBy, got.ConfirmedBy)
	assert.Equal(t, want.Frequency, got.Frequency)
	assert.Equal(t, want.CustomFrequency, got.CustomFrequency)
	assert.Equal(t, want.Completed, got.Completed)
	assert.True(t, want.DueDate.Equal(got.DueDate), "due date %v != %v", want.DueDate, got.DueDate)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created at %v != %v", want.CreatedAt, got.CreatedAt)
	assert.Equal(t, want.Points, got.Points)
}
