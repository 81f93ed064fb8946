package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskmate/internal/chores/application/store"
	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/internal/chores/infrastructure/persistence"
	"github.com/felixgeelhaar/taskmate/pkg/observability"
)

func setupApp(t *testing.T) (*App, *store.TaskStore) {
	t.Helper()
	s := store.Open(context.Background(), persistence.NewInMemoryRepository(),
		store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	app := &App{Tasks: s, StorageLocation: "memory"}
	SetApp(app)
	t.Cleanup(func() {
		SetApp(nil)
		pointsJSON, healthJSON = false, false
		_ = s.Close(context.Background())
	})
	return app, s
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, stderr bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := Execute(context.Background())
	return out.String(), err
}

func complete(t *testing.T, s *store.TaskStore, title string, who task.Person, by *task.Person, points float64) {
	t.Helper()
	created, err := s.Create(task.CreateInput{Title: title, AssignedTo: who, Frequency: task.FrequencyDaily, Points: &points})
	require.NoError(t, err)
	_, err = s.ToggleComplete(created.ID, by)
	require.NoError(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "taskmate "+Version)
}

func TestPointsCmd(t *testing.T) {
	_, s := setupApp(t)

	out, err := execute(t, "points")
	require.NoError(t, err)
	assert.Contains(t, out, "A: 0")
	assert.Contains(t, out, "Tied")

	complete(t, s, "Dishes", task.PersonA, nil, 2)
	complete(t, s, "Groceries", task.PersonBoth, nil, 3)

	out, err = execute(t, "points")
	require.NoError(t, err)
	assert.Contains(t, out, "A: 3.5")
	assert.Contains(t, out, "B: 1.5")
	assert.Contains(t, out, "A leads by 2")
}

func TestPointsCmd_JSON(t *testing.T) {
	_, s := setupApp(t)
	complete(t, s, "Laundry", task.PersonA, task.PersonB.Ptr(), 4)

	out, err := execute(t, "points", "--json")
	require.NoError(t, err)

	var got struct {
		task.PointsSummary
		Leader task.Person `json:"leader"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 4.0, got.PersonB)
	assert.Equal(t, -4.0, got.Difference)
	assert.Equal(t, task.PersonB, got.Leader)
}

func TestPointsCmd_RequiresApp(t *testing.T) {
	SetApp(nil)
	_, err := execute(t, "points")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestHealthCmd(t *testing.T) {
	app, _ := setupApp(t)
	app.Health = observability.NewHealthRegistry(time.Second)
	app.Health.Register("storage", observability.StorageHealthChecker(func(context.Context) error { return nil }))
	app.Health.Register("rabbitmq", observability.BrokerHealthChecker(func(context.Context) error { return errors.New("connection closed") }))

	out, err := execute(t, "health")
	require.NoError(t, err, "a degraded broker is not fatal")
	assert.Contains(t, out, "status: degraded")
	assert.Contains(t, out, "storage: memory")
	assert.Contains(t, out, "connection closed")
}

func TestHealthCmd_Unhealthy(t *testing.T) {
	app, _ := setupApp(t)
	app.Health = observability.NewHealthRegistry(time.Second)
	app.Health.Register("storage", observability.StorageHealthChecker(func(context.Context) error { return errors.New("disk gone") }))

	out, err := execute(t, "health", "--json")
	require.Error(t, err)

	var report observability.OverallHealth
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, observability.HealthStatusUnhealthy, report.Status)
}

func TestFormatPoints(t *testing.T) {
	assert.Equal(t, "1", FormatPoints(1))
	assert.Equal(t, "2.5", FormatPoints(2.5))
	assert.Equal(t, "0", FormatPoints(0))
}
