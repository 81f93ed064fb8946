package cli

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskmate/pkg/config"
	"github.com/felixgeelhaar/taskmate/pkg/observability"
)

// ErrNotInitialized is returned by commands run without a wired App.
var ErrNotInitialized = errors.New("application not initialized - storage unavailable")

// TaskService is the part of the task store the CLI uses.
type TaskService interface {
	Create(in task.CreateInput) (task.Task, error)
	Update(id string, patch task.Patch) (task.Task, error)
	Delete(id string) error
	ToggleComplete(id string, confirmedBy *task.Person) (task.Task, error)
	Get(id string) (task.Task, error)
	Query(f task.Filter) []task.Task
	Tasks() []task.Task
	PointsSummary() task.PointsSummary
}

// App holds the CLI application dependencies.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Tasks TaskService
	// StorageLocation is shown by the health command.
	StorageLocation string

	Bus     *eventbus.InProcessEventBus
	Health  *observability.HealthRegistry
	Metrics *observability.InMemoryMetrics
}

var (
	appMu      sync.RWMutex
	currentApp *App
)

// SetApp sets the application used by commands.
func SetApp(a *App) {
	appMu.Lock()
	defer appMu.Unlock()
	currentApp = a
}

// GetApp returns the application used by commands.
func GetApp() *App {
	appMu.RLock()
	defer appMu.RUnlock()
	return currentApp
}

// RequireApp returns the application or ErrNotInitialized.
func RequireApp() (*App, error) {
	a := GetApp()
	if a == nil || a.Tasks == nil {
		return nil, ErrNotInitialized
	}
	return a, nil
}
