// Package app wires TaskMate's components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/taskmate/internal/chores/application/events"
	"github.com/felixgeelhaar/taskmate/internal/chores/application/store"
	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/internal/chores/infrastructure/homeassistant"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskmate/pkg/config"
	"github.com/felixgeelhaar/taskmate/pkg/observability"
)

// healthCheckTimeout bounds each individual health check.
const healthCheckTimeout = 5 * time.Second

// Container holds the application's wired dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	Backend *Backend
	Store   *store.TaskStore

	// Bus delivers domain events to in-process consumers such as the
	// HTTP change stream.
	Bus       *eventbus.InProcessEventBus
	Publisher eventbus.Publisher
	Forwarder *events.Forwarder

	// HASS and Mirror are nil when the Home Assistant mirror is disabled.
	HASS   *homeassistant.Client
	Mirror *homeassistant.Mirror
}

// NewContainer opens storage, loads the task collection and attaches the
// event forwarder and the optional Home Assistant mirror.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(healthCheckTimeout),
	}

	factory, err := NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Backend = c.openBackend(ctx, factory)

	c.Bus = eventbus.NewInProcessEventBus(logger)
	c.Publisher = eventbus.NewFanoutPublisher(c.brokerPublisher(), c.Bus)

	var opts []store.Option
	opts = append(opts, store.WithLogger(logger), store.WithMetrics(c.Metrics))

	if cfg.HASSEnabled {
		c.HASS = homeassistant.NewClient(homeassistant.Config{
			BaseURL: cfg.HASSURL,
			Token:   cfg.HASSToken,
			Timeout: cfg.HASSTimeout,
		}, logger)
		if err := c.HASS.SetupEntities(ctx); err != nil {
			logger.Warn("home assistant setup failed, mirroring anyway", "error", err)
		}
		c.Mirror = homeassistant.NewMirror(c.HASS, logger, c.Metrics)
		c.Health.Register("home_assistant", observability.MirrorHealthChecker(c.HASS.Check))
	}

	c.Store = store.Open(ctx, c.Backend.Repo, opts...)
	if c.Mirror != nil {
		c.Mirror.Attach(c.Store)
	}
	c.Forwarder = events.NewForwarder(c.Publisher, logger, c.Metrics)
	c.Forwarder.Attach(c.Store)

	return c, nil
}

// openBackend opens the configured storage. A backend that cannot be opened
// leaves the process running on an in-memory collection; storage is then
// reported unhealthy and nothing is persisted.
func (c *Container) openBackend(ctx context.Context, factory *RepositoryFactory) *Backend {
	backend, err := factory.TaskRepository(ctx)
	if err != nil {
		warning := &task.PersistenceWarning{Op: "open", Err: err}
		c.Logger.Warn("storage unavailable, tasks will not be persisted",
			"driver", factory.Driver(),
			"error", warning,
		)
		c.Health.Register("storage", observability.StorageHealthChecker(func(context.Context) error {
			return warning
		}))
		return &Backend{Driver: factory.Driver(), Location: "unavailable (in-memory only)"}
	}
	c.Health.Register("storage", observability.StorageHealthChecker(backend.Ping))
	c.Logger.Info("storage ready", "driver", backend.Driver, "location", backend.Location)
	return backend
}

// brokerPublisher connects to RabbitMQ when configured. An unreachable
// broker falls back to the noop publisher; events are best-effort.
func (c *Container) brokerPublisher() eventbus.Publisher {
	if c.Config.RabbitMQURL == "" {
		return eventbus.NewNoopPublisher(c.Logger)
	}
	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		return eventbus.NewNoopPublisher(c.Logger)
	}
	c.Health.Register("rabbitmq", observability.BrokerHealthChecker(publisher.Check))
	return publisher
}

// Close waits for pending writes, events and mirror pushes, then releases
// connections. ctx bounds the wait.
func (c *Container) Close(ctx context.Context) error {
	var errs []error

	if c.Store != nil {
		if err := c.Store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush tasks: %w", err))
		}
	}
	if c.Forwarder != nil {
		if err := c.Forwarder.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain events: %w", err))
		}
	}
	if c.Mirror != nil {
		if err := c.Mirror.Close(ctx); err != nil {
			c.Logger.Warn("home assistant mirror did not finish", "error", err)
		}
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}
	if c.Backend != nil {
		if err := c.Backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		} else {
			c.Logger.Debug("storage closed", "driver", c.Backend.Driver)
		}
	}
	return errors.Join(errs...)
}
