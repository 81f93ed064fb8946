package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/internal/chores/infrastructure/persistence"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/database/postgres"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/taskmate/pkg/config"
)

// Backend is an opened task repository and the connection behind it.
type Backend struct {
	Driver database.Driver
	Repo   task.Repository
	// Location describes where tasks are stored, without credentials.
	Location string

	ping  func(ctx context.Context) error
	close func() error
}

// Ping checks that the backend is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases the connection.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// RepositoryFactory opens the task repository for the configured driver.
type RepositoryFactory struct {
	cfg    *config.Config
	driver database.Driver
	logger *slog.Logger
}

// NewRepositoryFactory resolves the storage driver. An empty or "auto"
// driver is detected from DATABASE_URL, then REDIS_URL, then defaults to
// SQLite.
func NewRepositoryFactory(cfg *config.Config, logger *slog.Logger) (*RepositoryFactory, error) {
	url := cfg.DatabaseURL
	if url == "" {
		url = cfg.RedisURL
	}
	driver, ok := database.ParseDriver(cfg.StorageDriver, url)
	if !ok {
		return nil, fmt.Errorf("unsupported driver: %s", cfg.StorageDriver)
	}
	return &RepositoryFactory{cfg: cfg, driver: driver, logger: logger}, nil
}

// Driver returns the resolved driver.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// TaskRepository opens the backend for the resolved driver.
func (f *RepositoryFactory) TaskRepository(ctx context.Context) (*Backend, error) {
	switch f.driver {
	case database.DriverSQLite:
		return f.openSQLite(ctx)
	case database.DriverPostgres:
		return f.openPostgres(ctx)
	case database.DriverRedis:
		return f.openRedis(ctx)
	case database.DriverFile:
		return f.openFile()
	case database.DriverMemory:
		return &Backend{
			Driver:   database.DriverMemory,
			Repo:     persistence.NewInMemoryRepository(),
			Location: "memory",
		}, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

func (f *RepositoryFactory) openSQLite(ctx context.Context) (*Backend, error) {
	path := f.cfg.SQLitePath
	if path == "" {
		path = database.DefaultSQLitePath()
	}
	if path != ":memory:" {
		var err error
		if path, err = security.ValidateFilePath(path); err != nil {
			return nil, err
		}
		if err := database.EnsureDirectory(path); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := runSQLiteMigrations(ctx, db, f.logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Backend{
		Driver:   database.DriverSQLite,
		Repo:     persistence.NewSQLiteTaskRepository(db),
		Location: path,
		ping:     db.PingContext,
		close:    db.Close,
	}, nil
}

func (f *RepositoryFactory) openPostgres(ctx context.Context) (*Backend, error) {
	pool, err := postgres.Open(ctx, database.Config{
		Driver: database.DriverPostgres,
		URL:    f.cfg.DatabaseURL,
	})
	if err != nil {
		return nil, err
	}
	repo := persistence.NewPostgresTaskRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	f.logger.Info("connected to database", "driver", "postgres")

	return &Backend{
		Driver:   database.DriverPostgres,
		Repo:     repo,
		Location: redactedHost(pool),
		ping:     pool.Ping,
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func (f *RepositoryFactory) openRedis(ctx context.Context) (*Backend, error) {
	opt, err := redis.ParseURL(f.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	f.logger.Info("connected to Redis")

	return &Backend{
		Driver:   database.DriverRedis,
		Repo:     persistence.NewRedisTaskRepository(client, f.cfg.RedisKey),
		Location: opt.Addr + "/" + f.cfg.RedisKey,
		ping:     func(ctx context.Context) error { return client.Ping(ctx).Err() },
		close:    client.Close,
	}, nil
}

func (f *RepositoryFactory) openFile() (*Backend, error) {
	path := f.cfg.FilePath
	if path == "" {
		path = database.DefaultFilePath()
	}
	path, err := security.ValidateFilePath(path)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureDirectory(path); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Backend{
		Driver:   database.DriverFile,
		Repo:     persistence.NewFileTaskRepository(path),
		Location: path,
	}, nil
}

func runSQLiteMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	logger.Debug("running SQLite migrations")
	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		return err
	}
	logger.Debug("SQLite migrations completed")
	return nil
}

func redactedHost(pool *pgxpool.Pool) string {
	cfg := pool.Config().ConnConfig
	return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
}

