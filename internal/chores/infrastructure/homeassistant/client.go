// Package homeassistant mirrors the task collection into a Home Assistant
// instance: a persistent notification plus an input_text entity holding
// the JSON collection.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/internal/chores/infrastructure/persistence"
)

const (
	DefaultBaseURL        = "http://supervisor/core"
	DefaultEntityID       = "input_text.taskmate_data"
	DefaultNotificationID = "taskmate_update"

	notificationTitle = "TaskMate Update"
)

var (
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("home assistant unavailable")
	// ErrEntityNotFound is returned when the state entity does not exist.
	ErrEntityNotFound = errors.New("home assistant entity not found")
)

// Config configures the Home Assistant client.
type Config struct {
	BaseURL        string
	Token          string
	EntityID       string
	NotificationID string
	Timeout        time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Client calls the Home Assistant REST API.
type Client struct {
	baseURL        string
	entityID       string
	notificationID string
	http           *http.Client
	breaker        *gobreaker.CircuitBreaker[any]
	logger         *slog.Logger
}

// NewClient creates a client. The token is sent as a bearer token on
// every request.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.EntityID == "" {
		cfg.EntityID = DefaultEntityID
	}
	if cfg.NotificationID == "" {
		cfg.NotificationID = DefaultNotificationID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	var transport http.RoundTripper = http.DefaultTransport
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Base:   http.DefaultTransport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
		}
	}

	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		entityID:       cfg.EntityID,
		notificationID: cfg.NotificationID,
		http:           &http.Client{Timeout: cfg.Timeout, Transport: transport},
		logger:         logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "homeassistant",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrEntityNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return c
}

// SaveTasks posts an update notification and stores the collection in the
// state entity.
func (c *Client) SaveTasks(ctx context.Context, tasks []task.Task) error {
	data, err := persistence.MarshalTasks(tasks)
	if err != nil {
		return err
	}

	notification := map[string]string{
		"title":           notificationTitle,
		"message":         fmt.Sprintf("Updated tasks: %d tasks in system", len(tasks)),
		"notification_id": c.notificationID,
	}
	if err := c.callService(ctx, "persistent_notification", "create", notification); err != nil {
		return err
	}
	return c.setValue(ctx, string(data))
}

// LoadTasks reads the collection from the state entity. A missing entity
// or an empty state yields nil, nil.
func (c *Client) LoadTasks(ctx context.Context) ([]task.Task, error) {
	state, err := c.state(ctx)
	if err != nil {
		if errors.Is(err, ErrEntityNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if state == "unknown" || state == "unavailable" {
		return nil, nil
	}
	return persistence.UnmarshalTasks([]byte(state))
}

// SetupEntities seeds the state entity with an empty collection if it
// does not exist yet.
func (c *Client) SetupEntities(ctx context.Context) error {
	_, err := c.state(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrEntityNotFound) {
		return err
	}
	c.logger.Info("creating home assistant state entity", "entity_id", c.entityID)
	return c.setValue(ctx, "[]")
}

// Check verifies the API answers.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/", nil)
	return err
}

// Load and Save let the client act as a task.Repository.
func (c *Client) Load(ctx context.Context) ([]task.Task, error) { return c.LoadTasks(ctx) }

func (c *Client) Save(ctx context.Context, tasks []task.Task) error { return c.SaveTasks(ctx, tasks) }

func (c *Client) setValue(ctx context.Context, value string) error {
	return c.callService(ctx, "input_text", "set_value", map[string]string{
		"entity_id": c.entityID,
		"value":     value,
	})
}

func (c *Client) callService(ctx context.Context, domain, service string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, "/api/services/"+domain+"/"+service, body)
	return err
}

func (c *Client) state(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/states/"+c.entityID, nil)
	if err != nil {
		return "", err
	}
	var entity struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(body, &entity); err != nil {
		return "", fmt.Errorf("decode %s state: %w", c.entityID, err)
	}
	return entity.State, nil
}

// do runs one request through the breaker and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusNotFound && method == http.MethodGet {
			return nil, ErrEntityNotFound
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("home assistant %s %s: status=%d body=%s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	if err != nil {
		return nil, err
	}
	data, _ := result.([]byte)
	return data, nil
}
