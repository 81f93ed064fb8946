package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/taskmate/internal/chores/application/requests"
	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

const maxBodyBytes = 64 << 10

// TaskService is the part of the task store the API uses.
type TaskService interface {
	Create(in task.CreateInput) (task.Task, error)
	Update(id string, patch task.Patch) (task.Task, error)
	Delete(id string) error
	ToggleComplete(id string, confirmedBy *task.Person) (task.Task, error)
	Get(id string) (task.Task, error)
	Query(f task.Filter) []task.Task
	PointsSummary() task.PointsSummary
}

// TaskHandler handles task API requests.
type TaskHandler struct {
	tasks  TaskService
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(tasks TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{tasks: tasks, logger: logger, now: time.Now}
}

// TaskListResponse is the body of GET /api/v1/tasks.
type TaskListResponse struct {
	Tasks []task.Task `json:"tasks"`
	Count int         `json:"count"`
}

// PointsResponse is the body of GET /api/v1/points.
type PointsResponse struct {
	task.PointsSummary
	Leader task.Person `json:"leader"`
}

// ToggleRequest is the optional body of POST /api/v1/tasks/{id}/toggle.
type ToggleRequest struct {
	ConfirmedBy string `json:"confirmedBy,omitempty"`
}

// List handles GET /api/v1/tasks?person=&search=&status=
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := requests.Query{
		Person: q.Get("person"),
		Search: q.Get("search"),
		Status: q.Get("status"),
	}.Filter()
	if err != nil {
		writeError(w, errorFor(err))
		return
	}

	tasks := h.tasks.Query(filter)
	writeJSON(w, http.StatusOK, TaskListResponse{Tasks: tasks, Count: len(tasks)})
}

// Get handles GET /api/v1/tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.tasks.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, errorFor(err))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Create handles POST /api/v1/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req requests.CreateTask
	if !decodeBody(w, r, &req, false) {
		return
	}
	in, err := req.Input(h.now().UTC())
	if err != nil {
		writeError(w, errorFor(err))
		return
	}

	created, err := h.tasks.Create(in)
	if err != nil {
		h.logFailure(r, "create", err)
		writeError(w, errorFor(err))
		return
	}
	h.logger.InfoContext(r.Context(), "task added", "task_id", created.ID, "title", created.Title)
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PATCH /api/v1/tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req requests.UpdateTask
	if !decodeBody(w, r, &req, false) {
		return
	}
	patch, err := req.Patch()
	if err != nil {
		writeError(w, errorFor(err))
		return
	}

	updated, err := h.tasks.Update(r.PathValue("id"), patch)
	if err != nil {
		h.logFailure(r, "update", err)
		writeError(w, errorFor(err))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/tasks/{id}. Deleting an unknown id
// succeeds.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Delete(r.PathValue("id")); err != nil && !errors.Is(err, task.ErrTaskNotFound) {
		h.logFailure(r, "delete", err)
		writeError(w, errorFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle handles POST /api/v1/tasks/{id}/toggle
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	confirmedBy, err := requests.ParseConfirmer(req.ConfirmedBy)
	if err != nil {
		writeError(w, errorFor(err))
		return
	}

	toggled, err := h.tasks.ToggleComplete(r.PathValue("id"), confirmedBy)
	if err != nil {
		h.logFailure(r, "toggle", err)
		writeError(w, errorFor(err))
		return
	}
	writeJSON(w, http.StatusOK, toggled)
}

// Points handles GET /api/v1/points
func (h *TaskHandler) Points(w http.ResponseWriter, r *http.Request) {
	summary := h.tasks.PointsSummary()
	writeJSON(w, http.StatusOK, PointsResponse{PointsSummary: summary, Leader: summary.Leader()})
}

func (h *TaskHandler) logFailure(r *http.Request, op string, err error) {
	if errors.Is(err, task.ErrValidation) || errors.Is(err, task.ErrTaskNotFound) {
		h.logger.DebugContext(r.Context(), "task request rejected", "op", op, "error", err)
		return
	}
	h.logger.ErrorContext(r.Context(), "task request failed", "op", op, "error", err)
}

// decodeBody reads a JSON body into dst. With optional set, an empty body
// is accepted.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: "Invalid JSON body: " + err.Error()})
		return false
	}
	return true
}
