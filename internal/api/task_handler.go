package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/taskdeck-api/internal/api/shared"
	"github.com/phrazzld/taskdeck-api/internal/domain"
	"github.com/phrazzld/taskdeck-api/internal/platform/logger"
	"github.com/phrazzld/taskdeck-api/internal/store"
)

// taskAllowedUpdates is the allow-list for PATCH /tasks/{id}. A request
// containing any other key (owner, id, timestamps, ...) is rejected whole,
// leaving the task unchanged.
var taskAllowedUpdates = map[string]bool{
	"description": true,
	"status":      true,
}

// TaskHandler handles the owner-scoped task CRUD endpoints. Every
// operation takes its owner from the authenticated request; there is no
// code path that accepts a client-supplied owner.
type TaskHandler struct {
	taskStore store.TaskStore
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(taskStore store.TaskStore, log *slog.Logger) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{
		taskStore: taskStore,
		validator: validator.New(),
		logger:    log.With(slog.String("component", "task_handler")),
	}
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, ValidationErrorMessage(err))
		return
	}

	// Owner comes from the token, regardless of anything in the body.
	task, err := domain.NewTask(user.ID, req.Description, req.Status)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.taskStore.Create(r.Context(), task); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// parseListOptions turns the query string into store list options.
//
// status filters by equality with the literal "true". sortBy has the form
// "field:direction" (e.g. "created_at:desc"); an unknown field falls back
// to creation time. limit and skip that fail to parse are treated as
// absent; the store applies no cap of its own, so no limit means the
// whole list.
func parseListOptions(r *http.Request) store.TaskListOptions {
	var opts store.TaskListOptions
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		value := status == "true"
		opts.Status = &value
	}

	if sortBy := q.Get("sortBy"); sortBy != "" {
		field, direction, _ := strings.Cut(sortBy, ":")
		opts.SortField = sortFieldFromQuery(field)
		opts.SortDesc = direction == "desc"
	}

	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}
	if skip := q.Get("skip"); skip != "" {
		if n, err := strconv.Atoi(skip); err == nil {
			opts.Skip = n
		}
	}

	return opts
}

// sortFieldFromQuery maps a query-string field name (snake or camel case)
// to a sortable column.
func sortFieldFromQuery(field string) store.TaskSortField {
	switch field {
	case "description":
		return store.TaskSortDescription
	case "status":
		return store.TaskSortStatus
	case "updated_at", "updatedAt":
		return store.TaskSortUpdatedAt
	case "created_at", "createdAt":
		return store.TaskSortCreatedAt
	default:
		return store.TaskSortCreatedAt
	}
}

// List handles GET /tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	user, ok := currentUser(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	opts := parseListOptions(r)

	tasks, err := h.taskStore.FindByOwner(r.Context(), user.ID, opts)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}

	log.Debug("listed tasks",
		slog.String("user_id", user.ID.String()),
		slog.Int("count", len(tasks)))
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// GetByID handles GET /tasks/{id}.
// A task owned by another user yields the same 404 as a missing one.
func (h *TaskHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, id, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.taskStore.GetForOwner(r.Context(), user.ID, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// Update handles PATCH /tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, id, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var body map[string]json.RawMessage
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if len(body) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "No updates provided")
		return
	}

	// Reject before touching the store so a bad request has no effect.
	for key := range body {
		if !taskAllowedUpdates[key] {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid update field: "+key)
			return
		}
	}

	task, err := h.taskStore.GetForOwner(r.Context(), user.ID, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if raw, ok := body["description"]; ok {
		if err := json.Unmarshal(raw, &task.Description); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid value for description")
			return
		}
	}
	if raw, ok := body["status"]; ok {
		if err := json.Unmarshal(raw, &task.Status); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid value for status")
			return
		}
	}

	if err := h.taskStore.Update(r.Context(), task); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// Delete handles DELETE /tasks/{id}.
// Responds with the deleted record.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, id, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.taskStore.DeleteForOwner(r.Context(), user.ID, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}
