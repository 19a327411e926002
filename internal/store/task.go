package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdeck-api/internal/domain"
)

// TaskSortField identifies a column tasks may be sorted by.
type TaskSortField string

// Sortable task fields.
const (
	TaskSortCreatedAt   TaskSortField = "created_at"
	TaskSortUpdatedAt   TaskSortField = "updated_at"
	TaskSortDescription TaskSortField = "description"
	TaskSortStatus      TaskSortField = "status"
)

// TaskListOptions carries the optional filter, sort, and pagination
// parameters for listing a user's tasks. Zero values mean "not set".
type TaskListOptions struct {
	// Status filters tasks by completion state when non-nil.
	Status *bool

	// SortField selects the single sort column; empty means created_at.
	SortField TaskSortField

	// SortDesc orders descending when true.
	SortDesc bool

	// Limit caps the number of returned tasks when positive. Zero and
	// negative values mean no cap.
	Limit int

	// Skip is the number of tasks to skip. Non-positive values are a
	// no-op.
	Skip int
}

// TaskStore defines the interface for task data persistence.
//
// Every read and mutation is scoped by owner: a task owned by another user
// behaves exactly as if it did not exist.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid,
	// and ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetForOwner retrieves a task by ID, but only if it is owned by
	// ownerID. Returns ErrTaskNotFound otherwise.
	GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)

	// FindByOwner returns the owner's tasks, filtered, sorted, and
	// paginated per opts. Returns an empty slice when nothing matches.
	FindByOwner(ctx context.Context, ownerID uuid.UUID, opts TaskListOptions) ([]*domain.Task, error)

	// Update persists changes to an existing task, keyed by ID and owner.
	// Returns ErrTaskNotFound if the task is absent or owned by someone else.
	Update(ctx context.Context, task *domain.Task) error

	// DeleteForOwner removes a task owned by ownerID and returns the
	// deleted record. Returns ErrTaskNotFound if absent or not owned.
	DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)

	// DeleteByOwner removes every task owned by ownerID and reports how
	// many were deleted. Used by the cascading account deletion.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// WithTx returns a TaskStore bound to the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
