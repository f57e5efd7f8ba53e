// Package store defines the persistence contracts for users and tasks.
// Implementations live in mongostore (default), pgstore and memstore.
package store

import (
	"context"
	"errors"
	"time"

	"taskmanager/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// TaskFilter narrows task queries. Zero values are ignored. The due-date
// bounds form the half-open range [DueAfter, DueBefore).
type TaskFilter struct {
	AssignedTo    string
	Status        models.TaskStatus
	ExcludeStatus models.TaskStatus
	DueAfter      *time.Time
	DueBefore     *time.Time
}

// FindOptions controls ordering and size of a task listing.
type FindOptions struct {
	// NewestFirst sorts by creation time descending; otherwise insertion order.
	NewestFirst bool
	Limit       int
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
	FindUsers(ctx context.Context, ids []string) ([]models.User, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	// ReplaceTask persists the whole document. Concurrent writers are
	// resolved last-write-wins.
	ReplaceTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	FindTasks(ctx context.Context, filter TaskFilter, opts FindOptions) ([]models.Task, error)
	CountTasks(ctx context.Context, filter TaskFilter) (int64, error)
	CountTasksByStatus(ctx context.Context, filter TaskFilter) (map[models.TaskStatus]int64, error)
	CountTasksByPriority(ctx context.Context, filter TaskFilter) (map[models.Priority]int64, error)
}

// Store bundles both collections behind one connection.
type Store interface {
	UserStore
	TaskStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Matches reports whether a task satisfies the filter. Backends that cannot
// push a filter down to the database evaluate it with this.
func (f TaskFilter) Matches(t *models.Task) bool {
	if f.AssignedTo != "" && !t.IsAssignee(f.AssignedTo) {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.ExcludeStatus != "" && t.Status == f.ExcludeStatus {
		return false
	}
	if f.DueAfter != nil && t.DueDate.Before(*f.DueAfter) {
		return false
	}
	if f.DueBefore != nil && !t.DueDate.Before(*f.DueBefore) {
		return false
	}
	return true
}
