// Package memstore is an in-process Store used by tests and by DB_DRIVER=memory.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"taskmanager/models"
	"taskmanager/store"

	"github.com/google/uuid"
)

type Store struct {
	mu    sync.RWMutex
	users []models.User
	tasks []models.Task
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("email %s: %w", user.Email, store.ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	s.users = append(s.users, *user)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, u := range s.users {
		if u.ID == user.ID {
			idx = i
		} else if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("email %s: %w", user.Email, store.ErrDuplicate)
		}
	}
	if idx < 0 {
		return store.ErrNotFound
	}
	s.users[idx] = *user
	return nil
}

func (s *Store) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.User
	for _, u := range s.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) FindUsers(ctx context.Context, ids []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.User
	for _, u := range s.users {
		if slices.Contains(ids, u.ID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	s.tasks = append(s.tasks, cloneTask(*task))
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.ID == id {
			out := cloneTask(t)
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ReplaceTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tasks {
		if t.ID == task.ID {
			s.tasks[i] = cloneTask(*task)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = slices.Delete(s.tasks, i, i+1)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) FindTasks(ctx context.Context, filter store.TaskFilter, opts store.FindOptions) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Task
	for _, t := range s.tasks {
		if filter.Matches(&t) {
			out = append(out, cloneTask(t))
		}
	}
	if opts.NewestFirst {
		// stable keeps insertion order among equal timestamps
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) CountTasks(ctx context.Context, filter store.TaskFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, t := range s.tasks {
		if filter.Matches(&t) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountTasksByStatus(ctx context.Context, filter store.TaskFilter) (map[models.TaskStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.TaskStatus]int64)
	for _, t := range s.tasks {
		if filter.Matches(&t) {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func (s *Store) CountTasksByPriority(ctx context.Context, filter store.TaskFilter) (map[models.Priority]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Priority]int64)
	for _, t := range s.tasks {
		if filter.Matches(&t) {
			counts[t.Priority]++
		}
	}
	return counts, nil
}

func cloneTask(t models.Task) models.Task {
	t.TodoChecklist = slices.Clone(t.TodoChecklist)
	t.AssignedTo = slices.Clone(t.AssignedTo)
	t.Attachments = slices.Clone(t.Attachments)
	return t
}
