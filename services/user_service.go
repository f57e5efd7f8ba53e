package services

import (
	"context"

	"taskmanager/models"
	"taskmanager/store"
)

type TaskCounts struct {
	Pending    int64 `json:"pendingTasks"`
	InProgress int64 `json:"inProgressTasks"`
	Completed  int64 `json:"completedTasks"`
}

// MemberWithCounts is a member user annotated with their assigned task counts.
type MemberWithCounts struct {
	models.User
	TaskCounts
}

type UserService struct {
	users store.UserStore
	tasks store.TaskStore
}

func NewUserService(users store.UserStore, tasks store.TaskStore) *UserService {
	return &UserService{users: users, tasks: tasks}
}

func (s *UserService) ListMembers(ctx context.Context, r Requester) ([]MemberWithCounts, error) {
	if !r.IsAdmin() {
		return nil, Forbidden("Not authorized as an admin")
	}

	members, err := s.users.ListUsers(ctx, models.RoleMember)
	if err != nil {
		return nil, Internal("Failed to load users", err)
	}

	out := make([]MemberWithCounts, 0, len(members))
	for _, u := range members {
		counts, err := s.tasks.CountTasksByStatus(ctx, store.TaskFilter{AssignedTo: u.ID})
		if err != nil {
			return nil, Internal("Failed to count user tasks", err)
		}
		out = append(out, MemberWithCounts{
			User: u,
			TaskCounts: TaskCounts{
				Pending:    counts[models.StatusPending],
				InProgress: counts[models.StatusInProgress],
				Completed:  counts[models.StatusCompleted],
			},
		})
	}
	return out, nil
}

func (s *UserService) GetUser(ctx context.Context, r Requester, id string) (*models.User, error) {
	if !canViewUser(r, id) {
		return nil, Forbidden("Not authorized to view this user")
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, storeError(err, "User not found", "Failed to load user")
	}
	return user, nil
}
