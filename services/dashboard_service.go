package services

import (
	"context"
	"fmt"
	"time"

	"taskmanager/models"
	"taskmanager/store"
)

const recentTaskLimit = 10

type DashboardStatistics struct {
	TotalTasks      int64 `json:"totalTasks"`
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
	OverdueTasks    int64 `json:"overdueTasks"`
}

type DashboardCharts struct {
	// TaskDistribution is keyed by status with spaces stripped, plus "All".
	TaskDistribution   map[string]int64 `json:"taskDistribution"`
	TaskPriorityLevels map[string]int64 `json:"taskPriorityLevels"`
}

type RecentTask struct {
	ID        string            `json:"_id"`
	Title     string            `json:"title"`
	Status    models.TaskStatus `json:"status"`
	Priority  models.Priority   `json:"priority"`
	DueDate   time.Time         `json:"dueDate"`
	CreatedAt time.Time         `json:"createdAt"`
}

type DashboardSummary struct {
	Statistics  DashboardStatistics `json:"statistics"`
	Charts      DashboardCharts     `json:"charts"`
	RecentTasks []RecentTask        `json:"recentTasks"`
}

type TaskListItem struct {
	TaskDetail
	CompletedTodoCount    int    `json:"completedTodoCount"`
	CompletedTodoProgress string `json:"completedTodoProgress"`
}

type StatusSummary struct {
	All             int64 `json:"all"`
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}

type TaskList struct {
	Tasks         []TaskListItem `json:"tasks"`
	StatusSummary StatusSummary  `json:"statusSummary"`
}

type DashboardService struct {
	tasks store.TaskStore
	users store.UserStore
	now   func() time.Time
}

func NewDashboardService(tasks store.TaskStore, users store.UserStore) *DashboardService {
	return &DashboardService{
		tasks: tasks,
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *DashboardService) AdminSummary(ctx context.Context, r Requester) (*DashboardSummary, error) {
	if !canViewAllTasks(r) {
		return nil, Forbidden("Not authorized as an admin")
	}
	return s.summary(ctx, store.TaskFilter{})
}

func (s *DashboardService) UserSummary(ctx context.Context, r Requester) (*DashboardSummary, error) {
	return s.summary(ctx, store.TaskFilter{AssignedTo: r.ID})
}

func (s *DashboardService) summary(ctx context.Context, scope store.TaskFilter) (*DashboardSummary, error) {
	byStatus, err := s.tasks.CountTasksByStatus(ctx, scope)
	if err != nil {
		return nil, Internal("Failed to count tasks by status", err)
	}

	overdueFilter := scope
	overdueFilter.ExcludeStatus = models.StatusCompleted
	now := s.now()
	overdueFilter.DueBefore = &now
	overdue, err := s.tasks.CountTasks(ctx, overdueFilter)
	if err != nil {
		return nil, Internal("Failed to count overdue tasks", err)
	}

	byPriority, err := s.tasks.CountTasksByPriority(ctx, scope)
	if err != nil {
		return nil, Internal("Failed to count tasks by priority", err)
	}

	recent, err := s.tasks.FindTasks(ctx, scope, store.FindOptions{NewestFirst: true, Limit: recentTaskLimit})
	if err != nil {
		return nil, Internal("Failed to load recent tasks", err)
	}

	// All is the sum of the status buckets so the chart always adds up.
	distribution := make(map[string]int64, len(models.Statuses)+1)
	var total int64
	for _, st := range models.Statuses {
		distribution[st.Key()] = byStatus[st]
		total += byStatus[st]
	}
	distribution["All"] = total

	priorities := make(map[string]int64, len(models.Priorities))
	for _, p := range models.Priorities {
		priorities[string(p)] = byPriority[p]
	}

	summary := &DashboardSummary{
		Statistics: DashboardStatistics{
			TotalTasks:      total,
			PendingTasks:    byStatus[models.StatusPending],
			InProgressTasks: byStatus[models.StatusInProgress],
			CompletedTasks:  byStatus[models.StatusCompleted],
			OverdueTasks:    overdue,
		},
		Charts: DashboardCharts{
			TaskDistribution:   distribution,
			TaskPriorityLevels: priorities,
		},
		RecentTasks: make([]RecentTask, 0, len(recent)),
	}
	for _, t := range recent {
		summary.RecentTasks = append(summary.RecentTasks, RecentTask{
			ID:        t.ID,
			Title:     t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
			DueDate:   t.DueDate,
			CreatedAt: t.CreatedAt,
		})
	}
	return summary, nil
}

// ListTasks returns the tasks visible to r, optionally narrowed to one status.
// The status summary is computed under the same scope and filter.
func (s *DashboardService) ListTasks(ctx context.Context, r Requester, status string) (*TaskList, error) {
	filter := store.TaskFilter{}
	if !canViewAllTasks(r) {
		filter.AssignedTo = r.ID
	}
	if status != "" {
		st, err := models.ParseTaskStatus(status)
		if err != nil {
			return nil, ValidationError("%s", err.Error())
		}
		filter.Status = st
	}

	tasks, err := s.tasks.FindTasks(ctx, filter, store.FindOptions{NewestFirst: true})
	if err != nil {
		return nil, Internal("Failed to retrieve tasks", err)
	}
	details, err := populate(ctx, s.users, tasks)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.tasks.CountTasksByStatus(ctx, filter)
	if err != nil {
		return nil, Internal("Failed to count tasks by status", err)
	}

	list := &TaskList{Tasks: make([]TaskListItem, 0, len(details))}
	for _, d := range details {
		list.Tasks = append(list.Tasks, TaskListItem{
			TaskDetail:            d,
			CompletedTodoCount:    models.CompletedCount(d.TodoChecklist),
			CompletedTodoProgress: fmt.Sprintf("%d%%", models.ChecklistProgress(d.TodoChecklist)),
		})
	}
	list.StatusSummary = StatusSummary{
		PendingTasks:    byStatus[models.StatusPending],
		InProgressTasks: byStatus[models.StatusInProgress],
		CompletedTasks:  byStatus[models.StatusCompleted],
	}
	list.StatusSummary.All = list.StatusSummary.PendingTasks + list.StatusSummary.InProgressTasks + list.StatusSummary.CompletedTasks
	return list, nil
}
