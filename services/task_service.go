package services

import (
	"context"
	"slices"
	"strings"
	"time"

	"taskmanager/models"
	"taskmanager/store"
	"taskmanager/utils"

	"github.com/sirupsen/logrus"
)

// CreateTaskInput is the body of POST /tasks.
type CreateTaskInput struct {
	Title         string                  `json:"title" validate:"required,max=200"`
	Description   string                  `json:"description" validate:"required"`
	Priority      string                  `json:"priority"`
	DueDate       *models.FlexTime        `json:"dueDate" validate:"required"`
	AssignedTo    models.JSONList[string] `json:"assignedTo"`
	Attachments   []string                `json:"attachments"`
	TodoChecklist []models.ChecklistItem  `json:"todoChecklist" validate:"dive"`
}

// UpdateTaskInput is a partial update; nil or absent fields are left unchanged.
type UpdateTaskInput struct {
	Title         *string                 `json:"title"`
	Description   *string                 `json:"description"`
	Priority      *string                 `json:"priority"`
	DueDate       *models.FlexTime        `json:"dueDate"`
	Attachments   *[]string               `json:"attachments"`
	TodoChecklist *[]models.ChecklistItem `json:"todoChecklist"`
	AssignedTo    models.JSONList[string] `json:"assignedTo"`
}

// TaskDetail is a task with its assignees and creator resolved.
type TaskDetail struct {
	models.Task
	AssignedTo []models.UserRef `json:"assignedTo"`
	CreatedBy  *models.UserRef  `json:"createdBy"`
}

type TaskService struct {
	tasks    store.TaskStore
	users    store.UserStore
	events   *EventHub
	notifier Notifier
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewTaskService(tasks store.TaskStore, users store.UserStore, events *EventHub, notifier Notifier, logger logrus.FieldLogger) *TaskService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TaskService{
		tasks:    tasks,
		users:    users,
		events:   events,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *TaskService) Create(ctx context.Context, r Requester, in CreateTaskInput) (*models.Task, error) {
	if !canCreateTask(r) {
		return nil, Forbidden("Not authorized as an admin")
	}
	if !in.AssignedTo.IsList {
		return nil, ValidationError("assignedTo must be an array of user IDs")
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	priority := models.PriorityMedium
	if in.Priority != "" {
		p, err := models.ParsePriority(in.Priority)
		if err != nil {
			return nil, ValidationError("%s", err.Error())
		}
		priority = p
	}

	assigneeIDs, assignees, err := s.resolveAssignees(ctx, in.AssignedTo.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &models.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Priority:    priority,
		DueDate:     in.DueDate.Time,
		AssignedTo:  assigneeIDs,
		CreatedBy:   r.ID,
		Attachments: nonNil(in.Attachments),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.SetChecklist(in.TodoChecklist)

	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, Internal("Failed to create task", err)
	}

	s.logger.WithFields(logrus.Fields{"task_id": task.ID, "created_by": r.ID}).Info("Task created")
	s.events.Publish(TaskEvent{Type: EventTaskCreated, Task: *task})
	s.notifyAssigned(ctx, task, assignees)
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, r Requester, id string) (*TaskDetail, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccessTask(r, task) {
		return nil, Forbidden("Not authorized to view this task")
	}
	return s.detail(ctx, task)
}

func (s *TaskService) UpdateDetails(ctx context.Context, r Requester, id string, patch UpdateTaskInput) (*models.Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.AssignedTo.Present && !patch.AssignedTo.IsList {
		return nil, ValidationError("assignedTo must be an array of user IDs")
	}
	if !canAccessTask(r, task) {
		return nil, Forbidden("Not authorized to update this task")
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, ValidationError("title cannot be empty")
		}
		task.Title = title
	}
	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			return nil, ValidationError("description cannot be empty")
		}
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		p, err := models.ParsePriority(*patch.Priority)
		if err != nil {
			return nil, ValidationError("%s", err.Error())
		}
		task.Priority = p
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate.Time
	}
	if patch.Attachments != nil {
		task.Attachments = nonNil(*patch.Attachments)
	}
	if patch.TodoChecklist != nil {
		if err := validateChecklist(*patch.TodoChecklist); err != nil {
			return nil, err
		}
		task.SetChecklist(*patch.TodoChecklist)
	}

	var (
		added   []models.User
		removed []string
	)
	if patch.AssignedTo.Present {
		ids, assignees, err := s.resolveAssignees(ctx, patch.AssignedTo.Items)
		if err != nil {
			return nil, err
		}
		for _, u := range assignees {
			if !task.IsAssignee(u.ID) {
				added = append(added, u)
			}
		}
		for _, id := range task.AssignedTo {
			if !slices.Contains(ids, id) {
				removed = append(removed, id)
			}
		}
		task.AssignedTo = ids
	}

	task.UpdatedAt = s.now()
	if err := s.persist(ctx, task, removed...); err != nil {
		return nil, err
	}
	if len(added) > 0 {
		s.notifyAssigned(ctx, task, added)
	}
	return task, nil
}

func (s *TaskService) UpdateStatus(ctx context.Context, r Requester, id string, status string) (*models.Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccessTask(r, task) {
		return nil, Forbidden("Not authorized")
	}

	newStatus, err := models.ParseTaskStatus(status)
	if err != nil {
		return nil, ValidationError("%s", err.Error())
	}
	if err := task.SetStatus(newStatus); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	task.UpdatedAt = s.now()
	if err := s.persist(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) UpdateChecklist(ctx context.Context, r Requester, id string, checklist models.JSONList[models.ChecklistItem]) (*TaskDetail, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccessTask(r, task) {
		return nil, Forbidden("Not authorized to update checklist")
	}
	if !checklist.IsList {
		return nil, ValidationError("todoChecklist must be an array")
	}
	if err := validateChecklist(checklist.Items); err != nil {
		return nil, err
	}

	task.SetChecklist(checklist.Items)

	task.UpdatedAt = s.now()
	if err := s.persist(ctx, task); err != nil {
		return nil, err
	}
	return s.detail(ctx, task)
}

func (s *TaskService) Delete(ctx context.Context, r Requester, id string) error {
	if !canDeleteTask(r) {
		return Forbidden("Not authorized as an admin")
	}
	task, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		return storeError(err, "Task not found", "Failed to delete task")
	}

	s.logger.WithFields(logrus.Fields{"task_id": id, "deleted_by": r.ID}).Info("Task deleted")
	s.events.Publish(TaskEvent{Type: EventTaskDeleted, Task: *task})
	return nil
}

func (s *TaskService) load(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return nil, storeError(err, "Task not found", "Failed to load task")
	}
	return task, nil
}

// persist saves task and publishes the update to its assignees and to any
// former assignees dropped by this change.
func (s *TaskService) persist(ctx context.Context, task *models.Task, formerAssignees ...string) error {
	if err := s.tasks.ReplaceTask(ctx, task); err != nil {
		return storeError(err, "Task not found", "Failed to update task")
	}
	s.events.Publish(TaskEvent{Type: EventTaskUpdated, Task: *task, FormerAssignees: formerAssignees})
	return nil
}

// resolveAssignees de-duplicates ids and checks that each names a user.
func (s *TaskService) resolveAssignees(ctx context.Context, ids []string) ([]string, []models.User, error) {
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(unique, id) {
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, nil, ValidationError("assignedTo must contain at least one user")
	}

	users, err := s.users.FindUsers(ctx, unique)
	if err != nil {
		return nil, nil, Internal("Failed to load assignees", err)
	}
	if len(users) != len(unique) {
		var missing []string
		for _, id := range unique {
			if !slices.ContainsFunc(users, func(u models.User) bool { return u.ID == id }) {
				missing = append(missing, id)
			}
		}
		return nil, nil, ValidationError("assignedTo references unknown users: %s", strings.Join(missing, ", "))
	}
	return unique, users, nil
}

func (s *TaskService) notifyAssigned(ctx context.Context, task *models.Task, assignees []models.User) {
	if err := s.notifier.TaskAssigned(ctx, task, assignees); err != nil {
		s.logger.WithError(err).WithField("task_id", task.ID).Warn("Failed to notify assignees")
	}
}

func (s *TaskService) detail(ctx context.Context, task *models.Task) (*TaskDetail, error) {
	details, err := populate(ctx, s.users, []models.Task{*task})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// populate resolves assignee and creator references for a batch of tasks
// with a single user lookup. References to users that no longer exist are
// dropped.
func populate(ctx context.Context, users store.UserStore, tasks []models.Task) ([]TaskDetail, error) {
	var ids []string
	for _, t := range tasks {
		for _, id := range t.AssignedTo {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
		if t.CreatedBy != "" && !slices.Contains(ids, t.CreatedBy) {
			ids = append(ids, t.CreatedBy)
		}
	}

	byID := make(map[string]models.UserRef, len(ids))
	if len(ids) > 0 {
		found, err := users.FindUsers(ctx, ids)
		if err != nil {
			return nil, Internal("Failed to load task users", err)
		}
		for i := range found {
			byID[found[i].ID] = found[i].Ref()
		}
	}

	details := make([]TaskDetail, len(tasks))
	for i, t := range tasks {
		d := TaskDetail{Task: t, AssignedTo: []models.UserRef{}}
		for _, id := range t.AssignedTo {
			if ref, ok := byID[id]; ok {
				d.AssignedTo = append(d.AssignedTo, ref)
			}
		}
		if ref, ok := byID[t.CreatedBy]; ok {
			d.CreatedBy = &ref
		}
		details[i] = d
	}
	return details, nil
}

func validateChecklist(items []models.ChecklistItem) error {
	for i := range items {
		if err := utils.ValidateStruct(items[i]); err != nil {
			return ValidationError("todoChecklist[%d]: %s", i, err.Error())
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
