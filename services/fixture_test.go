package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"taskmanager/models"
	"taskmanager/store/memstore"

	"github.com/sirupsen/logrus"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type notification struct {
	taskID    string
	assignees []string
}

type recordingNotifier struct {
	mu       sync.Mutex
	assigned []notification
	dueSoon  []notification
}

func (n *recordingNotifier) record(dst *[]notification, task *models.Task, users []models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	*dst = append(*dst, notification{taskID: task.ID, assignees: ids})
}

func (n *recordingNotifier) TaskAssigned(_ context.Context, task *models.Task, users []models.User) error {
	n.record(&n.assigned, task, users)
	return nil
}

func (n *recordingNotifier) TaskDueSoon(_ context.Context, task *models.Task, users []models.User) error {
	n.record(&n.dueSoon, task, users)
	return nil
}

type fixture struct {
	ctx       context.Context
	store     *memstore.Store
	hub       *EventHub
	notifier  *recordingNotifier
	tasks     *TaskService
	dashboard *DashboardService

	admin, alice, bob *models.User
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		store:    memstore.New(),
		hub:      NewEventHub(8),
		notifier: &recordingNotifier{},
	}
	f.tasks = NewTaskService(f.store, f.store, f.hub, f.notifier, quietLogger())
	f.tasks.now = func() time.Time { return fixedNow }
	f.dashboard = NewDashboardService(f.store, f.store)
	f.dashboard.now = func() time.Time { return fixedNow }

	f.admin = f.addUser(t, "Admin", "admin@example.com", models.RoleAdmin)
	f.alice = f.addUser(t, "Alice", "alice@example.com", models.RoleMember)
	f.bob = f.addUser(t, "Bob", "bob@example.com", models.RoleMember)
	return f
}

func (f *fixture) addUser(t *testing.T, name, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Role: role, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	if err := f.store.CreateUser(f.ctx, u); err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func (f *fixture) as(u *models.User) Requester {
	return RequesterFor(u)
}

func (f *fixture) createTask(t *testing.T, title string, assignees ...*models.User) *models.Task {
	t.Helper()
	ids := make([]string, len(assignees))
	for i, u := range assignees {
		ids[i] = u.ID
	}
	task, err := f.tasks.Create(f.ctx, f.as(f.admin), CreateTaskInput{
		Title:       title,
		Description: title + " description",
		DueDate:     &models.FlexTime{Time: fixedNow.Add(48 * time.Hour)},
		AssignedTo:  models.ListOf(ids...),
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", title, err)
	}
	return task
}

// startTask moves a task to In Progress by completing half of a checklist.
func (f *fixture) startTask(t *testing.T, by *models.User, taskID string) {
	t.Helper()
	checklist := models.ListOf(models.ChecklistItem{Text: "first", Completed: true}, models.ChecklistItem{Text: "second"})
	detail, err := f.tasks.UpdateChecklist(f.ctx, f.as(by), taskID, checklist)
	if err != nil {
		t.Fatalf("UpdateChecklist(%s): %v", taskID, err)
	}
	if detail.Status != models.StatusInProgress {
		t.Fatalf("status = %q, want In Progress", detail.Status)
	}
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("error kind = %s, want %s (err: %v)", got, want, err)
	}
}
