package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskmanager/models"
	"taskmanager/store"
)

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.CreateUser(ctx, &models.User{Email: "ada@example.com"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	err := s.CreateUser(ctx, &models.User{Email: "ADA@example.com"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestFindTasksNewestFirstKeepsInsertionOrderOnTies(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		title   string
		created time.Time
	}{
		{"old", base},
		{"tie-a", base.Add(time.Hour)},
		{"tie-b", base.Add(time.Hour)},
		{"new", base.Add(2 * time.Hour)},
	} {
		if err := s.CreateTask(ctx, &models.Task{Title: tc.title, CreatedAt: tc.created}); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	got, err := s.FindTasks(ctx, store.TaskFilter{}, store.FindOptions{NewestFirst: true, Limit: 3})
	if err != nil {
		t.Fatalf("FindTasks: %v", err)
	}
	want := []string{"new", "tie-a", "tie-b"}
	if len(got) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(got), len(want))
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("position %d = %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestTaskFilterDueWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	from := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	for _, tc := range []struct {
		title  string
		due    time.Time
		status models.TaskStatus
	}{
		{"at-start", from, models.StatusPending},
		{"inside", from.Add(30 * time.Minute), models.StatusInProgress},
		{"at-end", to, models.StatusPending},
		{"before", from.Add(-time.Minute), models.StatusPending},
		{"done", from.Add(10 * time.Minute), models.StatusCompleted},
	} {
		if err := s.CreateTask(ctx, &models.Task{Title: tc.title, DueDate: tc.due, Status: tc.status}); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	got, err := s.FindTasks(ctx, store.TaskFilter{
		ExcludeStatus: models.StatusCompleted,
		DueAfter:      &from,
		DueBefore:     &to,
	}, store.FindOptions{})
	if err != nil {
		t.Fatalf("FindTasks: %v", err)
	}
	if len(got) != 2 || got[0].Title != "at-start" || got[1].Title != "inside" {
		t.Errorf("unexpected window result: %+v", got)
	}
}

func TestTasksAreCopiedInAndOut(t *testing.T) {
	ctx := context.Background()
	s := New()

	task := &models.Task{Title: "t", AssignedTo: []string{"u1"}}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	task.AssignedTo[0] = "mutated"

	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.AssignedTo[0] != "u1" {
		t.Errorf("stored task was mutated through caller slice: %v", got.AssignedTo)
	}
}

func TestCountTasksByStatusHonorsAssignee(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, tc := range []struct {
		assignee string
		status   models.TaskStatus
	}{
		{"u1", models.StatusPending},
		{"u1", models.StatusCompleted},
		{"u2", models.StatusPending},
	} {
		if err := s.CreateTask(ctx, &models.Task{AssignedTo: []string{tc.assignee}, Status: tc.status}); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	counts, err := s.CountTasksByStatus(ctx, store.TaskFilter{AssignedTo: "u1"})
	if err != nil {
		t.Fatalf("CountTasksByStatus: %v", err)
	}
	if counts[models.StatusPending] != 1 || counts[models.StatusCompleted] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestDeleteMissingTask(t *testing.T) {
	if err := New().DeleteTask(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
