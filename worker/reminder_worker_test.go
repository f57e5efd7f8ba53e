package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"taskmanager/models"
	"taskmanager/store/memstore"

	"github.com/sirupsen/logrus"
)

type reminderRecorder struct {
	tasks []string
	fail  bool
}

func (r *reminderRecorder) TaskAssigned(context.Context, *models.Task, []models.User) error {
	return nil
}

func (r *reminderRecorder) TaskDueSoon(_ context.Context, task *models.Task, _ []models.User) error {
	if r.fail {
		return errors.New("smtp unavailable")
	}
	r.tasks = append(r.tasks, task.Title)
	return nil
}

func TestProcessDueTasks(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	user := &models.User{Name: "Alice", Email: "alice@example.com", Role: models.RoleMember}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	lead, interval := 24*time.Hour, time.Hour
	windowStart := now.Add(lead)
	for _, tc := range []struct {
		title  string
		due    time.Time
		status models.TaskStatus
		assign []string
	}{
		{"in window", windowStart.Add(10 * time.Minute), models.StatusPending, []string{user.ID}},
		{"window start", windowStart, models.StatusInProgress, []string{user.ID}},
		{"window end", windowStart.Add(interval), models.StatusPending, []string{user.ID}},
		{"already done", windowStart.Add(5 * time.Minute), models.StatusCompleted, []string{user.ID}},
		{"too early", now.Add(time.Hour), models.StatusPending, []string{user.ID}},
		{"orphaned", windowStart.Add(20 * time.Minute), models.StatusPending, []string{"deleted-user"}},
	} {
		task := &models.Task{Title: tc.title, DueDate: tc.due, Status: tc.status, AssignedTo: tc.assign}
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	recorder := &reminderRecorder{}
	w := NewReminderWorker(s, s, recorder, logger, interval, lead)
	w.now = func() time.Time { return now }

	sent, err := w.ProcessDueTasks(ctx)
	if err != nil {
		t.Fatalf("ProcessDueTasks: %v", err)
	}
	if sent != 2 {
		t.Errorf("sent = %d, want 2 (%v)", sent, recorder.tasks)
	}
	want := map[string]bool{"in window": true, "window start": true}
	for _, title := range recorder.tasks {
		if !want[title] {
			t.Errorf("unexpected reminder for %q", title)
		}
	}

	recorder.fail = true
	sent, err = w.ProcessDueTasks(ctx)
	if err != nil {
		t.Fatalf("ProcessDueTasks with failing notifier: %v", err)
	}
	if sent != 0 {
		t.Errorf("sent = %d, want 0 when every notification fails", sent)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	w := NewReminderWorker(memstore.New(), memstore.New(), &reminderRecorder{}, logger, time.Millisecond, time.Hour)
	w.StartDelay = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
