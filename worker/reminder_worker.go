package worker

import (
	"context"
	"time"

	"taskmanager/models"
	"taskmanager/services"
	"taskmanager/store"

	"github.com/sirupsen/logrus"
)

// ReminderWorker periodically notifies assignees of unfinished tasks that
// are about to fall due. Each tick covers the window
// [now+Lead, now+Lead+Interval), so consecutive ticks never overlap.
type ReminderWorker struct {
	Tasks    store.TaskStore
	Users    store.UserStore
	Notifier services.Notifier
	Logger   logrus.FieldLogger

	Interval   time.Duration
	Lead       time.Duration
	StartDelay time.Duration

	now func() time.Time
}

func NewReminderWorker(tasks store.TaskStore, users store.UserStore, notifier services.Notifier, logger logrus.FieldLogger, interval, lead time.Duration) *ReminderWorker {
	return &ReminderWorker{
		Tasks:      tasks,
		Users:      users,
		Notifier:   notifier,
		Logger:     logger,
		Interval:   interval,
		Lead:       lead,
		StartDelay: 10 * time.Second,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (rw *ReminderWorker) Start(ctx context.Context) {
	// let the server start up first
	select {
	case <-ctx.Done():
		return
	case <-time.After(rw.StartDelay):
	}

	rw.Logger.WithFields(logrus.Fields{
		"interval": rw.Interval.String(),
		"lead":     rw.Lead.String(),
	}).Info("Reminder worker started")

	ticker := time.NewTicker(rw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rw.Logger.Info("Reminder worker shutting down...")
			return
		case <-ticker.C:
			if _, err := rw.ProcessDueTasks(ctx); err != nil {
				rw.Logger.WithError(err).Error("Error processing task reminders")
			}
		}
	}
}

// ProcessDueTasks sends reminders for the current window and returns how many
// tasks were reminded. A failed notification is logged and skipped.
func (rw *ReminderWorker) ProcessDueTasks(ctx context.Context) (int, error) {
	from := rw.now().Add(rw.Lead)
	to := from.Add(rw.Interval)

	tasks, err := rw.Tasks.FindTasks(ctx, store.TaskFilter{
		ExcludeStatus: models.StatusCompleted,
		DueAfter:      &from,
		DueBefore:     &to,
	}, store.FindOptions{})
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range tasks {
		task := &tasks[i]
		assignees, err := rw.Users.FindUsers(ctx, task.AssignedTo)
		if err != nil {
			rw.Logger.WithError(err).WithField("task_id", task.ID).Warn("Error loading assignees")
			continue
		}
		if len(assignees) == 0 {
			continue
		}
		if err := rw.Notifier.TaskDueSoon(ctx, task, assignees); err != nil {
			rw.Logger.WithError(err).WithField("task_id", task.ID).Warn("Error sending task reminder")
			continue
		}
		sent++
	}

	if sent > 0 {
		rw.Logger.WithField("count", sent).Info("Task reminders sent")
	}
	return sent, nil
}
