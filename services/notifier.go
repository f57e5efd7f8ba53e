package services

import (
	"context"

	"taskmanager/models"
)

// Notifier delivers out-of-band messages about tasks to users.
type Notifier interface {
	TaskAssigned(ctx context.Context, task *models.Task, assignees []models.User) error
	TaskDueSoon(ctx context.Context, task *models.Task, assignees []models.User) error
}

type NopNotifier struct{}

func (NopNotifier) TaskAssigned(context.Context, *models.Task, []models.User) error { return nil }
func (NopNotifier) TaskDueSoon(context.Context, *models.Task, []models.User) error  { return nil }
