package models

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every priority in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q", s)
}

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

func ParseTaskStatus(s string) (TaskStatus, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// Key is the status name with spaces stripped, as used in chart payloads.
func (s TaskStatus) Key() string {
	return strings.ReplaceAll(string(s), " ", "")
}

// ChecklistItem is a sub-unit of a task. It has no identity beyond its position.
type ChecklistItem struct {
	Text      string `json:"text" validate:"required"`
	Completed bool   `json:"completed"`
}

type Task struct {
	ID            string          `json:"_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Priority      Priority        `json:"priority"`
	Status        TaskStatus      `json:"status"`
	DueDate       time.Time       `json:"dueDate"`
	TodoChecklist []ChecklistItem `json:"todoChecklist"`
	Progress      int             `json:"progress"`
	AssignedTo    []string        `json:"assignedTo"`
	CreatedBy     string          `json:"createdBy"`
	Attachments   []string        `json:"attachments"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ChecklistProgress returns round(100*completed/total), or 0 for an empty list.
func ChecklistProgress(items []ChecklistItem) int {
	if len(items) == 0 {
		return 0
	}
	return int(math.Round(float64(100*CompletedCount(items)) / float64(len(items))))
}

func CompletedCount(items []ChecklistItem) int {
	n := 0
	for _, item := range items {
		if item.Completed {
			n++
		}
	}
	return n
}

// StatusForProgress maps a progress percentage onto the lifecycle stage.
func StatusForProgress(progress int) TaskStatus {
	switch {
	case progress >= 100:
		return StatusCompleted
	case progress > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// SetChecklist replaces the checklist and re-derives progress and status from it.
func (t *Task) SetChecklist(items []ChecklistItem) {
	if items == nil {
		items = []ChecklistItem{}
	}
	t.TodoChecklist = items
	t.Progress = ChecklistProgress(items)
	t.Status = StatusForProgress(t.Progress)
}

// ErrStatusMismatch is returned when an explicit status contradicts progress.
var ErrStatusMismatch = errors.New("status does not match task progress")

// SetStatus applies an explicit status. Completed overrides the checklist:
// every item is marked done and progress is pinned to 100. Any other status
// must agree with the current progress, so it never moves a task backwards.
func (t *Task) SetStatus(status TaskStatus) error {
	if status != StatusCompleted {
		if want := StatusForProgress(t.Progress); status != want {
			return fmt.Errorf("%w: progress %d%% requires %q", ErrStatusMismatch, t.Progress, want)
		}
		t.Status = status
		return nil
	}
	t.Status = status
	for i := range t.TodoChecklist {
		t.TodoChecklist[i].Completed = true
	}
	t.Progress = 100
	return nil
}

func (t *Task) IsAssignee(userID string) bool {
	return slices.Contains(t.AssignedTo, userID)
}

func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusCompleted && t.DueDate.Before(now)
}
