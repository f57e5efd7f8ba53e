package services

import (
	"testing"
	"time"

	"taskmanager/models"
	"taskmanager/store"
)

func TestCreateTask(t *testing.T) {
	f := newFixture(t)

	task, err := f.tasks.Create(f.ctx, f.as(f.admin), CreateTaskInput{
		Title:       "  Write report ",
		Description: "Quarterly numbers",
		Priority:    "High",
		DueDate:     &models.FlexTime{Time: fixedNow.Add(24 * time.Hour)},
		AssignedTo:  models.ListOf(f.alice.ID, f.bob.ID, f.alice.ID),
		TodoChecklist: []models.ChecklistItem{
			{Text: "draft", Completed: true},
			{Text: "review"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if task.Title != "Write report" {
		t.Errorf("title = %q", task.Title)
	}
	if task.CreatedBy != f.admin.ID {
		t.Errorf("createdBy = %q, want admin", task.CreatedBy)
	}
	if len(task.AssignedTo) != 2 {
		t.Errorf("assignees should be de-duplicated, got %v", task.AssignedTo)
	}
	if task.Progress != 50 || task.Status != models.StatusInProgress {
		t.Errorf("progress/status = %d/%q, want 50/In Progress", task.Progress, task.Status)
	}
	if task.Priority != models.PriorityHigh {
		t.Errorf("priority = %q", task.Priority)
	}
	if len(f.notifier.assigned) != 1 || len(f.notifier.assigned[0].assignees) != 2 {
		t.Errorf("assignment notifications = %+v", f.notifier.assigned)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "defaults", f.alice)

	if task.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want Medium", task.Priority)
	}
	if task.Status != models.StatusPending || task.Progress != 0 {
		t.Errorf("status/progress = %q/%d, want Pending/0", task.Status, task.Progress)
	}
	if task.TodoChecklist == nil || task.Attachments == nil {
		t.Error("checklist and attachments should default to empty lists")
	}
}

func TestCreateTaskRejectsNonListAssignees(t *testing.T) {
	f := newFixture(t)

	_, err := f.tasks.Create(f.ctx, f.as(f.admin), CreateTaskInput{
		Title:       "bad",
		Description: "bad",
		DueDate:     &models.FlexTime{Time: fixedNow},
		AssignedTo:  models.JSONList[string]{Present: true},
	})
	assertKind(t, err, KindValidation)
	if err.Error() != "assignedTo must be an array of user IDs" {
		t.Errorf("message = %q", err.Error())
	}

	n, _ := f.store.CountTasks(f.ctx, store.TaskFilter{})
	if n != 0 {
		t.Errorf("%d tasks persisted, want 0", n)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t)
	due := &models.FlexTime{Time: fixedNow}

	tests := []struct {
		name string
		in   CreateTaskInput
	}{
		{"missing title", CreateTaskInput{Description: "d", DueDate: due, AssignedTo: models.ListOf(f.alice.ID)}},
		{"missing due date", CreateTaskInput{Title: "t", Description: "d", AssignedTo: models.ListOf(f.alice.ID)}},
		{"empty assignees", CreateTaskInput{Title: "t", Description: "d", DueDate: due, AssignedTo: models.ListOf[string]()}},
		{"unknown assignee", CreateTaskInput{Title: "t", Description: "d", DueDate: due, AssignedTo: models.ListOf("ghost")}},
		{"bad priority", CreateTaskInput{Title: "t", Description: "d", DueDate: due, Priority: "Urgent", AssignedTo: models.ListOf(f.alice.ID)}},
		{"blank checklist item", CreateTaskInput{Title: "t", Description: "d", DueDate: due, AssignedTo: models.ListOf(f.alice.ID),
			TodoChecklist: []models.ChecklistItem{{Text: ""}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tasks.Create(f.ctx, f.as(f.admin), tt.in)
			assertKind(t, err, KindValidation)
		})
	}
}

func TestCreateTaskRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	_, err := f.tasks.Create(f.ctx, f.as(f.alice), CreateTaskInput{
		Title: "t", Description: "d", DueDate: &models.FlexTime{Time: fixedNow}, AssignedTo: models.ListOf(f.alice.ID),
	})
	assertKind(t, err, KindForbidden)
}

func TestGetTaskVisibility(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "visible", f.alice)

	detail, err := f.tasks.Get(f.ctx, f.as(f.alice), task.ID)
	if err != nil {
		t.Fatalf("Get as assignee: %v", err)
	}
	if len(detail.AssignedTo) != 1 || detail.AssignedTo[0].Name != "Alice" {
		t.Errorf("assignees not populated: %+v", detail.AssignedTo)
	}
	if detail.CreatedBy == nil || detail.CreatedBy.Email != "admin@example.com" {
		t.Errorf("creator not populated: %+v", detail.CreatedBy)
	}

	_, err = f.tasks.Get(f.ctx, f.as(f.bob), task.ID)
	assertKind(t, err, KindForbidden)

	_, err = f.tasks.Get(f.ctx, f.as(f.admin), "missing")
	assertKind(t, err, KindNotFound)
}

func TestUpdateDetails(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "original", f.alice)
	f.notifier.assigned = nil

	title := "renamed"
	checklist := []models.ChecklistItem{{Text: "a", Completed: true}, {Text: "b", Completed: true}}
	updated, err := f.tasks.UpdateDetails(f.ctx, f.as(f.alice), task.ID, UpdateTaskInput{
		Title:         &title,
		TodoChecklist: &checklist,
		AssignedTo:    models.ListOf(f.alice.ID, f.bob.ID),
	})
	if err != nil {
		t.Fatalf("UpdateDetails: %v", err)
	}

	if updated.Title != "renamed" || updated.Description != "original description" {
		t.Errorf("patch applied incorrectly: %q / %q", updated.Title, updated.Description)
	}
	if updated.Status != models.StatusCompleted || updated.Progress != 100 {
		t.Errorf("status/progress = %q/%d", updated.Status, updated.Progress)
	}
	if len(f.notifier.assigned) != 1 || f.notifier.assigned[0].assignees[0] != f.bob.ID {
		t.Errorf("only the new assignee should be notified: %+v", f.notifier.assigned)
	}

	stored, _ := f.store.GetTask(f.ctx, task.ID)
	if stored.Title != "renamed" || len(stored.AssignedTo) != 2 {
		t.Errorf("update not persisted: %+v", stored)
	}
}

func TestUpdateDetailsErrors(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "t", f.alice)

	_, err := f.tasks.UpdateDetails(f.ctx, f.as(f.admin), "missing", UpdateTaskInput{})
	assertKind(t, err, KindNotFound)

	_, err = f.tasks.UpdateDetails(f.ctx, f.as(f.admin), task.ID, UpdateTaskInput{
		AssignedTo: models.JSONList[string]{Present: true},
	})
	assertKind(t, err, KindValidation)

	_, err = f.tasks.UpdateDetails(f.ctx, f.as(f.bob), task.ID, UpdateTaskInput{})
	assertKind(t, err, KindForbidden)

	empty := " "
	_, err = f.tasks.UpdateDetails(f.ctx, f.as(f.admin), task.ID, UpdateTaskInput{Title: &empty})
	assertKind(t, err, KindValidation)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "t", f.alice)
	checklist := models.ListOf(models.ChecklistItem{Text: "a"}, models.ChecklistItem{Text: "b", Completed: true})
	if _, err := f.tasks.UpdateChecklist(f.ctx, f.as(f.alice), task.ID, checklist); err != nil {
		t.Fatalf("UpdateChecklist: %v", err)
	}

	updated, err := f.tasks.UpdateStatus(f.ctx, f.as(f.alice), task.ID, "Completed")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Progress != 100 {
		t.Errorf("progress = %d, want 100", updated.Progress)
	}
	for i, item := range updated.TodoChecklist {
		if !item.Completed {
			t.Errorf("item %d not completed", i)
		}
	}

	_, err = f.tasks.UpdateStatus(f.ctx, f.as(f.alice), task.ID, "Done")
	assertKind(t, err, KindValidation)

	_, err = f.tasks.UpdateStatus(f.ctx, f.as(f.bob), task.ID, "Pending")
	assertKind(t, err, KindForbidden)
}

func TestUpdateStatusCannotContradictProgress(t *testing.T) {
	f := newFixture(t)

	done := f.createTask(t, "done", f.alice)
	if _, err := f.tasks.UpdateChecklist(f.ctx, f.as(f.alice), done.ID, models.ListOf(
		models.ChecklistItem{Text: "a", Completed: true},
		models.ChecklistItem{Text: "b", Completed: true},
	)); err != nil {
		t.Fatalf("UpdateChecklist: %v", err)
	}
	for _, status := range []string{"Pending", "In Progress"} {
		_, err := f.tasks.UpdateStatus(f.ctx, f.as(f.alice), done.ID, status)
		assertKind(t, err, KindValidation)
	}

	working := f.createTask(t, "working", f.alice)
	f.startTask(t, f.alice, working.ID)
	_, err := f.tasks.UpdateStatus(f.ctx, f.as(f.admin), working.ID, "Pending")
	assertKind(t, err, KindValidation)

	// same status as the progress implies is accepted
	if _, err := f.tasks.UpdateStatus(f.ctx, f.as(f.alice), working.ID, "In Progress"); err != nil {
		t.Fatalf("UpdateStatus(In Progress): %v", err)
	}

	for _, id := range []string{done.ID, working.ID} {
		stored, err := f.store.GetTask(f.ctx, id)
		if err != nil {
			t.Fatalf("GetTask: %v", err)
		}
		if models.StatusForProgress(stored.Progress) != stored.Status {
			t.Errorf("%s: status %q with progress %d", stored.Title, stored.Status, stored.Progress)
		}
	}

	list, err := f.dashboard.ListTasks(f.ctx, f.as(f.alice), "Pending")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	for _, item := range list.Tasks {
		if item.CompletedTodoProgress != "0%" {
			t.Errorf("pending task %q listed at %s", item.Title, item.CompletedTodoProgress)
		}
	}
}

func TestUpdateChecklist(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "t", f.alice)

	detail, err := f.tasks.UpdateChecklist(f.ctx, f.as(f.alice), task.ID, models.ListOf(
		models.ChecklistItem{Text: "a", Completed: true},
		models.ChecklistItem{Text: "b"},
		models.ChecklistItem{Text: "c", Completed: true},
	))
	if err != nil {
		t.Fatalf("UpdateChecklist: %v", err)
	}
	if detail.Progress != 67 || detail.Status != models.StatusInProgress {
		t.Errorf("progress/status = %d/%q, want 67/In Progress", detail.Progress, detail.Status)
	}
	if len(detail.AssignedTo) != 1 {
		t.Errorf("returned task should be populated")
	}

	// an empty checklist resets to Pending even after an explicit completion
	if _, err := f.tasks.UpdateStatus(f.ctx, f.as(f.admin), task.ID, "Completed"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	detail, err = f.tasks.UpdateChecklist(f.ctx, f.as(f.admin), task.ID, models.ListOf[models.ChecklistItem]())
	if err != nil {
		t.Fatalf("UpdateChecklist: %v", err)
	}
	if detail.Progress != 0 || detail.Status != models.StatusPending {
		t.Errorf("progress/status = %d/%q, want 0/Pending", detail.Progress, detail.Status)
	}
}

func TestUpdateChecklistAuthorization(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "t", f.alice)

	_, err := f.tasks.UpdateChecklist(f.ctx, f.as(f.bob), task.ID, models.ListOf(models.ChecklistItem{Text: "x"}))
	assertKind(t, err, KindForbidden)

	_, err = f.tasks.UpdateChecklist(f.ctx, f.as(f.alice), task.ID, models.JSONList[models.ChecklistItem]{Present: true})
	assertKind(t, err, KindValidation)
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "t", f.alice)

	err := f.tasks.Delete(f.ctx, f.as(f.alice), task.ID)
	assertKind(t, err, KindForbidden)

	stored, err := f.store.GetTask(f.ctx, task.ID)
	if err != nil {
		t.Fatalf("task should survive a forbidden delete: %v", err)
	}
	if stored.Title != task.Title || stored.Status != task.Status {
		t.Errorf("task changed by forbidden delete: %+v", stored)
	}

	if err := f.tasks.Delete(f.ctx, f.as(f.admin), task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	err = f.tasks.Delete(f.ctx, f.as(f.admin), task.ID)
	assertKind(t, err, KindNotFound)
}

func TestTaskEventsArePublished(t *testing.T) {
	f := newFixture(t)
	events, cancel := f.hub.Subscribe(f.as(f.alice))
	defer cancel()

	task := f.createTask(t, "t", f.alice)
	f.startTask(t, f.alice, task.ID)
	if err := f.tasks.Delete(f.ctx, f.as(f.admin), task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := []EventType{EventTaskCreated, EventTaskUpdated, EventTaskDeleted}
	for _, w := range want {
		select {
		case e := <-events:
			if e.Type != w || e.Task.ID != task.ID {
				t.Errorf("event = %s/%s, want %s/%s", e.Type, e.Task.ID, w, task.ID)
			}
		default:
			t.Fatalf("missing %s event", w)
		}
	}
}

func TestReassignmentNotifiesRemovedAssignee(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "handover", f.alice)

	aliceEvents, cancelAlice := f.hub.Subscribe(f.as(f.alice))
	defer cancelAlice()
	bobEvents, cancelBob := f.hub.Subscribe(f.as(f.bob))
	defer cancelBob()

	if _, err := f.tasks.UpdateDetails(f.ctx, f.as(f.admin), task.ID, UpdateTaskInput{
		AssignedTo: models.ListOf(f.bob.ID),
	}); err != nil {
		t.Fatalf("UpdateDetails: %v", err)
	}

	for name, ch := range map[string]<-chan TaskEvent{"alice": aliceEvents, "bob": bobEvents} {
		select {
		case e := <-ch:
			if e.Type != EventTaskUpdated || e.Task.ID != task.ID {
				t.Errorf("%s got %s/%s", name, e.Type, e.Task.ID)
			}
			if e.Task.IsAssignee(f.alice.ID) || !e.Task.IsAssignee(f.bob.ID) {
				t.Errorf("%s saw assignees %v", name, e.Task.AssignedTo)
			}
		default:
			t.Errorf("%s did not receive the update", name)
		}
	}

	// later updates no longer reach alice
	if _, err := f.tasks.UpdateStatus(f.ctx, f.as(f.bob), task.ID, "Completed"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	select {
	case e := <-aliceEvents:
		t.Errorf("alice received %s after being unassigned", e.Type)
	default:
	}
}
