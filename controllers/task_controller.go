package controller

import (
	"taskmanager/models"
	"taskmanager/services"

	"github.com/gofiber/fiber/v2"
)

type TaskController struct {
	Tasks *services.TaskService
}

func NewTaskController(tasks *services.TaskService) *TaskController {
	return &TaskController{Tasks: tasks}
}

func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	var req services.CreateTaskInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	task, err := tc.Tasks.Create(c.UserContext(), requester(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Task created successfully",
		"task":    task,
	})
}

func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	task, err := tc.Tasks.Get(c.UserContext(), requester(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(task)
}

func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	var req services.UpdateTaskInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	task, err := tc.Tasks.UpdateDetails(c.UserContext(), requester(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Task updated successfully",
		"task":    task,
	})
}

func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	if err := tc.Tasks.Delete(c.UserContext(), requester(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Task deleted successfully"})
}

func (tc *TaskController) UpdateTaskStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	task, err := tc.Tasks.UpdateStatus(c.UserContext(), requester(c), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Task status updated",
		"task":    task,
	})
}

func (tc *TaskController) UpdateTaskChecklist(c *fiber.Ctx) error {
	var req struct {
		TodoChecklist models.JSONList[models.ChecklistItem] `json:"todoChecklist"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	task, err := tc.Tasks.UpdateChecklist(c.UserContext(), requester(c), c.Params("id"), req.TodoChecklist)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Task checklist updated",
		"task":    task,
	})
}
