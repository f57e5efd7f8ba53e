package routes

import (
	controller "taskmanager/controllers"
	"taskmanager/middleware"
	"taskmanager/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

// Dependencies are the services and settings the HTTP surface is built from.
type Dependencies struct {
	Auth      *services.AuthService
	Tasks     *services.TaskService
	Dashboard *services.DashboardService
	Users     *services.UserService
	Reports   *services.ReportService
	Events    *services.EventHub

	// AuthLimiter guards the public auth endpoints; nil disables it.
	AuthLimiter fiber.Handler
	UploadDir   string
	Logger      *logrus.Logger
}

func accessLog(log *logrus.Logger) fiber.Handler {
	return logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Output: log.Out,
	})
}

func SetupAuthRoutes(api fiber.Router, deps Dependencies) {
	authController := controller.NewAuthController(deps.Auth, deps.UploadDir, deps.Logger.WithField("component", "auth"))
	protected := middleware.Protected(deps.Auth)

	auth := api.Group("/auth")

	limited := func(h fiber.Handler) []fiber.Handler {
		if deps.AuthLimiter == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{deps.AuthLimiter, h}
	}
	auth.Post("/signup", limited(authController.SignUp)...)
	auth.Post("/signin", limited(authController.SignIn)...)

	auth.Post("/signout", protected, authController.SignOut)
	auth.Get("/profile", protected, authController.GetProfile)
	auth.Put("/profile", protected, authController.UpdateProfile)
	auth.Post("/upload-image", protected, authController.UploadImage)
}

func SetupAPIRoutes(api fiber.Router, deps Dependencies) {
	taskController := controller.NewTaskController(deps.Tasks)
	dashboardController := controller.NewDashboardController(deps.Dashboard)
	userController := controller.NewUserController(deps.Users)
	reportController := controller.NewReportController(deps.Reports)
	eventsController := controller.NewTaskEventsController(deps.Events, deps.Logger.WithField("component", "task_events"))

	protected := middleware.Protected(deps.Auth)
	adminOnly := middleware.AdminOnly()

	// User routes
	users := api.Group("/users", protected)
	users.Get("/", adminOnly, userController.GetUsers)
	users.Get("/:id", userController.GetUser)

	// Task routes; fixed paths before /:id
	tasks := api.Group("/tasks", protected)
	tasks.Get("/dashboard-data", adminOnly, dashboardController.GetDashboardData)
	tasks.Get("/user-dashboard-data", dashboardController.GetUserDashboardData)
	tasks.Get("/events", eventsController.RequireUpgrade, websocket.New(eventsController.HandleTaskEventsWS))
	tasks.Get("/", dashboardController.GetTasks)
	tasks.Get("/:id", taskController.GetTask)
	tasks.Post("/", adminOnly, taskController.CreateTask)
	tasks.Put("/:id", taskController.UpdateTask)
	tasks.Delete("/:id", adminOnly, taskController.DeleteTask)
	tasks.Put("/:id/status", taskController.UpdateTaskStatus)
	tasks.Put("/:id/todo", taskController.UpdateTaskChecklist)

	// Report routes
	reports := api.Group("/reports", protected, adminOnly)
	reports.Get("/export/tasks", reportController.ExportTasksReport)
	reports.Get("/export/users", reportController.ExportUsersReport)
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if deps.UploadDir != "" {
		app.Static("/uploads", deps.UploadDir)
	}

	api := app.Group("/api/v1", accessLog(deps.Logger))
	SetupAuthRoutes(api, deps)
	SetupAPIRoutes(api, deps)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "The requested resource was not found",
		})
	})

	deps.Logger.Info("Routes initialized successfully")
}
