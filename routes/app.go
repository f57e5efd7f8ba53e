package routes

import (
	controller "taskmanager/controllers"
	"taskmanager/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const bodyLimit = 10 * 1024 * 1024

// NewApp builds the fiber application with global middleware and all routes.
func NewApp(deps Dependencies, clientURL string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "taskmanager-api",
		ErrorHandler: controller.ErrorHandler,
		BodyLimit:    bodyLimit,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(middleware.DefaultCORSConfig(clientURL)))

	SetupRoutes(app, deps)
	return app
}
