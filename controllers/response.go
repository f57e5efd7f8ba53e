package controller

import (
	"errors"

	"taskmanager/middleware"
	"taskmanager/services"
	"taskmanager/utils"

	"github.com/gofiber/fiber/v2"
)

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindConflict:
		return fiber.StatusBadRequest
	case services.KindAuth:
		return fiber.StatusUnauthorized
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError converts a service error into the JSON error body. Internal
// errors are logged and reported with their cause.
func respondError(c *fiber.Ctx, err error) error {
	var serr *services.Error
	if !errors.As(err, &serr) {
		serr = services.Internal("Server error", err)
	}

	status := statusFor(serr.Kind)
	if status == fiber.StatusInternalServerError {
		utils.LogError("request_failed", err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		})
		return utils.ErrorResponse(c, status, serr.Message, serr.Err)
	}
	return utils.ErrorResponse(c, status, serr.Message, nil)
}

func invalidBody(c *fiber.Ctx, err error) error {
	return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
}

func requester(c *fiber.Ctx) services.Requester {
	user := middleware.CurrentUser(c)
	if user == nil {
		return services.Requester{}
	}
	return services.RequesterFor(user)
}

// ErrorHandler renders framework errors (unknown routes, oversized bodies,
// panics recovered upstream) with the same body as handler errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return utils.ErrorResponse(c, fe.Code, fe.Message, nil)
	}
	return respondError(c, err)
}
