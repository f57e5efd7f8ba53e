package middleware

import (
	"errors"
	"strings"

	"taskmanager/models"
	"taskmanager/services"
	"taskmanager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	LocalUser   = "user"
	LocalClaims = "claims"
)

// Protected resolves the bearer token to a user and stores it in Locals.
// Websocket upgrades may pass the token as a query parameter instead.
func Protected(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid authorization format", nil)
			}
			token = tokenParts[1]
		} else if websocket.IsWebSocketUpgrade(c) {
			token = c.Query("token")
		}
		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Not authorized, no token", nil)
		}

		user, claims, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			var serr *services.Error
			if errors.As(err, &serr) && serr.Kind == services.KindAuth {
				return utils.ErrorResponse(c, fiber.StatusUnauthorized, serr.Message, nil)
			}
			utils.LogError("authentication_failed", err, map[string]interface{}{"path": c.Path()})
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Authentication failed", nil)
		}

		c.Locals(LocalUser, user)
		c.Locals(LocalClaims, claims)
		return c.Next()
	}
}

// AdminOnly must run after Protected.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(LocalUser).(*models.User)
		if !ok || !user.Role.IsAdmin() {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Access denied, admin only", nil)
		}
		return c.Next()
	}
}

// CurrentUser returns the user stored by Protected, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalUser).(*models.User)
	return user
}

// CurrentClaims returns the token claims stored by Protected, or nil.
func CurrentClaims(c *fiber.Ctx) *utils.Claims {
	claims, _ := c.Locals(LocalClaims).(*utils.Claims)
	return claims
}
