package controller

import (
	"errors"
	"os"
	"path/filepath"

	"taskmanager/middleware"
	"taskmanager/models"
	"taskmanager/services"
	"taskmanager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// authUser is the user payload returned alongside a fresh token.
type authUser struct {
	ID              string      `json:"_id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	ProfileImageURL string      `json:"profileImageUrl"`
	Role            models.Role `json:"role"`
	Token           string      `json:"token"`
}

func newAuthUser(s *services.Session) authUser {
	return authUser{
		ID:              s.User.ID,
		Name:            s.User.Name,
		Email:           s.User.Email,
		ProfileImageURL: s.User.ProfileImageURL,
		Role:            s.User.Role,
		Token:           s.Token,
	}
}

type AuthController struct {
	Auth      *services.AuthService
	UploadDir string
	Logger    logrus.FieldLogger
}

func NewAuthController(auth *services.AuthService, uploadDir string, logger logrus.FieldLogger) *AuthController {
	return &AuthController{
		Auth:      auth,
		UploadDir: uploadDir,
		Logger:    logger,
	}
}

func (ac *AuthController) SignUp(c *fiber.Ctx) error {
	var req services.SignUpInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	session, err := ac.Auth.SignUp(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    newAuthUser(session),
	})
}

func (ac *AuthController) SignIn(c *fiber.Ctx) error {
	var req services.SignInInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	session, err := ac.Auth.SignIn(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Sign in successful",
		"user":    newAuthUser(session),
	})
}

func (ac *AuthController) SignOut(c *fiber.Ctx) error {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Not authorized, no token", nil)
	}
	if err := ac.Auth.SignOut(c.UserContext(), claims); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Signed out successfully"})
}

func (ac *AuthController) GetProfile(c *fiber.Ctx) error {
	user, err := ac.Auth.Profile(c.UserContext(), requester(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (ac *AuthController) UpdateProfile(c *fiber.Ctx) error {
	var req services.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	session, err := ac.Auth.UpdateProfile(c.UserContext(), requester(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    newAuthUser(session),
	})
}

func (ac *AuthController) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No file uploaded", nil)
	}

	name, err := utils.ImageFileName(file)
	if err != nil {
		if errors.Is(err, utils.ErrUnsupportedImage) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
		}
		return respondError(c, err)
	}

	if err := os.MkdirAll(ac.UploadDir, 0o755); err != nil {
		return respondError(c, services.Internal("Failed to prepare upload directory", err))
	}
	if err := c.SaveFile(file, filepath.Join(ac.UploadDir, name)); err != nil {
		return respondError(c, services.Internal("Failed to save image", err))
	}

	imageURL := c.BaseURL() + "/uploads/" + name
	ac.Logger.WithField("image_url", imageURL).Info("Image uploaded")

	return c.JSON(fiber.Map{
		"message":  "Image uploaded successfully",
		"imageUrl": imageURL,
	})
}
