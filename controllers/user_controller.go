package controller

import (
	"taskmanager/services"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	Users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{Users: users}
}

func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	members, err := uc.Users.ListMembers(c.UserContext(), requester(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(members)
}

func (uc *UserController) GetUser(c *fiber.Ctx) error {
	user, err := uc.Users.GetUser(c.UserContext(), requester(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
