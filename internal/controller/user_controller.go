package controller

import (
	"subscription-cancel-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type userController struct {
	service service.IUserService
}

func NewUserController(service service.IUserService) IUserController {
	return &userController{service: service}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	r.Get("/users", c.List)
}

func (c *userController) List(ctx *fiber.Ctx) error {
	res, err := c.service.ListEmails(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
