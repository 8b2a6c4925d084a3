package controller

import (
	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISubscriptionController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
	RequestCancel(ctx *fiber.Ctx) error
}

type subscriptionController struct {
	service service.ISubscriptionService
}

func NewSubscriptionController(service service.ISubscriptionService) ISubscriptionController {
	return &subscriptionController{service: service}
}

func (c *subscriptionController) RegisterRoutes(r fiber.Router) {
	r.Get("/subscription-status", c.Status)
	r.Post("/subscription-cancel-request", c.RequestCancel)
}

func (c *subscriptionController) Status(ctx *fiber.Ctx) error {
	req := dto.SubscriptionStatusQuery{Email: ctx.Query("email")}

	res, err := c.service.Status(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *subscriptionController) RequestCancel(ctx *fiber.Ctx) error {
	var req dto.SubscriptionCancelRequest
	parseBody(ctx, &req)

	res, err := c.service.RequestCancel(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
