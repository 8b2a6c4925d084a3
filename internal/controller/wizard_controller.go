package controller

import (
	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/internal/pkg/serverutils"
	"subscription-cancel-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWizardController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Apply(ctx *fiber.Ctx) error
}

type wizardController struct {
	service service.IWizardService
}

func NewWizardController(service service.IWizardService) IWizardController {
	return &wizardController{service: service}
}

func (c *wizardController) RegisterRoutes(r fiber.Router) {
	r.Post("/wizard/sessions", c.Start)
	r.Get("/wizard/sessions/:id", c.Get)
	r.Post("/wizard/sessions/:id/events", c.Apply)
}

func (c *wizardController) Start(ctx *fiber.Ctx) error {
	var req dto.StartWizardRequest
	parseBody(ctx, &req)

	res, err := c.service.Start(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Wizard started", res))
}

func (c *wizardController) Get(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Wizard session", res))
}

func (c *wizardController) Apply(ctx *fiber.Ctx) error {
	var req dto.WizardEventRequest
	parseBody(ctx, &req)

	res, err := c.service.Apply(ctx.UserContext(), ctx.Params("id"), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Event applied", res))
}
