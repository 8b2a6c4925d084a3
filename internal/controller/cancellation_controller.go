package controller

import (
	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICancellationController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
}

type cancellationController struct {
	service service.ICancellationService
}

func NewCancellationController(service service.ICancellationService) ICancellationController {
	return &cancellationController{service: service}
}

func (c *cancellationController) RegisterRoutes(r fiber.Router) {
	r.Post("/cancellations", c.Create)
}

func (c *cancellationController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateCancellationRequest
	parseBody(ctx, &req)

	res, err := c.service.RecordCancellation(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

// parseBody decodes the body as JSON whatever the Content-Type says. A
// malformed body leaves req at its zero value so validation reports what is
// missing.
func parseBody[T any](ctx *fiber.Ctx, req *T) {
	body := ctx.Body()
	if len(body) == 0 {
		return
	}
	if err := ctx.App().Config().JSONDecoder(body, req); err != nil {
		var zero T
		*req = zero
	}
}
