package serverutils

import (
	"errors"

	"subscription-cancel-be/internal/pkg/apperror"
	"subscription-cancel-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into a status code
// and an ErrorBody. Unclassified errors are logged and reported as 500.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status, message := classify(err)
		if status >= fiber.StatusInternalServerError && log != nil {
			log.Error(logger.ModuleHTTP, "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
		}
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	kind := apperror.KindOf(err)
	if kind == apperror.KindUnknown {
		return fiber.StatusInternalServerError, "internal server error"
	}
	return kind.HTTPStatus(), apperror.Message(err)
}
