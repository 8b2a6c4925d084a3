package serverutils

import (
	"subscription-cancel-be/internal/pkg/apperror"
	"subscription-cancel-be/pkg/security"

	"github.com/gofiber/fiber/v2"
)

// CSRFMiddleware checks the double-submitted token on mutating requests.
// With enforce off it only passes through.
func CSRFMiddleware(enforce bool) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !enforce {
			return ctx.Next()
		}
		switch ctx.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return ctx.Next()
		}
		if !security.CSRFTokensMatch(ctx.Cookies(security.CSRFCookieName), ctx.Get(security.CSRFHeaderName)) {
			return apperror.Forbidden("invalid csrf token")
		}
		return ctx.Next()
	}
}
