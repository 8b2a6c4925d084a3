package controller

import (
	"time"

	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/pkg/security"

	"github.com/gofiber/fiber/v2"
)

type ICSRFController interface {
	RegisterRoutes(r fiber.Router)
	Issue(ctx *fiber.Ctx) error
}

type csrfController struct {
	secureCookie bool
}

// NewCSRFController issues double-submit tokens. Cookies are marked Secure
// when secureCookie is set (production).
func NewCSRFController(secureCookie bool) ICSRFController {
	return &csrfController{secureCookie: secureCookie}
}

func (c *csrfController) RegisterRoutes(r fiber.Router) {
	r.Get("/csrf", c.Issue)
}

func (c *csrfController) Issue(ctx *fiber.Ctx) error {
	token, err := security.GenerateCSRFToken()
	if err != nil {
		return err
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     security.CSRFCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(security.CSRFTokenTTL / time.Second),
		HTTPOnly: true,
		Secure:   c.secureCookie,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return ctx.JSON(dto.CSRFResponse{CSRFToken: token})
}
