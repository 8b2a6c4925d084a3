package handler

import (
	"strings"

	"subscription-cancel-be/internal/pkg/logger"
	"subscription-cancel-be/internal/pkg/serverutils"
	internalWS "subscription-cancel-be/internal/websocket"
	"subscription-cancel-be/pkg/sanitize"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventsHandler streams a user's cancellation events over a websocket.
type EventsHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewEventsHandler(hub *internalWS.Hub, log logger.ILogger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: log}
}

func (h *EventsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/events", h.ServeWs)
}

// ServeWs upgrades GET /ws/events?email=. The email is the same dev identity
// the other routes take in the body or query.
func (h *EventsHandler) ServeWs(c *fiber.Ctx) error {
	if c.Query("email") == "" {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "email required"))
	}
	// Query strings are only valid during the request; the session outlives it.
	email, ok := sanitize.Email(strings.Clone(c.Query("email")))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid email"))
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info(logger.ModuleWebSocket, "Starting WebSocket session", map[string]interface{}{"email": email})
			internalWS.ServeWs(h.hub, conn, email)
			h.logger.Info(logger.ModuleWebSocket, "WebSocket session ended", map[string]interface{}{"email": email})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
