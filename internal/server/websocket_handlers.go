package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/notifications"
	"github.com/babbageLabs/insta-lite/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler handles GET /api/ws. Each connection receives the
// caller's notifications and feed_item_added events.
// @Summary Realtime events
// @Description Upgrade to a websocket. Pass the JWT as the token query parameter.
// @Tags realtime
// @Security BearerAuth
// @Param token query string false "JWT when headers cannot be set"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	wsLog := observability.NewWSLogger(s.hubName(), middleware.Component("realtime"))

	upgrade := websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			wsLog.LogError(ctx, userID, err, "register")
			reason := "connection limit reached"
			if errors.Is(err, notifications.ErrUserFull) {
				reason = "too many connections for user"
			}
			_ = conn.WriteJSON(fiber.Map{"error": reason})
			_ = conn.Close()
			return
		}
		wsLog.LogConnect(ctx, userID, s.hub.ConnectionCount())

		if hello, err := notifications.MarshalEvent("connected", fiber.Map{"user_id": userID}); err == nil {
			client.TrySend([]byte(hello))
		}

		go client.WritePump()
		client.ReadPump()

		wsLog.LogDisconnect(ctx, userID, "read loop ended")
	})

	return func(c *fiber.Ctx) error {
		if s.hub == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "realtime disabled"})
		}
		if !websocket.IsWebSocketUpgrade(c) {
			middleware.Logger.DebugContext(c.UserContext(), "plain request to websocket endpoint",
				slog.String("path", c.Path()))
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}

func (s *Server) hubName() string {
	if s.hub == nil {
		return "notification hub"
	}
	return s.hub.Name()
}
