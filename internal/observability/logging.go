// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
)

// WSLogger provides structured logging for realtime connections.
type WSLogger struct {
	hubName string
	logger  *slog.Logger
	enabled bool
}

// NewWSLogger creates a WSLogger for the named hub. A nil logger disables it.
func NewWSLogger(hubName string, logger *slog.Logger) *WSLogger {
	return &WSLogger{hubName: hubName, logger: logger, enabled: logger != nil}
}

// LogConnect logs a WebSocket connection event.
func (l *WSLogger) LogConnect(ctx context.Context, userID uint, conns int) {
	if !l.enabled {
		return
	}
	l.logger.InfoContext(ctx, "websocket connected",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.Int("connections", conns),
	)
}

// LogDisconnect logs a WebSocket disconnection event.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID uint, reason string) {
	if !l.enabled {
		return
	}
	l.logger.InfoContext(ctx, "websocket disconnected",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("reason", reason),
	)
}

// LogError logs a WebSocket error event.
func (l *WSLogger) LogError(ctx context.Context, userID uint, err error, eventType string) {
	if !l.enabled {
		return
	}
	l.logger.ErrorContext(ctx, "websocket error",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}
