// Package service implements the business rules behind the HTTP API.
package service

import (
	"context"

	"feeds/internal/middleware"
)

// EventPublisher delivers realtime events to a user. notifications.Notifier
// satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, userID uint, eventType string, payload any) error
}

// publish sends an event best-effort; delivery failures never fail the
// operation that triggered them.
func publish(ctx context.Context, p EventPublisher, userID uint, eventType string, payload any) {
	if p == nil || userID == 0 {
		return
	}
	if err := p.PublishEvent(ctx, userID, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "publish event failed",
			"event", eventType, "target_user_id", userID, "error", err.Error())
	}
}
