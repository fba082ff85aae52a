package repository

import (
	"context"

	"matchpulse/internal/model"
)

type EventRepository interface {
	AppendEvent(ctx context.Context, event model.NotificationEvent) (model.NotificationEvent, error)
	ListEvents(ctx context.Context, subscriberID string, limit int) ([]model.NotificationEvent, error)
}
