package notify

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"matchpulse/internal/config"
	"matchpulse/internal/domain"
	"matchpulse/internal/model"
	"matchpulse/internal/queue"
	"matchpulse/internal/repository"
	"matchpulse/internal/sse"
)

type Service struct {
	store  repository.EventRepository
	hub    *sse.Hub
	pub    queue.Publisher
	relay  bool
	prefix string
	log    *zap.Logger
}

func NewService(cfg *config.Config, store repository.EventRepository, hub *sse.Hub, publisher queue.Publisher, logger *zap.Logger) *Service {
	prefix := cfg.RabbitPublishPrefix
	if prefix == "" {
		prefix = "notification"
	}
	return &Service{
		store:  store,
		hub:    hub,
		pub:    publisher,
		relay:  cfg.RabbitMQURL != "",
		prefix: prefix,
		log:    logger,
	}
}

// Dispatch hands a synthesized batch to delivery. With a broker configured
// events travel through it and come back via the consumer; otherwise they are
// delivered in process. Failures are logged and never returned to the poll
// loop.
func (s *Service) Dispatch(ctx context.Context, events []model.NotificationEvent) {
	for _, event := range events {
		if s.relay {
			err := s.publish(ctx, event)
			if err == nil {
				continue
			}
			s.log.Warn("relay publish failed, delivering locally",
				zap.String("subscriber_id", event.SubscriberID),
				zap.String("match_id", event.MatchID),
				zap.String("type", string(event.Type)),
				zap.Error(err),
			)
		}
		if _, err := s.Deliver(ctx, event); err != nil {
			s.log.Error("deliver event failed",
				zap.String("subscriber_id", event.SubscriberID),
				zap.String("match_id", event.MatchID),
				zap.Error(err),
			)
		}
	}
}

// Deliver records the event in history and pushes it to the subscriber's
// open connections.
func (s *Service) Deliver(ctx context.Context, event model.NotificationEvent) (model.NotificationEvent, error) {
	if err := domain.ValidateEvent(event); err != nil {
		return model.NotificationEvent{}, err
	}
	recorded, err := s.store.AppendEvent(ctx, event)
	if err != nil {
		s.log.Error("store append event failed",
			zap.String("subscriber_id", event.SubscriberID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		return model.NotificationEvent{}, err
	}
	if n := s.hub.Publish(recorded.SubscriberID, recorded); n == 0 {
		s.log.Debug("subscriber offline, push skipped",
			zap.String("subscriber_id", recorded.SubscriberID),
			zap.Int64("event_id", recorded.ID),
		)
	}
	return recorded, nil
}

func (s *Service) ListHistory(ctx context.Context, subscriberID string, limit int) ([]model.NotificationEvent, error) {
	history, err := s.store.ListEvents(ctx, subscriberID, limit)
	if err != nil {
		s.log.Error("store list events failed", zap.String("subscriber_id", subscriberID), zap.Int("limit", limit), zap.Error(err))
		return nil, err
	}
	return history, nil
}

func (s *Service) publish(ctx context.Context, event model.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.pub.Publish(ctx, payload, s.prefix+"."+string(event.Type))
}
