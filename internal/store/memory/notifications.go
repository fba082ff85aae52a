package memory

import (
	"context"
	"time"

	"matchpulse/internal/model"
)

func (s *Store) AppendEvent(_ context.Context, event model.NotificationEvent) (model.NotificationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = s.nextID
	s.nextID++
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	records := append(s.records[event.SubscriberID], event)
	if over := len(records) - s.cap; over > 0 {
		records = append([]model.NotificationEvent(nil), records[over:]...)
	}
	s.records[event.SubscriberID] = records
	return event, nil
}

// ListEvents returns up to limit events, newest first. limit <= 0 means all.
func (s *Store) ListEvents(_ context.Context, subscriberID string, limit int) ([]model.NotificationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records[subscriberID]
	var result []model.NotificationEvent
	for i := len(records) - 1; i >= 0; i-- {
		result = append(result, records[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}
