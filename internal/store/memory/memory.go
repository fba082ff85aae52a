package memory

import (
	"sync"

	"go.uber.org/zap"
	"matchpulse/internal/model"
)

// Store keeps the newest events per subscriber, oldest first, up to cap.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	cap     int
	records map[string][]model.NotificationEvent
	log     *zap.Logger
}

func New(capacity int, logger *zap.Logger) *Store {
	if capacity <= 0 {
		capacity = 100
	}
	return &Store{nextID: 1, cap: capacity, records: make(map[string][]model.NotificationEvent), log: logger}
}
