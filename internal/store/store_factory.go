package store

import (
	"go.uber.org/zap"
	"matchpulse/internal/config"
	"matchpulse/internal/repository"
	"matchpulse/internal/store/memory"
)

// NewStore returns the notification history store. History is memory only
// and starts empty on every process start.
func NewStore(cfg *config.Config, logger *zap.Logger) repository.EventRepository {
	logger.Info("notification history in memory", zap.Int("cap_per_subscriber", cfg.HistoryCap))
	return memory.New(cfg.HistoryCap, logger)
}
