package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"matchpulse/internal/cache"
	"matchpulse/internal/config"
	"matchpulse/internal/metrics"
	"matchpulse/internal/model"
	"matchpulse/internal/upstream"
)

const newsKey = "news"

// Service serves team and news listings through read-through caches.
type Service struct {
	source        upstream.CatalogSource
	teams         *cache.Cache[[]model.Team]
	news          *cache.Cache[[]model.Article]
	defaultRegion string
	log           *zap.Logger
}

func NewService(cfg *config.Config, source upstream.CatalogSource, m *metrics.Metrics, logger *zap.Logger) *Service {
	region := cfg.TeamsRegion
	if region == "" {
		region = "eu"
	}
	return &Service{
		source:        source,
		teams:         cache.New[[]model.Team]("teams", cfg.TeamsCacheTTL, m),
		news:          cache.New[[]model.Article]("news", cfg.NewsCacheTTL, m),
		defaultRegion: region,
		log:           logger,
	}
}

// Teams returns the ranking of region, or of the configured region when
// region is empty.
func (s *Service) Teams(ctx context.Context, region string) ([]model.Team, error) {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		region = s.defaultRegion
	}
	teams, err := s.teams.GetOrLoad(ctx, region, func(ctx context.Context) ([]model.Team, error) {
		s.log.Debug("loading teams", zap.String("region", region))
		return s.source.FetchTeams(ctx, region)
	})
	if err != nil {
		s.log.Warn("teams unavailable", zap.String("region", region), zap.Error(err))
		return nil, err
	}
	return teams, nil
}

func (s *Service) News(ctx context.Context) ([]model.Article, error) {
	news, err := s.news.GetOrLoad(ctx, newsKey, func(ctx context.Context) ([]model.Article, error) {
		s.log.Debug("loading news")
		return s.source.FetchNews(ctx)
	})
	if err != nil {
		s.log.Warn("news unavailable", zap.Error(err))
		return nil, err
	}
	return news, nil
}
