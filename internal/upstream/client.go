// Package upstream is the gateway to the external match-data provider.
//
// Every request is rate limited and carries a hard timeout. Transport errors,
// timeouts, non-2xx responses and undecodable envelopes are reported as
// domain.ErrUnavailable; single records that cannot be normalized are logged
// and skipped.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"matchpulse/internal/config"
	"matchpulse/internal/domain"
	"matchpulse/internal/metrics"
	"matchpulse/internal/model"
)

// MatchSource is what the poll loop needs from the provider.
type MatchSource interface {
	FetchLiveMatches(ctx context.Context) ([]model.Match, error)
}

// CatalogSource serves the low-volatility collections behind the read cache.
type CatalogSource interface {
	FetchTeams(ctx context.Context, region string) ([]model.Team, error)
	FetchNews(ctx context.Context) ([]model.Article, error)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewClient(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *Client {
	rps := float64(cfg.UpstreamRPM) / 60.0
	return &Client{
		httpClient: &http.Client{},
		baseURL:    cfg.UpstreamBaseURL,
		timeout:    cfg.UpstreamTimeout,
		// One poll cycle issues three requests back to back.
		limiter: rate.NewLimiter(rate.Limit(rps), 3),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", domain.ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", domain.ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrUnavailable, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s returned %d: %s", domain.ErrUnavailable, path, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func (c *Client) skipRecord(kind string, index int, err error) {
	c.logger.Warn("skipping malformed upstream record",
		zap.String("collection", kind),
		zap.Int("index", index),
		zap.Error(err),
	)
	if c.metrics != nil {
		c.metrics.MalformedRecords.Inc()
	}
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
