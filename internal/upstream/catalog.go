package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"matchpulse/internal/domain"
	"matchpulse/internal/model"
)

const newsBaseURL = "https://www.vlr.gg"

func (c *Client) FetchTeams(ctx context.Context, region string) ([]model.Team, error) {
	body, err := c.get(ctx, "/rankings", url.Values{"region": {region}})
	if err != nil {
		return nil, err
	}
	var env rankingsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode rankings: %w", domain.ErrUnavailable, err)
	}

	teams := make([]model.Team, 0, len(env.Data))
	for i, raw := range env.Data {
		var seg rankingSegment
		if err := json.Unmarshal(raw, &seg); err != nil {
			c.skipRecord("rankings", i, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err))
			continue
		}
		if seg.Team.String() == "" {
			c.skipRecord("rankings", i, fmt.Errorf("%w: missing team name", domain.ErrMalformedRecord))
			continue
		}
		teams = append(teams, model.Team{
			Rank:       seg.Rank.Int(),
			Name:       seg.Team.String(),
			Country:    seg.Country.String(),
			Region:     region,
			Record:     seg.Record.String(),
			LastPlayed: seg.LastPlayed.String(),
			LogoURL:    seg.Logo.String(),
		})
	}
	return teams, nil
}

func (c *Client) FetchNews(ctx context.Context) ([]model.Article, error) {
	body, err := c.get(ctx, "/news", nil)
	if err != nil {
		return nil, err
	}
	var env segmentsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode news: %w", domain.ErrUnavailable, err)
	}

	articles := make([]model.Article, 0, len(env.Data.Segments))
	for i, raw := range env.Data.Segments {
		var seg newsSegment
		if err := json.Unmarshal(raw, &seg); err != nil {
			c.skipRecord("news", i, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err))
			continue
		}
		if seg.Title.String() == "" {
			c.skipRecord("news", i, fmt.Errorf("%w: missing title", domain.ErrMalformedRecord))
			continue
		}
		link := seg.URLPath.String()
		if strings.HasPrefix(link, "/") {
			link = newsBaseURL + link
		}
		articles = append(articles, model.Article{
			Title:       seg.Title.String(),
			Description: seg.Description.String(),
			Author:      seg.Author.String(),
			URL:         link,
			PublishedAt: seg.Date.Time(),
		})
	}
	return articles, nil
}
