package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"matchpulse/internal/domain"
	"matchpulse/internal/model"
)

type matchQuery struct {
	query string
	phase model.Phase
}

// Later entries win when the same match shows up in several collections.
var matchQueries = []matchQuery{
	{query: "upcoming", phase: model.PhaseUpcoming},
	{query: "live_score", phase: model.PhaseLive},
	{query: "results", phase: model.PhaseCompleted},
}

// FetchLiveMatches returns the merged upcoming, live and completed matches.
// Any failed request makes the whole fetch ErrUnavailable so that a partial
// view is never diffed.
func (c *Client) FetchLiveMatches(ctx context.Context) ([]model.Match, error) {
	observed := c.now().UTC()
	index := make(map[string]int)
	var matches []model.Match

	for _, q := range matchQueries {
		body, err := c.get(ctx, "/match", url.Values{"q": {q.query}})
		if err != nil {
			return nil, err
		}
		var env segmentsEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrUnavailable, q.query, err)
		}
		for i, raw := range env.Data.Segments {
			match, err := normalizeMatch(raw, q.phase)
			if err != nil {
				c.skipRecord(q.query, i, err)
				continue
			}
			match.ObservedAt = observed
			if pos, ok := index[match.ID]; ok {
				matches[pos] = match
				continue
			}
			index[match.ID] = len(matches)
			matches = append(matches, match)
		}
	}
	return matches, nil
}

func normalizeMatch(raw json.RawMessage, phase model.Phase) (model.Match, error) {
	var seg matchSegment
	if err := json.Unmarshal(raw, &seg); err != nil {
		return model.Match{}, fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}
	team1, team2 := seg.Team1.String(), seg.Team2.String()
	if team1 == "" || team2 == "" {
		return model.Match{}, fmt.Errorf("%w: missing team name", domain.ErrMalformedRecord)
	}

	tournament := seg.MatchEvent.String()
	if tournament == "" {
		tournament = seg.TournamentName.String()
	}
	series := seg.MatchSeries.String()
	if series == "" {
		series = seg.RoundInfo.String()
	}

	id := seg.ID.String()
	if id == "" {
		id = providerMatchID(seg.MatchPage.String())
	}
	if id == "" {
		id = model.SyntheticMatchID(team1, team2, tournament)
	}

	return model.Match{
		ID:          id,
		Team1:       team1,
		Team2:       team2,
		Score1:      seg.Score1.Int(),
		Score2:      seg.Score2.Int(),
		Phase:       phase,
		Tournament:  tournament,
		Series:      series,
		ScheduledAt: seg.UnixTimestamp.Time(),
	}, nil
}
