package synth

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"matchpulse/internal/config"
	"matchpulse/internal/favorites"
	"matchpulse/internal/matchstate"
	"matchpulse/internal/metrics"
	"matchpulse/internal/model"
	"matchpulse/internal/upstream"
)

// FollowerIndex resolves the followers of a team.
type FollowerIndex interface {
	FavoritesFor(ctx context.Context, teamName string) ([]favorites.Follower, error)
}

// Dispatcher takes a batch of synthesized events for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, events []model.NotificationEvent)
}

type Synthesizer struct {
	source     upstream.MatchSource
	state      *matchstate.Store
	followers  FollowerIndex
	dispatcher Dispatcher
	interval   time.Duration
	deadline   time.Duration
	metrics    *metrics.Metrics
	log        *zap.Logger
	now        func() time.Time
}

func New(cfg *config.Config, source upstream.MatchSource, state *matchstate.Store, followers FollowerIndex, dispatcher Dispatcher, m *metrics.Metrics, logger *zap.Logger) *Synthesizer {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	// Three collections are fetched per cycle, each bounded by the upstream
	// timeout; the cycle deadline must not outlive the next tick.
	deadline := interval
	if d := 3 * cfg.UpstreamTimeout; d > 0 && d < deadline {
		deadline = d
	}
	return &Synthesizer{
		source:     source,
		state:      state,
		followers:  followers,
		dispatcher: dispatcher,
		interval:   interval,
		deadline:   deadline,
		metrics:    m,
		log:        logger,
		now:        time.Now,
	}
}

// Run polls until ctx is cancelled. The first cycle runs immediately and
// cycles never overlap.
func (s *Synthesizer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cycle(ctx)
		}
	}
}

// Cycle runs one fetch, diff and dispatch round and returns the events it
// handed to the dispatcher. A failed fetch leaves the match state untouched.
func (s *Synthesizer) Cycle(ctx context.Context) []model.NotificationEvent {
	ctx, span := otel.Tracer("synth").Start(ctx, "synth.cycle")
	defer span.End()

	fetchCtx, cancel := context.WithTimeout(ctx, s.deadline)
	matches, err := s.source.FetchLiveMatches(fetchCtx)
	cancel()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		s.metrics.PollCycles.WithLabelValues("unavailable").Inc()
		s.log.Warn("poll cycle skipped", zap.Error(err))
		return nil
	}
	s.metrics.PollCycles.WithLabelValues("ok").Inc()

	changes := s.state.Diff(matches)
	span.SetAttributes(
		attribute.Int("synth.matches", len(matches)),
		attribute.Int("synth.changes", len(changes)),
	)

	var events []model.NotificationEvent
	for _, change := range changes {
		s.metrics.StateChanges.WithLabelValues(string(change.Kind)).Inc()
		built, err := s.eventsFor(ctx, change)
		if err != nil {
			s.log.Error("resolve followers failed",
				zap.String("match_id", change.Match.ID),
				zap.String("kind", string(change.Kind)),
				zap.Error(err),
			)
			continue
		}
		events = append(events, built...)
	}
	span.SetAttributes(attribute.Int("synth.events", len(events)))
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		s.metrics.EventsEmitted.WithLabelValues(string(event.Type)).Inc()
	}
	s.log.Info("dispatching events",
		zap.Int("changes", len(changes)),
		zap.Int("events", len(events)),
	)
	s.dispatcher.Dispatch(ctx, events)
	return events
}

// eventsFor builds one event per subscriber that follows either side of the
// match and wants this kind of change. A subscriber following both sides gets
// a single event, framed from the first side.
func (s *Synthesizer) eventsFor(ctx context.Context, change matchstate.StateChange) ([]model.NotificationEvent, error) {
	eventType := change.Kind.EventType()
	match := change.Match
	sides := [2]struct{ team, opponent string }{
		{match.Team1, match.Team2},
		{match.Team2, match.Team1},
	}

	seen := make(map[string]struct{})
	var events []model.NotificationEvent
	for _, side := range sides {
		if model.NewTeamKey(side.team) == "" {
			continue
		}
		followers, err := s.followers.FavoritesFor(ctx, side.team)
		if err != nil {
			return nil, fmt.Errorf("followers of %q: %w", side.team, err)
		}
		for _, f := range followers {
			if !f.Preferences.Allows(eventType) {
				continue
			}
			if _, dup := seen[f.SubscriberID]; dup {
				continue
			}
			seen[f.SubscriberID] = struct{}{}
			events = append(events, model.NotificationEvent{
				Type:         eventType,
				SubscriberID: f.SubscriberID,
				TeamName:     side.team,
				Opponent:     side.opponent,
				MatchID:      match.ID,
				Tournament:   match.Tournament,
				Score:        change.New,
				Message:      Message(change),
				Timestamp:    s.now(),
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].SubscriberID < events[j].SubscriberID
	})
	return events, nil
}

// Message renders the human-readable text of a change.
func Message(change matchstate.StateChange) string {
	m := change.Match
	switch change.Kind {
	case matchstate.Started:
		msg := fmt.Sprintf("%s vs %s has started", m.Team1, m.Team2)
		if m.Tournament != "" {
			msg += " (" + m.Tournament + ")"
		}
		return msg
	case matchstate.ScoreChanged:
		return fmt.Sprintf("%s %d-%d %s", m.Team1, change.New.Team1, change.New.Team2, m.Team2)
	case matchstate.Ended:
		return fmt.Sprintf("%s %d-%d %s, final", m.Team1, change.New.Team1, change.New.Team2, m.Team2)
	default:
		return fmt.Sprintf("%s vs %s", m.Team1, m.Team2)
	}
}
