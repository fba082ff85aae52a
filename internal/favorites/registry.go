// Package favorites indexes which subscribers follow which teams.
//
// All state is owned by the goroutine running Registry.Run. Callers submit
// requests over a channel and wait for the owner to execute them, so reads
// from the poll loop and writes from HTTP handlers never interleave. Every
// call honours its context, and calls made after Run has returned fail with
// ErrStopped instead of blocking.
package favorites

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"matchpulse/internal/domain"
	"matchpulse/internal/model"
)

var ErrStopped = errors.New("favorites registry stopped")

// Follower is one subscriber following a team, as seen from the team side.
type Follower struct {
	SubscriberID string
	TeamName     string
	Preferences  model.NotificationPreferences
}

type request struct {
	fn   func()
	done chan struct{}
}

type Registry struct {
	requests chan request
	stopped  chan struct{}
	now      func() time.Time

	// owned by Run
	favorites    map[model.FavoriteKey]model.Favorite
	byTeam       map[model.TeamKey]map[string]struct{}
	bySubscriber map[string]map[model.TeamKey]struct{}
}

func New() *Registry {
	return &Registry{
		requests:     make(chan request),
		stopped:      make(chan struct{}),
		now:          time.Now,
		favorites:    make(map[model.FavoriteKey]model.Favorite),
		byTeam:       make(map[model.TeamKey]map[string]struct{}),
		bySubscriber: make(map[string]map[model.TeamKey]struct{}),
	}
}

// Run serves requests until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	defer close(r.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.requests:
			req.fn()
			close(req.done)
		}
	}
}

func (r *Registry) do(ctx context.Context, fn func()) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.stopped:
		return ErrStopped
	case r.requests <- req:
	}
	// fn never blocks, so once accepted the wait is short.
	<-req.done
	return nil
}

// Follow creates the favorite with default preferences, or refreshes the team
// id of an existing one while keeping its preferences.
func (r *Registry) Follow(ctx context.Context, subscriberID, teamID, teamName string) (model.Favorite, error) {
	subscriberID, teamName = strings.TrimSpace(subscriberID), strings.TrimSpace(teamName)
	teamID = strings.TrimSpace(teamID)
	if subscriberID == "" || teamName == "" {
		return model.Favorite{}, domain.ErrInvalidFavorite
	}
	var out model.Favorite
	err := r.do(ctx, func() {
		fav := model.Favorite{SubscriberID: subscriberID, TeamID: teamID, TeamName: teamName}
		key := fav.Key()
		if existing, ok := r.favorites[key]; ok {
			if teamID != "" {
				existing.TeamID = teamID
			}
			r.favorites[key] = existing
			out = existing
			return
		}
		fav.Preferences = model.DefaultPreferences()
		fav.CreatedAt = r.now().UTC()
		r.favorites[key] = fav
		addIndex(r.byTeam, key.Team, subscriberID)
		addIndex(r.bySubscriber, subscriberID, key.Team)
		out = fav
	})
	return out, err
}

// Unfollow removes the favorite and reports whether it existed.
func (r *Registry) Unfollow(ctx context.Context, subscriberID, teamName string) (bool, error) {
	key := model.FavoriteKey{SubscriberID: strings.TrimSpace(subscriberID), Team: model.NewTeamKey(teamName)}
	if key.SubscriberID == "" || key.Team == "" {
		return false, domain.ErrInvalidFavorite
	}
	var removed bool
	err := r.do(ctx, func() {
		if _, ok := r.favorites[key]; !ok {
			return
		}
		delete(r.favorites, key)
		removeIndex(r.byTeam, key.Team, key.SubscriberID)
		removeIndex(r.bySubscriber, key.SubscriberID, key.Team)
		removed = true
	})
	return removed, err
}

// SetPreferences replaces the preferences of an existing favorite.
func (r *Registry) SetPreferences(ctx context.Context, subscriberID, teamName string, prefs model.NotificationPreferences) (model.Favorite, error) {
	key := model.FavoriteKey{SubscriberID: strings.TrimSpace(subscriberID), Team: model.NewTeamKey(teamName)}
	if key.SubscriberID == "" || key.Team == "" {
		return model.Favorite{}, domain.ErrInvalidFavorite
	}
	var (
		out   model.Favorite
		found bool
	)
	err := r.do(ctx, func() {
		fav, ok := r.favorites[key]
		if !ok {
			return
		}
		fav.Preferences = prefs
		r.favorites[key] = fav
		out, found = fav, true
	})
	if err != nil {
		return model.Favorite{}, err
	}
	if !found {
		return model.Favorite{}, domain.ErrPreferenceNotFound
	}
	return out, nil
}

// SetPreferencesByTeamID is SetPreferences for callers that only know the
// provider team id of the favorite.
func (r *Registry) SetPreferencesByTeamID(ctx context.Context, subscriberID, teamID string, prefs model.NotificationPreferences) (model.Favorite, error) {
	subscriberID, teamID = strings.TrimSpace(subscriberID), strings.TrimSpace(teamID)
	if subscriberID == "" || teamID == "" {
		return model.Favorite{}, domain.ErrInvalidFavorite
	}
	var (
		out   model.Favorite
		found bool
	)
	err := r.do(ctx, func() {
		for team := range r.bySubscriber[subscriberID] {
			key := model.FavoriteKey{SubscriberID: subscriberID, Team: team}
			fav := r.favorites[key]
			if fav.TeamID != teamID {
				continue
			}
			fav.Preferences = prefs
			r.favorites[key] = fav
			out, found = fav, true
			return
		}
	})
	if err != nil {
		return model.Favorite{}, err
	}
	if !found {
		return model.Favorite{}, domain.ErrPreferenceNotFound
	}
	return out, nil
}

// Get returns one favorite.
func (r *Registry) Get(ctx context.Context, subscriberID, teamName string) (model.Favorite, error) {
	key := model.FavoriteKey{SubscriberID: strings.TrimSpace(subscriberID), Team: model.NewTeamKey(teamName)}
	var (
		out   model.Favorite
		found bool
	)
	err := r.do(ctx, func() {
		out, found = r.favorites[key]
	})
	if err != nil {
		return model.Favorite{}, err
	}
	if !found {
		return model.Favorite{}, domain.ErrPreferenceNotFound
	}
	return out, nil
}

// FavoritesFor lists the followers of a team through the reverse index,
// ordered by subscriber id.
func (r *Registry) FavoritesFor(ctx context.Context, teamName string) ([]Follower, error) {
	team := model.NewTeamKey(teamName)
	var out []Follower
	err := r.do(ctx, func() {
		subscribers := r.byTeam[team]
		out = make([]Follower, 0, len(subscribers))
		for subscriberID := range subscribers {
			fav := r.favorites[model.FavoriteKey{SubscriberID: subscriberID, Team: team}]
			out = append(out, Follower{
				SubscriberID: subscriberID,
				TeamName:     fav.TeamName,
				Preferences:  fav.Preferences,
			})
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SubscriberID < out[j].SubscriberID })
	return out, err
}

// Following lists a subscriber's favorites ordered by team.
func (r *Registry) Following(ctx context.Context, subscriberID string) ([]model.Favorite, error) {
	subscriberID = strings.TrimSpace(subscriberID)
	var out []model.Favorite
	err := r.do(ctx, func() {
		teams := r.bySubscriber[subscriberID]
		out = make([]model.Favorite, 0, len(teams))
		for team := range teams {
			out = append(out, r.favorites[model.FavoriteKey{SubscriberID: subscriberID, Team: team}])
		}
	})
	sort.Slice(out, func(i, j int) bool { return model.NewTeamKey(out[i].TeamName) < model.NewTeamKey(out[j].TeamName) })
	return out, err
}

func addIndex[K, V comparable](index map[K]map[V]struct{}, k K, v V) {
	set := index[k]
	if set == nil {
		set = make(map[V]struct{})
		index[k] = set
	}
	set[v] = struct{}{}
}

func removeIndex[K, V comparable](index map[K]map[V]struct{}, k K, v V) {
	set := index[k]
	if set == nil {
		return
	}
	delete(set, v)
	if len(set) == 0 {
		delete(index, k)
	}
}
