package model

import "time"

type NotificationPreferences struct {
	MatchStart  bool `json:"matchStart"`
	ScoreChange bool `json:"scoreChange"`
	MatchEnd    bool `json:"matchEnd"`
	NewsUpdate  bool `json:"newsUpdate"`
}

func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{MatchStart: true, ScoreChange: true, MatchEnd: true, NewsUpdate: true}
}

// Allows reports whether an event of type t passes these preferences.
func (p NotificationPreferences) Allows(t EventType) bool {
	switch t {
	case EventMatchStart:
		return p.MatchStart
	case EventScoreChange:
		return p.ScoreChange
	case EventMatchEnd:
		return p.MatchEnd
	default:
		return false
	}
}

// FavoriteKey identifies one (subscriber, team) follow relationship.
type FavoriteKey struct {
	SubscriberID string
	Team         TeamKey
}

type Favorite struct {
	SubscriberID string                  `json:"subscriber_id"`
	TeamID       string                  `json:"team_id,omitempty"`
	TeamName     string                  `json:"team_name"`
	Preferences  NotificationPreferences `json:"preferences"`
	CreatedAt    time.Time               `json:"created_at"`
}

func (f Favorite) Key() FavoriteKey {
	return FavoriteKey{SubscriberID: f.SubscriberID, Team: NewTeamKey(f.TeamName)}
}
