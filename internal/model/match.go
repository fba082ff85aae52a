package model

import (
	"strings"
	"time"
)

type Phase string

const (
	PhaseUpcoming  Phase = "upcoming"
	PhaseLive      Phase = "live"
	PhaseCompleted Phase = "completed"
)

type Match struct {
	ID          string    `json:"id"`
	Team1       string    `json:"team1"`
	Team2       string    `json:"team2"`
	Score1      int       `json:"score1"`
	Score2      int       `json:"score2"`
	Phase       Phase     `json:"phase"`
	Tournament  string    `json:"tournament"`
	Series      string    `json:"series,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Score is a (score1, score2) tuple.
type Score struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

func (m Match) Score() Score {
	return Score{Team1: m.Score1, Team2: m.Score2}
}

// TeamKey is the normalized identity of a team name. Two names that differ
// only in case or whitespace map to the same key.
type TeamKey string

func NewTeamKey(name string) TeamKey {
	return TeamKey(strings.ToLower(strings.Join(strings.Fields(name), " ")))
}

// SyntheticMatchID builds an id for records the provider sent without one.
// The team pair is sorted so side order does not change identity.
func SyntheticMatchID(team1, team2, tournament string) string {
	a, b := NewTeamKey(team1), NewTeamKey(team2)
	if b < a {
		a, b = b, a
	}
	return "syn:" + string(NewTeamKey(tournament)) + ":" + string(a) + ":" + string(b)
}
