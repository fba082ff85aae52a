package model

import "time"

type EventType string

const (
	EventMatchStart  EventType = "matchStart"
	EventScoreChange EventType = "scoreChange"
	EventMatchEnd    EventType = "matchEnd"
)

type NotificationEvent struct {
	ID           int64     `json:"id"`
	Type         EventType `json:"type"`
	SubscriberID string    `json:"subscriber_id"`
	TeamName     string    `json:"team_name"`
	Opponent     string    `json:"opponent"`
	MatchID      string    `json:"match_id"`
	Tournament   string    `json:"tournament,omitempty"`
	Score        Score     `json:"score"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}
