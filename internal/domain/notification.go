package domain

import (
	"errors"

	"matchpulse/internal/model"
)

var (
	// ErrUnavailable means the upstream fetch failed or timed out. The poll
	// cycle is skipped and nothing is surfaced to subscribers.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrMalformedRecord marks a single upstream record that could not be
	// normalized. The record is skipped, the batch continues.
	ErrMalformedRecord = errors.New("malformed upstream record")
	// ErrPreferenceNotFound is returned when settings are updated for a team
	// the subscriber does not follow.
	ErrPreferenceNotFound = errors.New("preference not found")
	ErrInvalidFavorite    = errors.New("subscriber id and team name are required")
	ErrInvalidEventType   = errors.New("invalid notification event type")
)

func IsValidEventType(value model.EventType) bool {
	switch value {
	case model.EventMatchStart, model.EventScoreChange, model.EventMatchEnd:
		return true
	default:
		return false
	}
}

// ValidateEvent checks the fields a delivered event must carry.
func ValidateEvent(event model.NotificationEvent) error {
	if !IsValidEventType(event.Type) {
		return ErrInvalidEventType
	}
	if event.SubscriberID == "" || event.MatchID == "" {
		return ErrInvalidEventType
	}
	return nil
}
