package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
	"matchpulse/internal/model"
)

func TestIsValidEventType(t *testing.T) {
	t.Run("valid types", func(t *testing.T) {
		valid := []model.EventType{
			model.EventMatchStart,
			model.EventScoreChange,
			model.EventMatchEnd,
		}
		for _, v := range valid {
			require.True(t, IsValidEventType(v), "expected valid type: %s", v)
		}
	})

	t.Run("invalid types", func(t *testing.T) {
		invalid := []model.EventType{"", "matchstart", "newsUpdate", "score"}
		for _, v := range invalid {
			require.False(t, IsValidEventType(v), "expected invalid type: %s", v)
		}
	})
}

func TestValidateEvent(t *testing.T) {
	ok := model.NotificationEvent{Type: model.EventMatchEnd, SubscriberID: "s1", MatchID: "m1"}
	require.NoError(t, ValidateEvent(ok))

	missingSubscriber := ok
	missingSubscriber.SubscriberID = ""
	require.ErrorIs(t, ValidateEvent(missingSubscriber), ErrInvalidEventType)

	badType := ok
	badType.Type = "goal"
	require.ErrorIs(t, ValidateEvent(badType), ErrInvalidEventType)
}
