package client

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"matchpulse/internal/model"
)

// Alerter raises a user-visible alert for an event.
type Alerter interface {
	Alert(event model.NotificationEvent)
}

// TerminalAlerter rings the terminal bell and prints the message.
type TerminalAlerter struct {
	W io.Writer
}

func (a TerminalAlerter) Alert(event model.NotificationEvent) {
	fmt.Fprintf(a.W, "\a[%s] %s\n", event.Type, event.Message)
}

// Inbox is the client's capped, newest-first notification history.
type Inbox struct {
	mu       sync.Mutex
	store    *LocalStore
	capacity int
	events   []model.NotificationEvent
	alerter  Alerter
	log      *zap.Logger
}

// NewInbox loads the persisted history from store.
func NewInbox(store *LocalStore, capacity int, alerter Alerter, logger *zap.Logger) (*Inbox, error) {
	if capacity <= 0 {
		capacity = 50
	}
	events, err := store.LoadInbox()
	if err != nil {
		return nil, err
	}
	if len(events) > capacity {
		events = events[:capacity]
	}
	return &Inbox{store: store, capacity: capacity, events: events, alerter: alerter, log: logger}, nil
}

// Receive merges event into the history and persists it. Events already in
// the history are ignored. It reports whether an alert was raised.
func (i *Inbox) Receive(event model.NotificationEvent) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if event.ID != 0 {
		for _, e := range i.events {
			if e.ID == event.ID {
				return false, nil
			}
		}
	}

	merged := make([]model.NotificationEvent, 0, min(len(i.events)+1, i.capacity))
	merged = append(merged, event)
	for _, e := range i.events {
		if len(merged) == i.capacity {
			break
		}
		merged = append(merged, e)
	}
	if err := i.store.SaveInbox(merged); err != nil {
		return false, fmt.Errorf("persist inbox: %w", err)
	}
	i.events = merged

	if i.alerter == nil || !i.allowed(event) {
		return false, nil
	}
	i.alerter.Alert(event)
	return true, nil
}

// allowed consults the cached preference copy. A match-level blob overrides
// the team-level one; with neither cached the follow defaults apply.
func (i *Inbox) allowed(event model.NotificationEvent) bool {
	for _, key := range []PrefKey{MatchPrefKey(event.MatchID), TeamPrefKey(event.TeamName)} {
		prefs, ok, err := i.store.Preferences(key)
		if err != nil {
			i.log.Warn("read cached preferences failed", zap.String("key", string(key.bytes())), zap.Error(err))
			continue
		}
		if ok {
			return prefs.Allows(event.Type)
		}
	}
	return model.DefaultPreferences().Allows(event.Type)
}

// Events returns a copy of the history, newest first.
func (i *Inbox) Events() []model.NotificationEvent {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]model.NotificationEvent(nil), i.events...)
}
