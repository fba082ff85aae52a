// Package matchstate keeps the last observed state of every match and turns
// a fresh poll into state changes.
//
// Each change kind is announced at most once per match: the start and end
// flags are sticky, and every score tuple that was announced is remembered so
// stale or overlapping polls cannot replay it. Completed matches are terminal
// and are never diffed again. State lives in memory only.
package matchstate

import (
	"sync"

	"matchpulse/internal/model"
)

type ChangeKind string

const (
	Started      ChangeKind = "started"
	ScoreChanged ChangeKind = "scoreChanged"
	Ended        ChangeKind = "ended"
)

// EventType maps a change kind to the notification it produces.
func (k ChangeKind) EventType() model.EventType {
	switch k {
	case Started:
		return model.EventMatchStart
	case ScoreChanged:
		return model.EventScoreChange
	default:
		return model.EventMatchEnd
	}
}

type StateChange struct {
	Kind  ChangeKind
	Match model.Match
	Old   model.Score
	New   model.Score
}

// SentFlags records which notifications a match already produced.
type SentFlags struct {
	Start  bool
	End    bool
	// Scores holds every score already announced. A score the provider
	// reverts to, or returns to after a correction, stays silent.
	Scores map[model.Score]struct{}
}

type Snapshot struct {
	Phase  model.Phase
	Score1 int
	Score2 int
	Sent   SentFlags
}

func (s Snapshot) Score() model.Score {
	return model.Score{Team1: s.Score1, Team2: s.Score2}
}

func (s Snapshot) Terminal() bool {
	return s.Phase == model.PhaseCompleted
}

type Store struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
	matches   map[string]model.Match
}

func New() *Store {
	return &Store{
		snapshots: make(map[string]Snapshot),
		matches:   make(map[string]model.Match),
	}
}

// Diff applies a poll result and returns the changes it produced, in input
// order. Duplicate ids within one batch are applied one after another.
func (s *Store) Diff(matches []model.Match) []StateChange {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changes []StateChange
	for _, match := range matches {
		if match.ID == "" {
			continue
		}
		prev, seen := s.snapshots[match.ID]
		if seen && prev.Terminal() {
			continue
		}
		next, out := Transition(prev, seen, match)
		s.snapshots[match.ID] = next
		s.matches[match.ID] = match
		changes = append(changes, out...)
	}
	return changes
}

func (s *Store) Snapshot(id string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[id]
	return snap, ok
}

func (s *Store) Match(id string) (model.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	return m, ok
}

// Matches returns the last observation of every match in the given phase.
func (s *Store) Matches(phase model.Phase) []model.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Match
	for _, m := range s.matches {
		if m.Phase == phase {
			out = append(out, m)
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
