package matchstate

import "matchpulse/internal/model"

// Transition computes the next snapshot of one match and the changes that
// observing match produces. It does not touch any shared state.
func Transition(prev Snapshot, seen bool, match model.Match) (Snapshot, []StateChange) {
	if seen && prev.Terminal() {
		return prev, nil
	}

	next := Snapshot{
		Phase:  match.Phase,
		Score1: match.Score1,
		Score2: match.Score2,
		Sent:   copyFlags(prev.Sent),
	}

	if !seen {
		switch match.Phase {
		case model.PhaseLive:
			next.Sent.Start = true
			// The first live score is the baseline, not a change.
			next.Sent.Scores[match.Score()] = struct{}{}
			return next, []StateChange{{Kind: Started, Match: match, New: match.Score()}}
		case model.PhaseCompleted:
			// Results seen for the first time are history.
			next.Sent.Start = true
			next.Sent.End = true
			return next, nil
		default:
			return next, nil
		}
	}

	var changes []StateChange
	old := prev.Score()

	switch match.Phase {
	case model.PhaseLive:
		_, announced := next.Sent.Scores[match.Score()]
		if !next.Sent.Start {
			next.Sent.Start = true
			changes = append(changes, StateChange{Kind: Started, Match: match, Old: old, New: match.Score()})
		}
		if match.Score() != old && !announced {
			changes = append(changes, StateChange{Kind: ScoreChanged, Match: match, Old: old, New: match.Score()})
		}
		next.Sent.Scores[match.Score()] = struct{}{}
	case model.PhaseCompleted:
		if !next.Sent.End {
			next.Sent.End = true
			changes = append(changes, StateChange{Kind: Ended, Match: match, Old: old, New: match.Score()})
		}
	case model.PhaseUpcoming:
		// A live match reported as upcoming again is a provider glitch; keep
		// the flags so the restart is not announced twice.
	}
	return next, changes
}

func copyFlags(f SentFlags) SentFlags {
	out := SentFlags{Start: f.Start, End: f.End, Scores: make(map[model.Score]struct{}, len(f.Scores)+1)}
	for k := range f.Scores {
		out.Scores[k] = struct{}{}
	}
	return out
}
