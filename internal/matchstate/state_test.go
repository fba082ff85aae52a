package matchstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"matchpulse/internal/model"
)

func match(id string, phase model.Phase, s1, s2 int) model.Match {
	return model.Match{ID: id, Team1: "Fnatic", Team2: "Team Heretics", Phase: phase, Score1: s1, Score2: s2, Tournament: "Masters Toronto"}
}

func kinds(changes []StateChange) []ChangeKind {
	out := make([]ChangeKind, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Kind)
	}
	return out
}

func TestDiffLifecycle(t *testing.T) {
	store := New()

	// poll 1: upcoming, nothing to announce
	require.Empty(t, store.Diff([]model.Match{match("m1", model.PhaseUpcoming, 0, 0)}))

	// poll 2: goes live
	changes := store.Diff([]model.Match{match("m1", model.PhaseLive, 0, 0)})
	require.Equal(t, []ChangeKind{Started}, kinds(changes))

	// poll 3: 1-0
	changes = store.Diff([]model.Match{match("m1", model.PhaseLive, 1, 0)})
	require.Len(t, changes, 1)
	require.Equal(t, ScoreChanged, changes[0].Kind)
	require.Equal(t, model.Score{Team1: 0, Team2: 0}, changes[0].Old)
	require.Equal(t, model.Score{Team1: 1, Team2: 0}, changes[0].New)

	// poll 4: 1-1, only the new transition fires
	changes = store.Diff([]model.Match{match("m1", model.PhaseLive, 1, 1)})
	require.Len(t, changes, 1)
	require.Equal(t, ScoreChanged, changes[0].Kind)
	require.Equal(t, model.Score{Team1: 1, Team2: 0}, changes[0].Old)
	require.Equal(t, model.Score{Team1: 1, Team2: 1}, changes[0].New)

	// same observation again
	require.Empty(t, store.Diff([]model.Match{match("m1", model.PhaseLive, 1, 1)}))

	// completes
	changes = store.Diff([]model.Match{match("m1", model.PhaseCompleted, 2, 1)})
	require.Equal(t, []ChangeKind{Ended}, kinds(changes))
	require.Equal(t, model.Score{Team1: 2, Team2: 1}, changes[0].New)

	snap, ok := store.Snapshot("m1")
	require.True(t, ok)
	require.True(t, snap.Terminal())
	require.True(t, snap.Sent.Start)
	require.True(t, snap.Sent.End)
}

func TestDiffTerminalStateIsNeverRediffed(t *testing.T) {
	store := New()
	store.Diff([]model.Match{match("m1", model.PhaseLive, 0, 0)})
	store.Diff([]model.Match{match("m1", model.PhaseCompleted, 2, 0)})

	// Provider flips back to live with a different score: ignored.
	require.Empty(t, store.Diff([]model.Match{match("m1", model.PhaseLive, 2, 1)}))
	require.Empty(t, store.Diff([]model.Match{match("m1", model.PhaseCompleted, 2, 1)}))

	snap, _ := store.Snapshot("m1")
	require.Equal(t, model.Score{Team1: 2, Team2: 0}, snap.Score())
	got, _ := store.Match("m1")
	require.Equal(t, 0, got.Score2, "stored observation is frozen")
}

func TestDiffFirstObservation(t *testing.T) {
	t.Run("live emits start with score as baseline", func(t *testing.T) {
		store := New()
		changes := store.Diff([]model.Match{match("m1", model.PhaseLive, 1, 0)})
		require.Equal(t, []ChangeKind{Started}, kinds(changes))
		require.Empty(t, store.Diff([]model.Match{match("m1", model.PhaseLive, 1, 0)}))
	})

	t.Run("completed is stored silently", func(t *testing.T) {
		store := New()
		require.Empty(t, store.Diff([]model.Match{match("m1", model.PhaseCompleted, 2, 0)}))
		snap, ok := store.Snapshot("m1")
		require.True(t, ok)
		require.True(t, snap.Terminal())
	})
}

func TestDiffIdempotentUnderStaleAndDuplicatePolls(t *testing.T) {
	store := New()
	store.Diff([]model.Match{match("m1", model.PhaseLive, 0, 0)})
	require.Len(t, store.Diff([]model.Match{match("m1", model.PhaseLive, 1, 1)}), 1)

	// An overlapping stale poll reports the old score, then the fresh score
	// comes back. Neither replays an announcement.
	require.Empty(t, store.Diff([]model.Match{match("m1", model.PhaseLive, 0, 0)}))
	require.Empty(t, store.Diff([]model.Match{match("m1", model.PhaseLive, 1, 1)}))

	// Duplicates inside one batch.
	changes := store.Diff([]model.Match{
		match("m1", model.PhaseLive, 2, 1),
		match("m1", model.PhaseLive, 2, 1),
	})
	require.Equal(t, []ChangeKind{ScoreChanged}, kinds(changes))

	// Start is never announced twice, even if the provider regresses the phase.
	require.Empty(t, store.Diff([]model.Match{match("m1", model.PhaseUpcoming, 0, 0)}))
	changes = store.Diff([]model.Match{match("m1", model.PhaseLive, 2, 1)})
	require.Empty(t, changes)
}

func TestDiffScoreCorrectionIsSilent(t *testing.T) {
	store := New()
	store.Diff([]model.Match{match("m1", model.PhaseLive, 0, 0)})
	require.Len(t, store.Diff([]model.Match{match("m1", model.PhaseLive, 1, 0)}), 1)

	// Provider withdraws the round, then restores it.
	require.Empty(t, store.Diff([]model.Match{match("m1", model.PhaseLive, 0, 0)}))
	require.Empty(t, store.Diff([]model.Match{match("m1", model.PhaseLive, 1, 0)}))

	snap, _ := store.Snapshot("m1")
	require.Equal(t, model.Score{Team1: 1, Team2: 0}, snap.Score())
}

func TestDiffUpcomingDirectlyToCompleted(t *testing.T) {
	store := New()
	store.Diff([]model.Match{match("m1", model.PhaseUpcoming, 0, 0)})
	changes := store.Diff([]model.Match{match("m1", model.PhaseCompleted, 2, 0)})
	require.Equal(t, []ChangeKind{Ended}, kinds(changes))
}

func TestDiffSkipsMatchesWithoutID(t *testing.T) {
	store := New()
	require.Empty(t, store.Diff([]model.Match{match("", model.PhaseLive, 0, 0)}))
	require.Equal(t, 0, store.Len())
}

func TestTransitionDoesNotMutatePrevious(t *testing.T) {
	prev := Snapshot{Phase: model.PhaseLive, Sent: SentFlags{Start: true, Scores: map[model.Score]struct{}{{}: {}}}}
	next, changes := Transition(prev, true, match("m1", model.PhaseLive, 1, 0))
	require.Len(t, changes, 1)
	require.Len(t, prev.Sent.Scores, 1)
	require.Len(t, next.Sent.Scores, 2)
}

func TestMatchesByPhase(t *testing.T) {
	store := New()
	store.Diff([]model.Match{
		match("m1", model.PhaseLive, 0, 0),
		match("m2", model.PhaseUpcoming, 0, 0),
	})
	live := store.Matches(model.PhaseLive)
	require.Len(t, live, 1)
	require.Equal(t, "m1", live[0].ID)
}

func TestChangeKindEventType(t *testing.T) {
	require.Equal(t, model.EventMatchStart, Started.EventType())
	require.Equal(t, model.EventScoreChange, ScoreChanged.EventType())
	require.Equal(t, model.EventMatchEnd, Ended.EventType())
}
