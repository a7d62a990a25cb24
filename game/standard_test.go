package game

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func mustState(t *testing.T, sr *StandardRules, s string) State {
	t.Helper()
	state, err := sr.FromString(s)
	require.NoError(t, err)
	return state
}

func moveStrings(sr *StandardRules, moves []Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = sr.MoveString(m)
	}
	return out
}

func TestLegalMoves(t *testing.T) {
	sr := NewStandardRules(2)

	cases := []struct {
		name     string
		state    string
		player   int
		expected []string
	}{
		{
			name:     "opening with all nines",
			state:    "S=|P0=9♥9♠9♣9♦10♥|P1=A♠|CP=0",
			expected: []string{"play 9♥", "play 9♥9♠9♣9♦"},
		},
		{
			name:     "the other nines on the nine of hearts",
			state:    "S=9♥|P0=A♠|P1=9♠9♣9♦K♥|CP=1",
			player:   1,
			expected: []string{"play 9♠9♣9♦", "play 9♠", "play K♥"},
		},
		{
			name:     "a quad is offered next to its lowest card",
			state:    "S=9♥|P0=10♥10♠10♣10♦|P1=A♠|CP=0",
			expected: []string{"play 10♥", "play 10♥10♠10♣10♦"},
		},
		{
			name:     "nothing fits so cards are taken",
			state:    "S=9♥10♥K♠|P0=9♠|P1=A♠|CP=0",
			expected: []string{"take 10♥K♠"},
		},
		{
			name:     "a player who is not to act waits",
			state:    "S=9♥|P0=10♥|P1=A♠|CP=0",
			player:   1,
			expected: []string{"noop"},
		},
		{
			name:     "a finished game has no moves",
			state:    "S=9♥|P0=|P1=A♠|CP=1",
			player:   1,
			expected: []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := mustState(t, sr, tc.state)
			moves := sr.LegalMoves(state, tc.player)
			require.Equal(t, tc.expected, moveStrings(sr, moves))
			sr.ReleaseMoves(moves)
		})
	}
}

func TestApply(t *testing.T) {
	sr := NewStandardRules(3)

	t.Run("playing passes the turn", func(t *testing.T) {
		state := mustState(t, sr, "S=|P0=9♥10♥|P1=A♠|P2=K♠|CP=0")
		next := sr.Apply(state, CardMove{Operation: PlayCards, Cards: NineOfHearts}, 0)

		require.Equal(t, "S=9♥|P0=10♥|P1=A♠|P2=K♠|CP=1", sr.String(next))
		require.Equal(t, "S=|P0=9♥10♥|P1=A♠|P2=K♠|CP=0", sr.String(state), "Should leave the old state alone")
	})

	t.Run("taking cards back", func(t *testing.T) {
		state := mustState(t, sr, "S=9♥10♥K♠|P0=9♠|P1=A♠|P2=K♥|CP=0")
		next := sr.Apply(state, CardMove{Operation: TakeCards, Cards: Card(1, 0) | Card(4, 1)}, 0)
		require.Equal(t, "S=9♥|P0=9♠10♥K♠|P1=A♠|P2=K♥|CP=1", sr.String(next))
	})

	t.Run("players without cards are skipped", func(t *testing.T) {
		state := mustState(t, sr, "S=9♥|P0=10♥A♥|P1=|P2=K♠|CP=0")
		next := sr.Apply(state, CardMove{Operation: PlayCards, Cards: Card(1, 0)}, 0)
		require.Equal(t, 2, sr.CurrentPlayer(next))
		require.False(t, sr.IsTerminal(next))
	})

	t.Run("the last card ends the game", func(t *testing.T) {
		state := mustState(t, sr, "S=9♥|P0=10♥|P1=|P2=K♠|CP=0")
		next := sr.Apply(state, CardMove{Operation: PlayCards, Cards: Card(1, 0)}, 0)
		require.True(t, sr.IsTerminal(next))
	})
}

func TestScore(t *testing.T) {
	t.Run("the player left with cards loses", func(t *testing.T) {
		sr := NewStandardRules(3)
		scores := make([]int, 3)
		sr.Score(mustState(t, sr, "S=9♥|P0=|P1=|P2=A♠|CP=2"), scores)
		require.Equal(t, []int{50, 50, 0}, scores)
	})

	t.Run("an unfinished game is a draw", func(t *testing.T) {
		sr := NewStandardRules(2)
		scores := make([]int, 2)
		sr.Score(mustState(t, sr, "S=9♥|P0=10♥|P1=A♠|CP=0"), scores)
		require.Equal(t, []int{50, 50}, scores)
	})

	t.Run("counting cards", func(t *testing.T) {
		sr := NewStandardRules(2)
		scores := make([]int, 2)
		EvaluateNumCards(mustState(t, sr, "S=9♥|P0=10♥|P1=A♠K♠|CP=0"), scores)
		require.Equal(t, []int{46, 44}, scores)
	})
}

func TestStates(t *testing.T) {
	t.Run("dealing", func(t *testing.T) {
		sr := NewStandardRules(4)
		state := sr.NewInitialState(rand.New(rand.NewSource(3))).(*GameState)

		var all Cards
		for p := 0; p < 4; p++ {
			require.Equal(t, 6, state.Hands[p].Count())
			all |= state.Hands[p]
		}
		require.Equal(t, AllCards, all)
		require.NotZero(t, state.Hands[state.CurrentPlayer]&NineOfHearts, "Should let the holder of the nine of hearts start")
		require.Zero(t, state.Stack)

		again := sr.NewInitialState(rand.New(rand.NewSource(3)))
		require.True(t, sr.Equal(state, again))
	})

	t.Run("keys", func(t *testing.T) {
		sr := NewStandardRules(2)
		state := mustState(t, sr, "S=9♥|P0=9♠|P1=10♥|CP=1")
		require.Equal(t, "S=90,|P0=91,|P1=100,|CP=1", sr.Key(state))

		clone := sr.Clone(state)
		require.True(t, sr.Equal(state, clone))
		require.Equal(t, sr.Key(state), sr.Key(clone))
		sr.ReleaseState(clone)
	})

	t.Run("parse errors", func(t *testing.T) {
		for _, s := range []string{
			"garbage",
			"S=9♥|P0=X|P1=|CP=0",
			"S=|P0=9♥|P1=9♠|CP=5",
			"S=|P0=9♥|P1=9♠|CP=one",
			"S=|P1=9♥|P0=9♠|CP=0",
		} {
			_, _, err := ParseState(s)
			require.Error(t, err, "Should reject %q", s)
		}
	})

	t.Run("player count must match the rules", func(t *testing.T) {
		_, err := NewStandardRules(3).FromString("S=|P0=9♥|P1=9♠|CP=0")
		require.Error(t, err)
	})
}

func TestEvaluations(t *testing.T) {
	fn, ok := LookupEvaluation("num_cards")
	require.True(t, ok)
	require.NotNil(t, fn)

	_, ok = LookupEvaluation("nope")
	require.False(t, ok)

	require.Panics(t, func() { RegisterEvaluation("draw", EvaluateDraw) })
	require.Equal(t, "state_loop", StateLoop.String())
}
