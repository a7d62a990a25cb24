package engine

import (
	"context"
	"errors"
	"testing"

	"pan/experiments/metrics"
	"pan/game"
	"pan/game/scripted"
	"pan/player"

	"github.com/stretchr/testify/require"
)

// root -> ml | mr, the first moves lead to 100/0
func simpleTree() *scripted.Tree {
	return scripted.New(2).
		Node("root", 0).Move("left", "ml").Move("right", "mr").
		Node("ml", 1).Move("left", "t1").Move("right", "t2").
		Node("mr", 1).Move("left", "t2").Move("right", "t3").
		Terminal("t1", 100, 0).
		Terminal("t2", 50, 50).
		Terminal("t3", 0, 100).
		Build()
}

func loopTree() *scripted.Tree {
	return scripted.New(2).
		Node("s0", 0).Move("loop", "s1").Move("safe", "draw").
		Node("s1", 1).Move("back", "s0").Move("give", "win").
		Terminal("draw", 50, 50).
		Terminal("win", 100, 0).
		Build()
}

func chainTree() *scripted.Tree {
	return scripted.New(2).
		Node("a", 0).Move("next", "b").
		Node("b", 1).Move("next", "c").
		Node("c", 0).Move("next", "d").
		Node("d", 1).Move("next", "end").
		Terminal("end", 100, 0).
		Build()
}

func lowCardPlayers(t *testing.T, n int) []player.Player {
	t.Helper()
	players := make([]player.Player, n)
	for i := range players {
		p, err := player.New(i, "lowcard")
		require.NoError(t, err)
		players[i] = p
	}
	return players
}

// recorder wraps a player and remembers how its game ended.
type recorder struct {
	player.Player
	fail   error
	ended  bool
	scores []int
	result game.Result
}

func (r *recorder) SelectMove(state game.State) (game.Move, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	return r.Player.SelectMove(state)
}

func (r *recorder) EndGame(scores []int, result game.Result) {
	r.ended = true
	r.scores = append([]int(nil), scores...)
	r.result = result
	r.Player.EndGame(scores, result)
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("playing to a terminal state", func(t *testing.T) {
		players := lowCardPlayers(t, 2)
		rec := &recorder{Player: players[1]}
		players[1] = rec
		e, err := New(simpleTree(), players, 1, 0)
		require.NoError(t, err)

		outcome, err := e.Run(ctx)
		require.NoError(t, err)
		require.Equal(t, game.Win, outcome.Result)
		require.Equal(t, []int{100, 0}, outcome.Scores)
		require.Equal(t, 2, outcome.Rounds)
		require.True(t, outcome.Won(0))
		require.True(t, outcome.Lost(1))
		require.Equal(t, []metrics.MoveMetric{{Step: 1, Player: 0}, {Step: 2, Player: 1}}, outcome.Moves)
		require.Equal(t, "win", outcome.Game.Result)
		require.Equal(t, 2, outcome.Game.TotalMoves)

		require.True(t, rec.ended, "Should tell every player the game is over")
		require.Equal(t, []int{100, 0}, rec.scores)
		require.Equal(t, game.Win, rec.result)
	})

	t.Run("detecting a repeated state", func(t *testing.T) {
		e, err := New(loopTree(), lowCardPlayers(t, 2), 1, 0)
		require.NoError(t, err)

		outcome, err := e.Run(ctx)
		require.NoError(t, err)
		require.Equal(t, game.StateLoop, outcome.Result)
		require.Equal(t, 2, outcome.Rounds)
		require.Equal(t, []int{50, 50}, outcome.Scores, "Should score an unfinished game as a draw")
	})

	t.Run("stopping at the round limit", func(t *testing.T) {
		e, err := New(chainTree(), lowCardPlayers(t, 2), 1, 2)
		require.NoError(t, err)

		outcome, err := e.Run(ctx)
		require.NoError(t, err)
		require.Equal(t, game.RoundLimit, outcome.Result)
		require.Equal(t, 2, outcome.Rounds)
		require.False(t, outcome.Won(0))
	})

	t.Run("a failing player ends the game for everybody", func(t *testing.T) {
		players := lowCardPlayers(t, 2)
		failing := &recorder{Player: players[0], fail: errors.New("boom")}
		other := &recorder{Player: players[1]}
		e, err := New(simpleTree(), []player.Player{failing, other}, 1, 0)
		require.NoError(t, err)

		_, err = e.Run(ctx)
		require.ErrorContains(t, err, "boom")
		require.True(t, failing.ended)
		require.True(t, other.ended)
	})

	t.Run("cancelled context", func(t *testing.T) {
		e, err := New(simpleTree(), lowCardPlayers(t, 2), 1, 0)
		require.NoError(t, err)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = e.Run(cancelled)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("seat count must match the rules", func(t *testing.T) {
		_, err := New(simpleTree(), lowCardPlayers(t, 3), 1, 0)
		require.Error(t, err)
	})

	t.Run("searching players report their searches", func(t *testing.T) {
		p0, err := player.New(0, "mcts:eval=draw,move_sim_limit=30,random_seed=2")
		require.NoError(t, err)
		p1, err := player.New(1, "lowcard")
		require.NoError(t, err)
		e, err := New(simpleTree(), []player.Player{p0, p1}, 1, 0)
		require.NoError(t, err)

		outcome, err := e.Run(ctx)
		require.NoError(t, err)
		require.Equal(t, 30, outcome.Moves[0].Episodes)
		require.Zero(t, outcome.Moves[1].Episodes)
	})
}
