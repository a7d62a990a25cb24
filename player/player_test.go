package player

import (
	"testing"

	"pan/experiments/metrics"
	"pan/game"
	"pan/game/scripted"

	"github.com/stretchr/testify/require"
)

// root -> ml | mr, player 0 should go left
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

func newPlayer(t *testing.T, number int, config string, rules game.Rules) Player {
	t.Helper()
	p, err := New(number, config)
	require.NoError(t, err)
	require.NoError(t, p.SetGameRules(rules))
	return p
}

func TestParams(t *testing.T) {
	t.Run("splitting a configuration", func(t *testing.T) {
		params := ParseParams("eval=num_cards, move_sim_limit=100,verbose")
		require.Equal(t, Params{"eval": "num_cards", "move_sim_limit": "100", "verbose": ""}, params)
	})

	t.Run("parsing typed values", func(t *testing.T) {
		params := Params{"n": "3", "c": "1.5", "seed": "42", "flag": "", "name": "x"}

		n, err := GetParamOr(params, "n", 0)
		require.NoError(t, err)
		require.Equal(t, 3, n)

		c, err := GetParamOr(params, "c", 0.0)
		require.NoError(t, err)
		require.Equal(t, 1.5, c)

		seed, err := GetParamOr(params, "seed", uint64(0))
		require.NoError(t, err)
		require.Equal(t, uint64(42), seed)

		flag, err := GetParamOr(params, "flag", false)
		require.NoError(t, err)
		require.True(t, flag, "Should read a key without value as true")

		name, err := PopParamOr(params, "name", "")
		require.NoError(t, err)
		require.Equal(t, "x", name)
		require.NotContains(t, params, "name")

		missing, err := GetParamOr(params, "missing", 7)
		require.NoError(t, err)
		require.Equal(t, 7, missing)
	})

	t.Run("bad values are errors", func(t *testing.T) {
		_, err := GetParamOr(Params{"n": "three"}, "n", 0)
		require.ErrorContains(t, err, `n="three"`)
	})
}

func TestNew(t *testing.T) {
	t.Run("unknown player type", func(t *testing.T) {
		_, err := New(0, "alphabeta:depth=3")
		require.ErrorContains(t, err, "unknown player type")
	})

	t.Run("unknown parameters", func(t *testing.T) {
		_, err := New(0, "lowcard:depth=3")
		require.ErrorContains(t, err, "depth")
	})

	t.Run("mcts configuration errors", func(t *testing.T) {
		for _, config := range []string{
			"mcts:move_sim_limit=10",
			"mcts:eval=nope,move_sim_limit=10",
			"mcts:eval=draw,move_sim_limit=0",
			"mcts:eval=draw,move_sim_limit=-3",
			"mcts:eval=draw,move_time_limit=0s",
			"mcts:eval=draw,playout_depth=0",
			"mcts:eval=draw,decay=2",
			"mcts:eval=draw,number_of_players=9",
		} {
			_, err := New(0, config)
			require.Error(t, err, "Should reject %q", config)
		}
	})

	t.Run("mcts with every parameter", func(t *testing.T) {
		p, err := New(1, "mcts:eval=num_cards,random_seed=3,number_of_players=2,playout_depth=20,"+
			"expand_size=0,explore_exploit_ratio=0.7,cycle_penalty=-10,best_move_epsilon=0.01,"+
			"decay=0.5,move_time_limit=0.25")
		require.NoError(t, err)
		require.Equal(t, "mcts", p.Name())
	})

	t.Run("seeding players without a seed of their own", func(t *testing.T) {
		picks := func(config string, seed uint64) []string {
			p, err := NewSeeded(0, config, seed)
			require.NoError(t, err)
			require.NoError(t, p.SetGameRules(simpleTree()))
			var labels []string
			for i := 0; i < 20; i++ {
				move, err := p.SelectMove("root")
				require.NoError(t, err)
				labels = append(labels, move.(scripted.Move).Label)
			}
			return labels
		}
		require.Equal(t, picks("random", 8), picks("random", 8), "Should play the same with the same seed")
		require.Equal(t, picks("random:random_seed=1", 8), picks("random:random_seed=1", 99),
			"Should keep a seed given in the configuration")

		_, err := NewSeeded(0, "lowcard", 8)
		require.NoError(t, err, "Should accept a seed for every player type")
	})

	t.Run("player count must match the rules", func(t *testing.T) {
		p, err := New(0, "mcts:eval=draw,move_sim_limit=10,number_of_players=3")
		require.NoError(t, err)
		require.Error(t, p.SetGameRules(simpleTree()))
	})
}

func TestSimplePlayers(t *testing.T) {
	rules := simpleTree()

	t.Run("lowcard plays the first move", func(t *testing.T) {
		p := newPlayer(t, 0, "lowcard", rules)
		move, err := p.SelectMove("root")
		require.NoError(t, err)
		require.Equal(t, scripted.Move{Label: "left", Target: "ml"}, move)
	})

	t.Run("random plays every move eventually", func(t *testing.T) {
		p := newPlayer(t, 0, "random:random_seed=1", rules)
		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			move, err := p.SelectMove("root")
			require.NoError(t, err)
			seen[move.(scripted.Move).Label] = true
		}
		require.Len(t, seen, 2)
	})

	t.Run("no move at a terminal state", func(t *testing.T) {
		p := newPlayer(t, 0, "random", rules)
		move, err := p.SelectMove("t1")
		require.NoError(t, err)
		require.Nil(t, move)
		require.Empty(t, p.GameStats())
	})
}

func TestMCTSPlayer(t *testing.T) {
	rules := simpleTree()

	t.Run("playing a game gathers stats", func(t *testing.T) {
		p := newPlayer(t, 0, "mcts:eval=draw,move_sim_limit=50,random_seed=5", rules)
		p.StartNewGame()
		move, err := p.SelectMove("root")
		require.NoError(t, err)
		require.Equal(t, "left", move.(scripted.Move).Label)
		require.Equal(t, 50, p.(SearchReporter).LastSearch().Episodes)
		p.EndGame([]int{100, 0}, game.Win)

		stats := p.GameStats()
		require.Equal(t, metrics.Histogram[int]{50: 1}, stats[StatRunsPerMove])
		require.Equal(t, metrics.Histogram[string]{"not found": 1}, stats[StatFindRoot])
		require.Equal(t, metrics.Ratio{Hits: 0, Total: 1}, stats[StatTreeReuse])
		require.Equal(t, metrics.Histogram[int]{0: 1}, stats[StatNodePoolUsage])
		terminal := stats[StatTerminal].(metrics.Ratio)
		require.Equal(t, 50, terminal.Total)
		require.Equal(t, 50, terminal.Hits, "Should reach a terminal state within the playout depth every time")

		p.ResetStats()
		require.Equal(t, metrics.Histogram[int]{}, p.GameStats()[StatRunsPerMove])
	})

	t.Run("single moves are not searched", func(t *testing.T) {
		p := newPlayer(t, 1, "mcts:eval=draw,move_sim_limit=50", rules)
		p.StartNewGame()
		move, err := p.SelectMove("root")
		require.NoError(t, err)
		require.Equal(t, "noop", move.(scripted.Move).Label)
		require.Zero(t, p.(SearchReporter).LastSearch().Episodes)
		require.Empty(t, p.GameStats()[StatRunsPerMove])
	})
}
