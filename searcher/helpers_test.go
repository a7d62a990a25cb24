package searcher

import (
	"testing"

	"pan/game"
	"pan/game/scripted"

	"github.com/stretchr/testify/require"
)

// root -> ml | mr, both lead to the shared 50/50 terminal
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

// player 1 would rather go back than give the game away, but going back
// revisits the root
func loopTree() *scripted.Tree {
	return scripted.New(2).
		Node("s0", 0).Move("loop", "s1").Move("safe", "draw").
		Node("s1", 1).Move("back", "s0").Move("give", "win").
		Terminal("draw", 50, 50).
		Terminal("win", 100, 0).
		Build()
}

func newEngine(t *testing.T, rules game.Rules, options ...Option) *MCTS {
	t.Helper()
	return newPlayerEngine(t, 0, rules, options...)
}

func newPlayerEngine(t *testing.T, player int, rules game.Rules, options ...Option) *MCTS {
	t.Helper()
	defaults := []Option{
		WithEpisodes(10),
		WithSeed(7),
		WithEvaluationFn(game.EvaluateDraw),
		WithMetrics(),
	}
	m, err := NewMCTS(player, append(defaults, options...)...)
	require.NoError(t, err)
	require.NoError(t, m.SetRules(rules))
	m.StartGame()
	return m
}

// grow materializes every state reachable from state and makes it permanent.
func grow(t *testing.T, m *MCTS, state game.State) {
	t.Helper()
	require.NoError(t, m.findRoot(state))
	queue := []Handle{m.root}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		for i := range m.pool.edges(m.pool.node(h)) {
			child, err := m.materialize(step{h, i})
			require.NoError(t, err)
			if n := m.pool.node(child); n.status == transient {
				n.status = permanent
				queue = append(queue, child)
			}
		}
	}
	m.fresh = m.fresh[:0]
	m.links = m.links[:0]
	require.NoError(t, m.check(m.root))
}

func handleOf(t *testing.T, m *MCTS, key string) Handle {
	t.Helper()
	h, ok := m.index.lookup(key)
	require.True(t, ok, "Should have a node for %s", key)
	return h
}

func label(move game.Move) string {
	return move.(scripted.Move).Label
}

type rootEdge struct {
	visits int
	value  [MaxPlayers]float64
}

func rootEdges(m *MCTS) []rootEdge {
	var out []rootEdge
	for _, e := range m.pool.edges(m.pool.node(m.root)) {
		out = append(out, rootEdge{e.visits, e.value})
	}
	return out
}

type countingBudget struct {
	starts int
	checks int
	limit  int
}

func (b *countingBudget) Start() {
	b.starts++
}

func (b *countingBudget) CanContinue() bool {
	b.checks++
	return b.checks <= b.limit
}
