package searcher

import "pan/game"

// tree owns the nodes of one engine: their storage, the index deciding
// which of them are alive and the traversal ids.
type tree struct {
	rules  game.Rules
	pool   *Pool
	index  *index
	visits visitSession
	queue  []Handle
}

func newTree() *tree {
	pool := NewPool()
	return &tree{
		pool:   pool,
		index:  newIndex(),
		visits: visitSession{pool: pool},
	}
}

// node returns the node of an existing state, taking ownership of s, or a new
// transient node holding s. created tells which one happened.
func (t *tree) node(s game.State) (h Handle, created bool, err error) {
	key := t.rules.Key(s)
	if h, ok := t.index.lookup(key); ok {
		t.rules.ReleaseState(s)
		return h, false, nil
	}

	player := t.rules.CurrentPlayer(s)
	moves := t.rules.LegalMoves(s, player)
	h, err = t.pool.Allocate(len(moves))
	if err != nil {
		return nilHandle, false, err
	}
	n := t.pool.node(h)
	n.state = s
	n.moves = moves
	n.key = key
	n.player = player
	n.terminal = t.rules.IsTerminal(s)

	stochastic, _ := t.rules.(game.Stochastic)
	edges := t.pool.edges(n)
	for i := range edges {
		edges[i].probability = 1
		if stochastic != nil {
			edges[i].probability = stochastic.TransitionProbability(s, moves[i], player)
		}
	}
	if err := t.index.insert(key, h); err != nil {
		return nilHandle, false, err
	}
	return h, true, nil
}

// free removes h from the index and gives its storage back.
func (t *tree) free(h Handle) error {
	if !t.pool.occupied(h) {
		return fault("free", h, "node is not live")
	}
	if err := t.index.remove(h); err != nil {
		return err
	}
	n := t.pool.node(h)
	t.rules.ReleaseState(n.state)
	t.rules.ReleaseMoves(n.moves)
	return t.pool.Free(h, n.moveCount)
}

// reset drops all nodes without touching them one by one.
func (t *tree) reset() {
	t.pool.FreeAll()
	t.index.reset()
}
