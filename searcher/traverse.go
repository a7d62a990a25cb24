package searcher

import (
	"math"

	"pan/game"
)

// visitSession hands out the ids stamped on nodes by traversals. When the
// counter wraps every stamp is cleared first, so a node is never taken as
// visited because of a pass from a previous cycle of ids.
type visitSession struct {
	id   uint16
	pool *Pool
}

func (v *visitSession) next() uint16 {
	return v.reserve(1)
}

// reserve returns the first of n ids that the following calls to next hand
// out without clearing the stamps in between.
func (v *visitSession) reserve(n int) uint16 {
	if int(v.id)+n > math.MaxUint16 {
		v.pool.clearStamps()
		v.id = 0
	}
	v.id++
	return v.id
}

// bfs walks the graph breadth first from root. enter is called once for
// every newly reached handle before it is stamped with id; the node is
// expanded only when enter returns true. Handles that do not refer to a live
// node are passed with a nil node and never expanded.
func (t *tree) bfs(root Handle, id uint16, enter func(h Handle, n *stateNode) bool) {
	queue := t.queue[:0]
	discover := func(h Handle) {
		if !t.pool.occupied(h) {
			enter(h, nil)
			return
		}
		n := t.pool.node(h)
		if n.lastVisit == id || !enter(h, n) {
			return
		}
		n.lastVisit = id
		queue = append(queue, h)
	}

	discover(root)
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		edges := t.pool.edges(t.pool.node(h))
		for i := range edges {
			if edges[i].child != nilHandle {
				discover(edges[i].child)
			}
		}
	}
	t.queue = queue[:0]
}

// find returns the node reachable from root whose state equals s.
func (t *tree) find(root Handle, s game.State) Handle {
	found := nilHandle
	t.bfs(root, t.visits.next(), func(h Handle, n *stateNode) bool {
		if n == nil || found != nilHandle {
			return false
		}
		if t.rules.Equal(n.state, s) {
			found = h
			return false
		}
		return true
	})
	return found
}

// prune frees every node reachable from root but not from keep. The marks of
// the walk from keep must survive the walk from root, so both ids are taken
// from one reservation.
func (t *tree) prune(root, keep Handle) error {
	stay := t.visits.reserve(2)
	t.bfs(keep, stay, func(h Handle, n *stateNode) bool {
		return n != nil
	})

	var doomed []Handle
	t.bfs(root, t.visits.next(), func(h Handle, n *stateNode) bool {
		if n == nil || n.lastVisit == stay {
			return false
		}
		doomed = append(doomed, h)
		return true
	})
	return t.freeNodes(doomed)
}

// freeTree frees every node reachable from root.
func (t *tree) freeTree(root Handle) error {
	if root == nilHandle {
		return nil
	}
	var doomed []Handle
	t.bfs(root, t.visits.next(), func(h Handle, n *stateNode) bool {
		if n == nil {
			return false
		}
		doomed = append(doomed, h)
		return true
	})
	return t.freeNodes(doomed)
}

func (t *tree) freeNodes(doomed []Handle) error {
	for _, h := range doomed {
		if err := t.free(h); err != nil {
			return err
		}
	}
	return nil
}

// check verifies that every node reachable from root is live, permanent and
// indexed under its own key, and that nothing else is live.
func (t *tree) check(root Handle) error {
	var err error
	reachable := 0
	verify := func(h Handle, n *stateNode) bool {
		if err != nil {
			return false
		}
		switch {
		case n == nil:
			err = fault("check", h, "edge to a freed node")
		case n.status != permanent:
			err = fault("check", h, "reachable node is %s", n.status)
		case !t.index.contains(h):
			err = fault("check", h, "reachable node not indexed")
		default:
			if other, _ := t.index.lookup(n.key); other != h {
				err = fault("check", h, "key %q indexed for node %d", n.key, other)
			}
		}
		reachable++
		return err == nil
	}
	if root != nilHandle {
		t.bfs(root, t.visits.next(), verify)
	}
	if err != nil {
		return err
	}
	if size := t.index.size(); size != reachable {
		return fault("check", root, "%d nodes reachable but %d indexed", reachable, size)
	}
	if live := t.pool.Stats().LiveNodes; live != reachable {
		return fault("check", root, "%d nodes reachable but %d live", reachable, live)
	}
	return nil
}
