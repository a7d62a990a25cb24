package searcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVisitSession(t *testing.T) {
	t.Run("wraps without stale visits", func(t *testing.T) {
		p := NewPool()
		h, err := p.Allocate(0)
		require.NoError(t, err)
		v := visitSession{pool: p}

		p.node(h).lastVisit = 1
		v.id = math.MaxUint16
		id := v.next()
		require.Equal(t, uint16(1), id)
		require.NotEqual(t, id, p.node(h).lastVisit, "Should clear stamps of older passes")
	})

	t.Run("reserved ids are not cleared in between", func(t *testing.T) {
		p := NewPool()
		h, err := p.Allocate(0)
		require.NoError(t, err)
		v := visitSession{pool: p}

		v.id = math.MaxUint16 - 1
		first := v.reserve(2)
		require.Equal(t, uint16(1), first, "Should wrap before handing out the pair")
		p.node(h).lastVisit = first
		require.Equal(t, uint16(2), v.next())
		require.Equal(t, first, p.node(h).lastVisit, "Should keep the marks of the first id")
	})

	t.Run("counts up", func(t *testing.T) {
		v := visitSession{pool: NewPool()}
		require.Equal(t, uint16(1), v.next())
		require.Equal(t, uint16(2), v.next())
	})
}

func TestTraversal(t *testing.T) {
	t.Run("finds a shared node once", func(t *testing.T) {
		m := newEngine(t, simpleTree())
		grow(t, m, "root")

		seen := map[Handle]int{}
		m.bfs(m.root, m.visits.next(), func(h Handle, n *stateNode) bool {
			seen[h]++
			return true
		})
		require.Len(t, seen, 6)
		for h, count := range seen {
			require.Equal(t, 1, count, "Should enter node %d once", h)
		}
	})

	t.Run("finds a state by equality", func(t *testing.T) {
		m := newEngine(t, simpleTree())
		grow(t, m, "root")
		require.Equal(t, handleOf(t, m, "t3"), m.find(m.root, "t3"))
		require.Equal(t, nilHandle, m.find(handleOf(t, m, "ml"), "t3"), "Should search only below the root")
	})

	t.Run("prunes nodes shared with the kept subtree only once", func(t *testing.T) {
		m := newEngine(t, simpleTree())
		grow(t, m, "root")
		mr := handleOf(t, m, "mr")

		require.NoError(t, m.prune(m.root, mr))
		m.root = mr
		require.Equal(t, 3, m.pool.Stats().LiveNodes)
		_, ok := m.index.lookup("t2")
		require.True(t, ok, "Should keep the node reachable from both sides")
		require.NoError(t, m.check(m.root))
	})

	t.Run("check reports unreachable nodes", func(t *testing.T) {
		m := newEngine(t, simpleTree())
		grow(t, m, "root")
		root := m.pool.node(m.root)
		m.pool.edges(root)[simpleTree().MoveIndex("root", "right")].child = nilHandle

		require.ErrorIs(t, m.check(m.root), ErrCorrupted, "Should count mr and t3 as leaked")
	})

	t.Run("check reports edges to freed nodes", func(t *testing.T) {
		m := newEngine(t, simpleTree())
		grow(t, m, "root")
		require.NoError(t, m.free(handleOf(t, m, "t3")))

		require.ErrorIs(t, m.check(m.root), ErrCorrupted)
	})
}
