package searcher

import (
	"bufio"
	"fmt"
	"os"
)

func dumpPath(prefix string, game, move int) string {
	if move < 0 {
		return fmt.Sprintf("%s_g%d.gv", prefix, game)
	}
	return fmt.Sprintf("%s_g%d_m%d.gv", prefix, game, move)
}

// dump writes the tree below the root as a graphviz digraph, one line per
// node and one per edge. Failures are only logged.
func (m *MCTS) dump(path string) {
	f, err := os.Create(path)
	if err != nil {
		m.logger.Warn().Err(err).Str("path", path).Msg("failed to create tree dump")
		return
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "digraph g {")
	m.bfs(m.root, m.visits.next(), func(h Handle, n *stateNode) bool {
		if n == nil {
			return false
		}
		label := fmt.Sprintf("%s\nvisits=%d", m.rules.String(n.state), n.visits)
		fmt.Fprintf(w, "n%d [label=%q];\n", h, label)
		edges := m.pool.edges(n)
		for i := range edges {
			if edges[i].child == nilHandle {
				continue
			}
			label := fmt.Sprintf("%s n=%d v=%.3f", m.rules.MoveString(n.moves[i]), edges[i].visits, edges[i].average(n.player))
			fmt.Fprintf(w, "n%d -> n%d [label=%q];\n", h, edges[i].child, label)
		}
		return true
	})
	fmt.Fprintln(w, "}")
	if err := w.Flush(); err != nil {
		m.logger.Warn().Err(err).Str("path", path).Msg("failed to write tree dump")
	}
}
