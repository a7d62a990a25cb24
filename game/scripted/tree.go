// Package scripted provides game rules described node by node. States are
// node names, so trees may share nodes and contain loops.
package scripted

import (
	"fmt"

	"pan/game"
	"pan/utils"

	"golang.org/x/exp/rand"
)

const noop = "noop"

type Move struct {
	Label  string
	Target string
}

type edge struct {
	move        Move
	probability float64
}

type node struct {
	name     string
	player   int
	edges    []edge
	labels   []string
	scores   []int
	terminal bool
}

// Tree implements game.Rules and game.Stochastic.
type Tree struct {
	players int
	root    string
	nodes   map[string]*node
}

type Builder struct {
	tree    *Tree
	current *node
}

func New(players int) *Builder {
	return &Builder{tree: &Tree{players: players, nodes: map[string]*node{}}}
}

// Node starts a decision node, the following Move calls add its moves. The
// first node is the root unless Root says otherwise.
func (b *Builder) Node(name string, player int) *Builder {
	b.current = b.add(&node{name: name, player: player})
	return b
}

func (b *Builder) Move(label, target string) *Builder {
	return b.MoveP(label, target, 1)
}

func (b *Builder) MoveP(label, target string, probability float64) *Builder {
	if b.current == nil || b.current.terminal {
		panic("move " + label + " added outside of a decision node")
	}
	b.current.edges = append(b.current.edges, edge{Move{label, target}, probability})
	b.current.labels = append(b.current.labels, label)
	return b
}

func (b *Builder) Terminal(name string, scores ...int) *Builder {
	if len(scores) != b.tree.players {
		panic(fmt.Sprintf("terminal %s needs %d scores", name, b.tree.players))
	}
	b.add(&node{name: name, scores: scores, terminal: true})
	b.current = nil
	return b
}

func (b *Builder) Root(name string) *Builder {
	b.tree.root = name
	return b
}

func (b *Builder) add(n *node) *node {
	if _, ok := b.tree.nodes[n.name]; ok {
		panic("node " + n.name + " defined twice")
	}
	if b.tree.root == "" {
		b.tree.root = n.name
	}
	b.tree.nodes[n.name] = n
	return n
}

func (b *Builder) Build() *Tree {
	for _, n := range b.tree.nodes {
		if !n.terminal && len(n.edges) == 0 {
			panic("node " + n.name + " has no moves")
		}
		for _, e := range n.edges {
			if _, ok := b.tree.nodes[e.move.Target]; !ok {
				panic("move " + e.move.Label + " of " + n.name + " leads to unknown node " + e.move.Target)
			}
		}
	}
	return b.tree
}

func (t *Tree) node(s game.State) *node {
	n, ok := t.nodes[s.(string)]
	if !ok {
		panic(fmt.Sprintf("unknown state %v", s))
	}
	return n
}

// MoveIndex is the position of the move labelled label in the legal moves
// of the player to act in s, -1 if there is none.
func (t *Tree) MoveIndex(s game.State, label string) int {
	return utils.FindIndex(t.node(s).labels, label)
}

func (t *Tree) Players() int {
	return t.players
}

func (t *Tree) NewInitialState(rng *rand.Rand) game.State {
	return t.root
}

func (t *Tree) CurrentPlayer(s game.State) int {
	return t.node(s).player
}

func (t *Tree) LegalMoves(s game.State, player int) []game.Move {
	n := t.node(s)
	if n.terminal {
		return nil
	}
	if player != n.player {
		return []game.Move{Move{Label: noop, Target: n.name}}
	}
	moves := make([]game.Move, len(n.edges))
	for i, e := range n.edges {
		moves[i] = e.move
	}
	return moves
}

func (t *Tree) Apply(s game.State, m game.Move, player int) game.State {
	return m.(Move).Target
}

func (t *Tree) IsTerminal(s game.State) bool {
	return t.node(s).terminal
}

func (t *Tree) Score(s game.State, scores []int) {
	n := t.node(s)
	if !n.terminal {
		game.EvaluateDraw(s, scores)
		return
	}
	copy(scores, n.scores)
}

func (t *Tree) TransitionProbability(s game.State, m game.Move, player int) float64 {
	for _, e := range t.node(s).edges {
		if e.move == m.(Move) {
			return e.probability
		}
	}
	return 1
}

func (t *Tree) Equal(a, b game.State) bool {
	return a.(string) == b.(string)
}

func (t *Tree) Key(s game.State) string {
	return s.(string)
}

func (t *Tree) String(s game.State) string {
	return s.(string)
}

func (t *Tree) MoveString(m game.Move) string {
	return m.(Move).Label
}

func (t *Tree) Clone(s game.State) game.State {
	return s
}

func (t *Tree) ReleaseState(s game.State) {}

func (t *Tree) ReleaseMoves(moves []game.Move) {}
