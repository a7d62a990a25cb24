package game

import (
	"sync"

	"golang.org/x/exp/rand"
)

// State and Move are owned by the rules that produced them. The search never
// looks inside either one.
type State any
type Move any

// Rules is everything a player needs to know about a game.
type Rules interface {
	Players() int
	NewInitialState(rng *rand.Rand) State
	CurrentPlayer(s State) int
	// LegalMoves lists the moves of player in s. A player who is not to act
	// gets a single no-op move, a terminal state has none.
	LegalMoves(s State, player int) []Move
	// Apply returns a new state, s stays owned by the caller.
	Apply(s State, m Move, player int) State
	IsTerminal(s State) bool
	// Score fills one entry per player, in points between 0 and 100.
	Score(s State, scores []int)
	Equal(a, b State) bool
	// Key is the canonical form of a state, two states are equal iff their
	// keys are.
	Key(s State) string
	String(s State) string
	MoveString(m Move) string
	Clone(s State) State
	ReleaseState(s State)
	ReleaseMoves(moves []Move)
}

// Stochastic is implemented by rules where the outcome of a move is not fully
// known to the acting player.
type Stochastic interface {
	TransitionProbability(s State, m Move, player int) float64
}

// Evaluate estimates the score of a non terminal state, one entry per player,
// in the same 0..100 points as Rules.Score.
type Evaluate func(s State, scores []int)

// Result tells how a game ended.
type Result int

const (
	Win Result = iota
	RoundLimit
	StateLoop
)

func (r Result) String() string {
	switch r {
	case Win:
		return "win"
	case RoundLimit:
		return "round_limit"
	case StateLoop:
		return "state_loop"
	default:
		return "unknown"
	}
}

var (
	evaluationsMu sync.RWMutex
	evaluations   = map[string]Evaluate{}
)

// RegisterEvaluation makes an evaluation function available to players by
// name. Registering the same name twice panics.
func RegisterEvaluation(name string, fn Evaluate) {
	evaluationsMu.Lock()
	defer evaluationsMu.Unlock()
	if _, found := evaluations[name]; found {
		panic("evaluation " + name + " registered twice")
	}
	evaluations[name] = fn
}

func LookupEvaluation(name string) (Evaluate, bool) {
	evaluationsMu.RLock()
	defer evaluationsMu.RUnlock()
	fn, ok := evaluations[name]
	return fn, ok
}

// EvaluateDraw splits the points evenly, i.e. knows nothing about the state.
func EvaluateDraw(s State, scores []int) {
	for i := range scores {
		scores[i] = 100 / len(scores)
	}
}

func init() {
	RegisterEvaluation("draw", EvaluateDraw)
}
