package player

import (
	"math"

	"pan/experiments/metrics"
	"pan/game"

	"golang.org/x/exp/rand"
	"lukechampine.com/frand"
)

// simplePlayer picks one of its legal moves without looking ahead.
type simplePlayer struct {
	name   string
	number int
	rules  game.Rules
	pick   func(n int) int
}

func (p *simplePlayer) Name() string {
	return p.name
}

func (p *simplePlayer) SetGameRules(rules game.Rules) error {
	p.rules = rules
	return nil
}

func (p *simplePlayer) StartNewGame() {}

func (p *simplePlayer) SelectMove(state game.State) (game.Move, error) {
	moves := p.rules.LegalMoves(state, p.number)
	defer p.rules.ReleaseMoves(moves)
	if len(moves) == 0 {
		return nil, nil
	}
	return moves[p.pick(len(moves))], nil
}

func (p *simplePlayer) EndGame(scores []int, result game.Result) {}

func (p *simplePlayer) GameStats() metrics.Named {
	return metrics.Named{}
}

func (p *simplePlayer) ResetStats() {}

// newRandomPlayer picks a move uniformly at random.
func newRandomPlayer(number int, params Params) (Player, error) {
	seed, err := PopParamOr(params, "random_seed", frand.Uint64n(math.MaxUint64))
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	return &simplePlayer{name: "random", number: number, pick: rng.Intn}, nil
}

// newLowCardPlayer always plays the first legal move, which in the card game
// is the lowest card it may put on the stack. It takes a random_seed like
// every other player but has no use for it.
func newLowCardPlayer(number int, params Params) (Player, error) {
	if _, err := PopParamOr(params, "random_seed", uint64(0)); err != nil {
		return nil, err
	}
	return &simplePlayer{name: "lowcard", number: number, pick: func(int) int { return 0 }}, nil
}

func init() {
	RegisterModule("random", ModuleFunc(newRandomPlayer))
	RegisterModule("lowcard", ModuleFunc(newLowCardPlayer))
}
