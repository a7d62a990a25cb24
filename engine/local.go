package engine

import (
	"context"
	"time"

	"pan/experiments/metrics"
	"pan/game"
	"pan/meta"
	"pan/player"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Engine plays games between a fixed set of players. It is not safe for
// concurrent use.
type Engine struct {
	rules      game.Rules
	players    []player.Player
	rng        *rand.Rand
	roundLimit int
	logger     zerolog.Logger
}

// New hands the rules to every player. Seat i is played by players[i]. A
// round limit of zero or less uses meta.ROUND_LIMIT.
func New(rules game.Rules, players []player.Player, seed uint64, roundLimit int) (*Engine, error) {
	if len(players) != rules.Players() {
		return nil, errors.Errorf("game needs %d players, got %d", rules.Players(), len(players))
	}
	for i, p := range players {
		if err := p.SetGameRules(rules); err != nil {
			return nil, errors.WithMessagef(err, "player %d", i)
		}
	}
	if roundLimit <= 0 {
		roundLimit = meta.ROUND_LIMIT
	}
	return &Engine{
		rules:      rules,
		players:    players,
		rng:        rand.New(rand.NewSource(seed)),
		roundLimit: roundLimit,
		logger:     log.Logger.With().Str("component", "engine").Logger(),
	}, nil
}

// Run plays one game from a random initial state. Only the player to act is
// asked for a move. The game ends when a terminal state is reached, after
// the round limit, or when a state repeats. Every player sees EndGame, even
// when Run fails.
func (e *Engine) Run(ctx context.Context) (*Outcome, error) {
	rules := e.rules
	state := rules.NewInitialState(e.rng)
	defer func() { rules.ReleaseState(state) }()

	for _, p := range e.players {
		p.StartNewGame()
	}
	scores := make([]int, rules.Players())
	result := game.RoundLimit
	defer func() {
		rules.Score(state, scores)
		for _, p := range e.players {
			p.EndGame(scores, result)
		}
	}()

	outcome := &Outcome{}
	outcome.Game.StartingPlayer = rules.CurrentPlayer(state)
	outcome.Game.StartTime = time.Now()
	visited := map[string]struct{}{rules.Key(state): {}}
	e.logger.Debug().Int("starting_player", outcome.Game.StartingPlayer).Msg("game started")

loop:
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch {
		case rules.IsTerminal(state):
			result = game.Win
			break loop
		case outcome.Rounds >= e.roundLimit:
			result = game.RoundLimit
			break loop
		}

		current := rules.CurrentPlayer(state)
		move, err := e.players[current].SelectMove(state)
		if err != nil {
			return nil, errors.WithMessagef(err, "player %d failed to move in round %d", current, outcome.Rounds+1)
		}
		if move == nil {
			return nil, errors.Errorf("player %d has no move in %s", current, rules.String(state))
		}
		outcome.Rounds++
		moveMetric := metrics.MoveMetric{Step: outcome.Rounds, Player: current}
		if reporter, ok := e.players[current].(player.SearchReporter); ok {
			moveMetric.SearchMetric = reporter.LastSearch()
		}
		outcome.Moves = append(outcome.Moves, moveMetric)
		e.logger.Trace().
			Int("round", outcome.Rounds).
			Int("player", current).
			Str("move", rules.MoveString(move)).
			Msg("move played")

		next := rules.Apply(state, move, current)
		rules.ReleaseState(state)
		state = next

		key := rules.Key(state)
		if _, seen := visited[key]; seen {
			result = game.StateLoop
			break
		}
		visited[key] = struct{}{}
	}

	rules.Score(state, scores)
	outcome.Result = result
	outcome.Scores = append([]int(nil), scores...)
	outcome.Game.Result = result.String()
	outcome.Game.Scores = outcome.Scores
	outcome.Game.EndTime = time.Now()
	outcome.Game.Duration = outcome.Game.EndTime.Sub(outcome.Game.StartTime)
	outcome.Game.TotalMoves = outcome.Rounds
	e.logger.Debug().
		Str("result", result.String()).
		Ints("scores", outcome.Scores).
		Int("rounds", outcome.Rounds).
		Msg("game over")
	return outcome, nil
}
