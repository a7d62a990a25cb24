package engine

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"pan/experiments/metrics"
	"pan/game"
	"pan/meta"
	"pan/player"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

// BatchConfig describes a series of games between the same players.
type BatchConfig struct {
	Players    []string // player configuration per seat
	Games      int
	Threads    int
	RoundLimit int
	Seed       uint64 // seeds deals and players, zero draws random seeds
	NewRules   func(players int) game.Rules
}

// Summary aggregates the games of a batch, per seat where it applies.
type Summary struct {
	Games    int
	Rounds   int
	Results  metrics.Histogram[string]
	Points   []int
	Wins     []int
	Losses   []int
	Stats    []metrics.Named
	Records  []metrics.GameRecord
	Moves    []metrics.MoveRecord
	Duration time.Duration
}

func newSummary(seats int) *Summary {
	s := &Summary{
		Results: metrics.Histogram[string]{},
		Points:  make([]int, seats),
		Wins:    make([]int, seats),
		Losses:  make([]int, seats),
		Stats:   make([]metrics.Named, seats),
	}
	for i := range s.Stats {
		s.Stats[i] = metrics.Named{}
	}
	return s
}

// PointsRatio is the share of all points scored by seat.
func (s *Summary) PointsRatio(seat int) float64 {
	total := 0
	for _, points := range s.Points {
		total += points
	}
	if total == 0 {
		return 0
	}
	return float64(s.Points[seat]) / float64(total)
}

func (s *Summary) add(id int, players []string, outcome *Outcome) {
	s.Games++
	s.Rounds += outcome.Rounds
	s.Results.Add(outcome.Result.String())
	for seat, score := range outcome.Scores {
		s.Points[seat] += score
		if outcome.Won(seat) {
			s.Wins[seat]++
		}
		if outcome.Lost(seat) {
			s.Losses[seat]++
		}
	}
	s.Records = append(s.Records, metrics.GameRecord{ID: id, Players: players, GameMetric: outcome.Game})
	for _, move := range outcome.Moves {
		s.Moves = append(s.Moves, metrics.MoveRecord{Game: id, MoveMetric: move})
	}
}

func (s *Summary) merge(other *Summary) {
	s.Games += other.Games
	s.Rounds += other.Rounds
	s.Results = s.Results.Merge(other.Results).(metrics.Histogram[string])
	for seat := range s.Points {
		s.Points[seat] += other.Points[seat]
		s.Wins[seat] += other.Wins[seat]
		s.Losses[seat] += other.Losses[seat]
		s.Stats[seat].Merge(other.Stats[seat])
	}
	s.Records = append(s.Records, other.Records...)
	s.Moves = append(s.Moves, other.Moves...)
}

// RunBatch plays cfg.Games games on cfg.Threads workers. Every worker has its
// own rules and players, only summaries are shared.
func RunBatch(ctx context.Context, cfg BatchConfig) (*Summary, error) {
	seats := len(cfg.Players)
	if seats < 2 || seats > meta.MAX_PLAYERS {
		return nil, errors.Errorf("a game needs 2 to %d players, got %d", meta.MAX_PLAYERS, seats)
	}
	if cfg.NewRules == nil {
		return nil, errors.New("no game rules")
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = meta.GO_ROUTINES
	}
	games := cfg.Games
	if games <= 0 {
		games = meta.GAMES
	}
	if threads > games {
		threads = games
	}

	start := time.Now()
	total := newSummary(seats)
	var mu sync.Mutex
	var nextID atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < threads; w++ {
		count := games / threads
		if w < games%threads {
			count++
		}
		seed := cfg.Seed + uint64(w)
		if cfg.Seed == 0 {
			seed = frand.Uint64n(math.MaxUint64)
		}
		g.Go(func() error {
			summary, err := runWorker(ctx, cfg, count, seed, &nextID)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			total.merge(summary)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	total.Duration = time.Since(start)
	log.Info().
		Int("games", total.Games).
		Interface("results", total.Results).
		Ints("points", total.Points).
		Dur("duration", total.Duration).
		Msg("batch completed")
	return total, nil
}

// seatSeed derives the seed of a player without random_seed from the seed
// of its worker.
func seatSeed(workerSeed uint64, seat int) uint64 {
	return workerSeed ^ uint64(seat+1)<<48
}

func runWorker(ctx context.Context, cfg BatchConfig, games int, seed uint64, nextID *atomic.Int64) (*Summary, error) {
	players := make([]player.Player, len(cfg.Players))
	for seat, config := range cfg.Players {
		var p player.Player
		var err error
		if cfg.Seed != 0 {
			p, err = player.NewSeeded(seat, config, seatSeed(seed, seat))
		} else {
			p, err = player.New(seat, config)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "seat %d", seat+1)
		}
		players[seat] = p
	}
	e, err := New(cfg.NewRules(len(players)), players, seed, cfg.RoundLimit)
	if err != nil {
		return nil, err
	}

	summary := newSummary(len(players))
	for i := 0; i < games; i++ {
		outcome, err := e.Run(ctx)
		if err != nil {
			return nil, err
		}
		id := int(nextID.Add(1))
		summary.add(id, cfg.Players, outcome)
		log.Debug().Int("game", id).Str("result", outcome.Result.String()).Ints("scores", outcome.Scores).Msg("game completed")
	}
	for seat, p := range players {
		summary.Stats[seat].Merge(p.GameStats())
	}
	return summary, nil
}
