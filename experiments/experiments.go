// Package experiments pits player configurations against each other and
// stores the results as CSV files.
package experiments

import (
	"context"
	"fmt"
	"sort"

	"pan/engine"
	"pan/experiments/metrics"
	"pan/game"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	baselineMCTS = "mcts:eval=num_cards,move_sim_limit=200"
)

// Experiment is a list of match ups, each one a player configuration per
// seat.
type Experiment struct {
	Name     string
	MatchUps [][]string
}

// Options are shared by all match ups of an experiment.
type Options struct {
	Games      int
	Threads    int
	RoundLimit int
	Seed       uint64
	OutDir     string // no files are written when empty
}

var registry = map[string]func() Experiment{
	"cutoff":    cutoffExperiment,
	"expansion": expansionExperiment,
	"baseline":  baselineExperiment,
}

// Names lists the experiments Run knows.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Lookup(name string) (Experiment, bool) {
	build, ok := registry[name]
	if !ok {
		return Experiment{}, false
	}
	return build(), true
}

// cutoffExperiment pairs the baseline against shorter and longer playouts.
func cutoffExperiment() Experiment {
	e := Experiment{Name: "cutoff"}
	for _, depth := range []int{2, 5, 10, 20, 50} {
		e.MatchUps = append(e.MatchUps, []string{
			baselineMCTS,
			fmt.Sprintf("%s,playout_depth=%d", baselineMCTS, depth),
		})
	}
	return e
}

// expansionExperiment varies the number of nodes kept per simulation, 0
// keeps the whole playout.
func expansionExperiment() Experiment {
	e := Experiment{Name: "expansion"}
	for _, size := range []int{0, 1, 2, 5} {
		e.MatchUps = append(e.MatchUps, []string{
			baselineMCTS,
			fmt.Sprintf("%s,expand_size=%d", baselineMCTS, size),
		})
	}
	return e
}

// baselineExperiment plays the search against the simple players, on both
// seats.
func baselineExperiment() Experiment {
	return Experiment{
		Name: "baseline",
		MatchUps: [][]string{
			{baselineMCTS, "random"},
			{"random", baselineMCTS},
			{baselineMCTS, "lowcard"},
			{"lowcard", baselineMCTS},
		},
	}
}

// Run plays every match up of e and writes the records of all of them.
func Run(ctx context.Context, e Experiment, opts Options) ([]*engine.Summary, error) {
	log.Info().Msgf("starting %s experiment...", e.Name)

	var summaries []*engine.Summary
	var games []metrics.GameRecord
	var moves []metrics.MoveRecord
	var stats []metrics.StatRecord
	offset := 0
	for mi, matchUp := range e.MatchUps {
		log.Info().Msgf("starting match up %d of %d: %v", mi+1, len(e.MatchUps), matchUp)
		summary, err := engine.RunBatch(ctx, engine.BatchConfig{
			Players:    matchUp,
			Games:      opts.Games,
			Threads:    opts.Threads,
			RoundLimit: opts.RoundLimit,
			Seed:       opts.Seed,
			NewRules:   func(players int) game.Rules { return game.NewStandardRules(players) },
		})
		if err != nil {
			return nil, errors.WithMessagef(err, "match up %d", mi+1)
		}
		summaries = append(summaries, summary)

		// game ids restart with every batch
		for _, record := range summary.Records {
			record.ID += offset
			games = append(games, record)
		}
		for _, record := range summary.Moves {
			record.Game += offset
			moves = append(moves, record)
		}
		offset += summary.Games
		for seat, named := range summary.Stats {
			stats = append(stats, metrics.StatRecord{
				Player: fmt.Sprintf("m%d.p%d", mi+1, seat+1),
				Stats:  named,
			})
		}
		log.Info().Msgf("completed match up %d of %d with points %v", mi+1, len(e.MatchUps), summary.Points)
	}
	log.Info().Msgf("completed %s experiment", e.Name)

	if opts.OutDir == "" {
		return summaries, nil
	}
	if err := Store(opts.OutDir, games, moves, stats); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Store writes the records into a new timestamped directory below dir.
func Store(dir string, games []metrics.GameRecord, moves []metrics.MoveRecord, stats []metrics.StatRecord) error {
	writer, err := metrics.NewWriter(dir)
	if err != nil {
		return errors.WithMessage(err, "failed to create experiment writer")
	}
	if err := writer.WriteGameRecords(games); err != nil {
		return err
	}
	log.Info().Msg("stored game records")
	if err := writer.WriteMoveRecords(moves); err != nil {
		return err
	}
	log.Info().Msg("stored move records")
	if err := writer.WriteStats(stats); err != nil {
		return err
	}
	log.Info().Str("dir", writer.Dir()).Msg("stored player stats")
	return nil
}
