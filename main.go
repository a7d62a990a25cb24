package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"pan/engine"
	"pan/experiments"
	"pan/experiments/metrics"
	"pan/game"
	"pan/meta"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var seats [meta.MAX_PLAYERS]*string
	for i := range seats {
		usage := fmt.Sprintf("Configuration of player %d, e.g. mcts:eval=num_cards,move_sim_limit=500", i+1)
		if i >= 2 {
			usage += " (optional)"
		}
		seats[i] = flag.String(fmt.Sprintf("p%d", i+1), "", usage)
	}
	games := flag.Int("games", meta.GAMES, "Number of games to play")
	rounds := flag.Int("rounds", meta.ROUND_LIMIT, "Moves after which a game is stopped")
	threads := flag.Int("threads", meta.GO_ROUTINES, "Number of games played in parallel")
	seed := flag.Uint64("seed", 0, "Seed of the deals, 0 for a random one")
	outDir := flag.String("out", "", "Directory for the CSV statistics, none are written when empty")
	experiment := flag.String("experiment", "", "Run a predefined experiment instead of the players: "+strings.Join(experiments.Names(), ", "))
	logLevel := flag.String("log-level", "info", "Log level: trace, debug, info, warn or error")
	pretty := flag.Bool("pretty", true, "Human readable logs instead of JSON")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", *logLevel)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(level)
	if *pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *experiment != "" {
		e, ok := experiments.Lookup(*experiment)
		if !ok {
			log.Fatal().Msgf("unknown experiment %q", *experiment)
		}
		opts := experiments.Options{Games: *games, Threads: *threads, RoundLimit: *rounds, Seed: *seed, OutDir: *outDir}
		if _, err := experiments.Run(ctx, e, opts); err != nil {
			log.Fatal().Err(err).Msg("experiment failed")
		}
		return
	}

	var players []string
	for i, config := range seats {
		if *config == "" {
			if i < 2 {
				log.Fatal().Msgf("missing configuration of player %d, set --p%d", i+1, i+1)
			}
			continue
		}
		players = append(players, *config)
	}

	summary, err := engine.RunBatch(ctx, engine.BatchConfig{
		Players:    players,
		Games:      *games,
		Threads:    *threads,
		RoundLimit: *rounds,
		Seed:       *seed,
		NewRules:   func(players int) game.Rules { return game.NewStandardRules(players) },
	})
	if err != nil {
		log.Fatal().Err(err).Msg("games failed")
	}
	report(summary, players)

	if *outDir != "" {
		var stats []metrics.StatRecord
		for seat, named := range summary.Stats {
			stats = append(stats, metrics.StatRecord{Player: fmt.Sprintf("p%d", seat+1), Stats: named})
		}
		if err := experiments.Store(*outDir, summary.Records, summary.Moves, stats); err != nil {
			log.Fatal().Err(err).Msg("failed to store statistics")
		}
	}
}

func report(summary *engine.Summary, players []string) {
	fmt.Printf("games: %d in %v, rounds: %d\n", summary.Games, summary.Duration, summary.Rounds)
	for _, row := range summary.Results.Rows() {
		fmt.Printf("  %s: %s\n", row[0], row[1])
	}
	for seat, config := range players {
		fmt.Printf("p%d %s\n", seat+1, config)
		fmt.Printf("  pts=%d pts_ratio=%.3f win=%d lose=%d\n",
			summary.Points[seat], summary.PointsRatio(seat), summary.Wins[seat], summary.Losses[seat])
		for _, line := range strings.Split(strings.TrimSpace(summary.Stats[seat].String()), "\n") {
			if line != "" {
				fmt.Printf("  %s\n", line)
			}
		}
	}
}
