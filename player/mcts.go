package player

import (
	"math"
	"path/filepath"
	"time"

	"pan/experiments/metrics"
	"pan/game"
	"pan/searcher"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"
)

// Names of the statistics of an MCTS player.
const (
	StatNodePoolUsage = "node_pool_usage"
	StatRunsPerMove   = "runs_per_move"
	StatFindRoot      = "find_root_node_result"
	StatTreeReuse     = "tree_reuse"
	StatTerminal      = "terminal_playouts"

	poolUsageBucket = 1000
)

type mctsPlayer struct {
	number int
	mcts   *searcher.MCTS
	last   metrics.SearchMetric

	poolUsage metrics.Histogram[int]
	runs      metrics.Histogram[int]
	findRoot  metrics.Histogram[string]
	treeReuse metrics.Ratio
	terminal  metrics.Ratio
}

// newMCTSPlayer reads the search configuration from params. The evaluation
// function used at playout cutoffs is required.
func newMCTSPlayer(number int, params Params) (Player, error) {
	var options []searcher.Option
	var err error
	ifSet := func(key string, set func()) {
		if err != nil {
			return
		}
		if _, found := params[key]; found {
			set()
		}
	}

	seed, err := PopParamOr(params, "random_seed", frand.Uint64n(math.MaxUint64))
	options = append(options, searcher.WithSeed(seed))
	ifSet("number_of_players", func() {
		var players int
		players, err = PopParamOr(params, "number_of_players", 0)
		options = append(options, searcher.WithPlayers(players))
	})
	ifSet("playout_depth", func() {
		var depth int
		depth, err = PopParamOr(params, "playout_depth", searcher.DefaultCutoff)
		options = append(options, searcher.WithCutoff(depth))
	})
	ifSet("expand_size", func() {
		var size int
		size, err = PopParamOr(params, "expand_size", searcher.DefaultExpansion)
		options = append(options, searcher.WithExpansion(size))
	})
	ifSet("explore_exploit_ratio", func() {
		var c float64
		c, err = PopParamOr(params, "explore_exploit_ratio", searcher.DefaultExploration)
		options = append(options, searcher.WithExploration(c))
	})
	ifSet("cycle_penalty", func() {
		var penalty int
		penalty, err = PopParamOr(params, "cycle_penalty", searcher.DefaultCyclePenalty)
		options = append(options, searcher.WithCyclePenalty(penalty))
	})
	ifSet("best_move_epsilon", func() {
		var epsilon float64
		epsilon, err = PopParamOr(params, "best_move_epsilon", searcher.DefaultEpsilon)
		options = append(options, searcher.WithEpsilon(epsilon))
	})
	ifSet("decay", func() {
		var decay float64
		decay, err = PopParamOr(params, "decay", 0.0)
		options = append(options, searcher.WithDecay(decay))
	})
	if err != nil {
		return nil, err
	}

	budget, err := budgetFrom(params)
	if err != nil {
		return nil, err
	}
	options = append(options, budget)

	evalName, err := PopParamOr(params, "eval", "")
	if err != nil {
		return nil, err
	}
	if evalName == "" {
		return nil, errors.New("missing evaluation function, set eval=<name>")
	}
	evaluate, ok := game.LookupEvaluation(evalName)
	if !ok {
		return nil, errors.Errorf("unknown evaluation function %q", evalName)
	}
	options = append(options, searcher.WithEvaluationFn(evaluate))

	dumps, err := dumpsFrom(params)
	if err != nil {
		return nil, err
	}
	options = append(options, dumps...)

	logger := log.Logger.With().Str("component", "mcts").Int("player", number).Logger()
	options = append(options, searcher.WithMetrics(), searcher.WithLogger(logger))

	mcts, err := searcher.NewMCTS(number, options...)
	if err != nil {
		return nil, err
	}
	p := &mctsPlayer{number: number, mcts: mcts}
	p.ResetStats()
	return p, nil
}

// budgetFrom prefers the simulation limit over the time limit. Without
// either one a move is searched for a second.
func budgetFrom(params Params) (searcher.Option, error) {
	_, hasSims := params["move_sim_limit"]
	sims, err := PopParamOr(params, "move_sim_limit", 0)
	if err != nil {
		return nil, err
	}
	limit, err := PopParamOr(params, "move_time_limit", "")
	if err != nil {
		return nil, err
	}
	if hasSims {
		if sims <= 0 {
			return nil, errors.Errorf("move_sim_limit must be positive, got %d", sims)
		}
		return searcher.WithEpisodes(sims), nil
	}
	if limit == "" {
		return searcher.WithDuration(time.Second), nil
	}
	duration, err := parseDuration(limit)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, errors.Errorf("move_time_limit must be positive, got %v", duration)
	}
	return searcher.WithDuration(duration), nil
}

// parseDuration accepts Go durations ("250ms") and plain seconds ("0.5").
func parseDuration(value string) (time.Duration, error) {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration, nil
	}
	seconds, err := GetParamOr(Params{"move_time_limit": value}, "move_time_limit", 0.0)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// dumpsFrom turns the diagnostic file names into dump paths below out_dir.
func dumpsFrom(params Params) ([]searcher.Option, error) {
	outDir, err := PopParamOr(params, "out_dir", "")
	if err != nil {
		return nil, err
	}
	moveFile, err := PopParamOr(params, "trace_move_filename", "")
	if err != nil {
		return nil, err
	}
	gameFile, err := PopParamOr(params, "game_tree_filename", "")
	if err != nil {
		return nil, err
	}
	var options []searcher.Option
	if moveFile != "" {
		options = append(options, searcher.WithMoveDump(filepath.Join(outDir, moveFile)))
	}
	if gameFile != "" {
		options = append(options, searcher.WithGameDump(filepath.Join(outDir, gameFile)))
	}
	return options, nil
}

func (p *mctsPlayer) Name() string {
	return "mcts"
}

func (p *mctsPlayer) SetGameRules(rules game.Rules) error {
	return p.mcts.SetRules(rules)
}

func (p *mctsPlayer) StartNewGame() {
	p.mcts.StartGame()
}

func (p *mctsPlayer) SelectMove(state game.State) (game.Move, error) {
	move, metric, err := p.mcts.FindMove(state)
	if err != nil {
		return nil, err
	}
	p.last = metric
	if metric.Episodes == 0 {
		return move, nil
	}
	p.runs.Add(metric.Episodes)
	if metric.IsTreeReused {
		p.findRoot.Add("found")
	} else {
		p.findRoot.Add("not found")
	}
	p.treeReuse.Add(metric.IsTreeReused)
	p.terminal.Hits += metric.FullPlayouts
	p.terminal.Total += metric.FullPlayouts + metric.Cutoffs
	return move, nil
}

func (p *mctsPlayer) LastSearch() metrics.SearchMetric {
	return p.last
}

func (p *mctsPlayer) EndGame(scores []int, result game.Result) {
	stats := p.mcts.EndGame()
	p.poolUsage.Add(metrics.Bucket(stats.PeakChunks, poolUsageBucket))
}

func (p *mctsPlayer) GameStats() metrics.Named {
	stats := metrics.Named{
		StatNodePoolUsage: p.poolUsage,
		StatRunsPerMove:   p.runs,
		StatFindRoot:      p.findRoot,
		StatTreeReuse:     p.treeReuse,
		StatTerminal:      p.terminal,
	}
	// a copy, later games must not change what the caller holds
	out := metrics.Named{}
	out.Merge(stats)
	return out
}

func (p *mctsPlayer) ResetStats() {
	p.poolUsage = metrics.Histogram[int]{}
	p.runs = metrics.Histogram[int]{}
	p.findRoot = metrics.Histogram[string]{}
	p.treeReuse = metrics.Ratio{}
	p.terminal = metrics.Ratio{}
}

func init() {
	RegisterModule("mcts", ModuleFunc(newMCTSPlayer))
}
