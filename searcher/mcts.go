package searcher

import (
	"math"
	"time"

	"pan/experiments/metrics"
	"pan/game"
	"pan/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"lukechampine.com/frand"
)

type Option func(mcts *MCTS)

// step is one node of a simulation path and the edge taken from it, -1 at the
// leaf.
type step struct {
	node Handle
	edge int
}

// MCTS searches the moves of one player. It keeps its tree between the
// moves of a game and is not safe for concurrent use.
type MCTS struct {
	player       int
	players      int
	c            float64
	cutoff       int
	expansion    int
	cyclePenalty int
	epsilon      float64
	decay        float64
	seed         uint64
	budget       Budget
	evaluate     game.Evaluate
	metrics      metrics.Collector
	logger       zerolog.Logger
	moveDump     string
	gameDump     string
	err          error // first invalid option

	rng    *rand.Rand
	root   Handle
	broken error
	games  int
	moves  int
	*tree

	path   []step
	fresh  []Handle
	links  []step
	scores []int
	values []float64
	ties   []int
}

func WithPlayers(players int) Option {
	return func(m *MCTS) {
		if players < 1 || players > MaxPlayers {
			m.fail(errors.Errorf("number of players must be between 1 and %d, got %d", MaxPlayers, players))
		}
		m.players = players
	}
}

func WithExploration(c float64) Option {
	return func(m *MCTS) {
		if c < 0 {
			m.fail(errors.Errorf("exploration constant must not be negative, got %v", c))
		}
		m.c = c
	}
}

func WithCutoff(depth int) Option {
	return func(m *MCTS) {
		if depth <= 0 {
			m.fail(errors.Errorf("playout depth must be positive, got %d", depth))
		}
		m.cutoff = depth
	}
}

// WithExpansion sets how many new nodes a simulation adds to the tree, zero
// or less keeps all of them.
func WithExpansion(nodes int) Option {
	return func(m *MCTS) {
		m.expansion = nodes
	}
}

func WithCyclePenalty(score int) Option {
	return func(m *MCTS) {
		m.cyclePenalty = score
	}
}

func WithEpsilon(epsilon float64) Option {
	return func(m *MCTS) {
		if epsilon < 0 {
			m.fail(errors.Errorf("best move epsilon must not be negative, got %v", epsilon))
		}
		m.epsilon = epsilon
	}
}

// WithDecay damps values by the transition probability of every edge they
// pass, 0 turns damping off and 1 multiplies by the probability.
func WithDecay(decay float64) Option {
	return func(m *MCTS) {
		if decay < 0 || decay > 1 {
			m.fail(errors.Errorf("decay must be between 0 and 1, got %v", decay))
		}
		m.decay = decay
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.seed = seed
	}
}

func WithBudget(budget Budget) Option {
	return func(m *MCTS) {
		if budget != nil {
			m.budget = budget
		}
	}
}

func WithEpisodes(episodes int) Option {
	return func(m *MCTS) {
		if episodes <= 0 {
			m.fail(errors.Errorf("simulations per move must be positive, got %d", episodes))
		}
		m.budget = Simulations(episodes)
	}
}

func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration <= 0 {
			m.fail(errors.Errorf("time per move must be positive, got %v", duration))
		}
		m.budget = Deadline(duration)
	}
}

func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(m *MCTS) {
		if evaluate != nil {
			m.evaluate = evaluate
		}
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *MCTS) {
		m.logger = logger
	}
}

// WithMoveDump writes the tree after every search to
// <prefix>_g<game>_m<move>.gv.
func WithMoveDump(prefix string) Option {
	return func(m *MCTS) {
		m.moveDump = prefix
	}
}

// WithGameDump writes the tree left at the end of every game to
// <prefix>_g<game>.gv.
func WithGameDump(prefix string) Option {
	return func(m *MCTS) {
		m.gameDump = prefix
	}
}

func (m *MCTS) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

func NewMCTS(player int, options ...Option) (*MCTS, error) {
	m := &MCTS{ // Default values
		player:       player,
		c:            DefaultExploration,
		cutoff:       DefaultCutoff,
		expansion:    DefaultExpansion,
		cyclePenalty: DefaultCyclePenalty,
		epsilon:      DefaultEpsilon,
		seed:         frand.Uint64n(math.MaxUint64),
		metrics:      metrics.NewDummyCollector(),
		tree:         newTree(),
	}
	m.logger = log.Logger.With().Str("component", "mcts").Int("player", player).Logger()
	for _, option := range options {
		option(m)
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.budget == nil {
		return nil, errors.New("must specify search episodes or duration")
	}
	if m.evaluate == nil {
		return nil, errors.New("must specify an evaluation function")
	}
	if player < 0 || (m.players > 0 && player >= m.players) {
		return nil, errors.Errorf("player number %d out of range", player)
	}
	m.rng = rand.New(rand.NewSource(m.seed))
	return m, nil
}

// SetRules switches the game, dropping any tree left from the previous one.
func (m *MCTS) SetRules(rules game.Rules) error {
	if m.root != nilHandle {
		m.EndGame()
	}
	if m.players == 0 {
		m.players = rules.Players()
	}
	if m.players != rules.Players() || m.players > MaxPlayers {
		return errors.Errorf("engine set up for %d players, game has %d", m.players, rules.Players())
	}
	if m.player >= m.players {
		return errors.Errorf("player number %d out of range", m.player)
	}
	m.rules = rules
	m.scores = make([]int, m.players)
	return nil
}

func (m *MCTS) StartGame() {
	m.games++
	m.moves = 0
}

// FindMove searches state and returns the best move of the engine's player.
// A player with at most one legal move gets it without any search.
func (m *MCTS) FindMove(state game.State) (game.Move, metrics.SearchMetric, error) {
	if m.rules == nil {
		return nil, metrics.SearchMetric{}, errors.New("no game rules set")
	}
	if m.broken != nil {
		return nil, metrics.SearchMetric{}, errors.WithMessage(m.broken, "engine is broken until the end of the game")
	}

	moves := m.rules.LegalMoves(state, m.player)
	switch len(moves) {
	case 0:
		m.rules.ReleaseMoves(moves)
		return nil, metrics.SearchMetric{}, nil
	case 1:
		move := moves[0]
		m.rules.ReleaseMoves(moves)
		return move, metrics.SearchMetric{}, nil
	}
	m.rules.ReleaseMoves(moves)

	m.metrics.Start()
	if err := m.findRoot(state); err != nil {
		return nil, metrics.SearchMetric{}, m.breakDown(err)
	}
	m.budget.Start()
	for m.budget.CanContinue() {
		if err := m.simulate(); err != nil {
			return nil, metrics.SearchMetric{}, m.breakDown(err)
		}
		m.metrics.AddEpisode()
	}
	m.moves++
	if m.moveDump != "" {
		m.dump(dumpPath(m.moveDump, m.games, m.moves))
	}

	root := m.pool.node(m.root)
	best := m.bestEdge()
	metric := m.metrics.Complete()
	m.logger.Debug().
		Int("simulations", metric.Episodes).
		Int("nodes", m.pool.Stats().LiveNodes).
		Str("move", m.rules.MoveString(root.moves[best])).
		Msg("move found")
	return root.moves[best], metric, nil
}

func (m *MCTS) breakDown(err error) error {
	m.broken = err
	m.logger.Error().Err(err).Msg("search failed")
	return err
}

// EndGame frees the tree and returns the pool usage of the game. Nodes still
// live afterwards are leaks, they are logged and the pool is reset.
func (m *MCTS) EndGame() PoolStats {
	if m.gameDump != "" && m.root != nilHandle {
		m.dump(dumpPath(m.gameDump, m.games, -1))
	}
	stats := m.pool.Stats()
	if err := m.freeTree(m.root); err != nil {
		m.logger.Error().Err(err).Msg("failed to free search tree")
	}
	m.root = nilHandle
	if left := m.pool.Stats(); left.LiveChunks != 0 || m.index.size() != 0 {
		m.logger.Warn().
			Int("chunks", left.LiveChunks).
			Int("nodes", left.LiveNodes).
			Int("indexed", m.index.size()).
			Msg("search tree leaked, resetting node pool")
		m.reset()
	}
	m.pool.ResetStats()
	m.broken = nil
	return stats
}

// findRoot moves the root to the node holding state, keeping what is below
// it, or starts a new tree when state is not in the current one.
func (m *MCTS) findRoot(state game.State) error {
	if m.root != nilHandle {
		found := m.find(m.root, state)
		if found != nilHandle {
			m.metrics.SetTreeReused(true)
			if err := m.prune(m.root, found); err != nil {
				return err
			}
			m.root = found
			return m.verify()
		}
		if err := m.freeTree(m.root); err != nil {
			return err
		}
		m.root = nilHandle
	}

	m.metrics.SetTreeReused(false)
	root, created, err := m.node(m.rules.Clone(state))
	if err != nil {
		return err
	}
	if !created {
		return fault("find root", root, "state of a new root already indexed")
	}
	m.pool.node(root).status = permanent
	m.root = root
	return m.verify()
}

func (m *MCTS) verify() error {
	if !strict {
		return nil
	}
	return m.check(m.root)
}

func (m *MCTS) simulate() error {
	id := m.visits.next()
	m.path = m.path[:0]
	m.fresh = m.fresh[:0]
	m.links = m.links[:0]

	cycle, err := m.descend(id)
	if err != nil {
		return err
	}
	m.backup(cycle)
	m.logger.Trace().Int("length", len(m.path)).Bool("cycle", cycle).Int("new", len(m.fresh)).Msg("simulation")
	if err := m.expand(); err != nil {
		return err
	}
	return m.verify()
}

func (m *MCTS) leaf(n *stateNode) bool {
	return n.terminal || n.moveCount == 0
}

// descend selects down the tree and plays out from where it ends. Moves
// leading to a node already visited in this pass are not taken, when a node
// has no other move the pass backtracks to its parent. cycle is set when
// even the root has no move left.
func (m *MCTS) descend(id uint16) (cycle bool, err error) {
	h := m.root
	for {
		n := m.pool.node(h)
		if m.leaf(n) {
			n.lastVisit = id
			m.path = append(m.path, step{h, -1})
			return false, nil
		}
		e, ok := m.selectEdge(h, id)
		if !ok {
			if len(m.path) == 0 {
				return m.deadEnd(), nil
			}
			h = m.path[len(m.path)-1].node
			m.path = m.path[:len(m.path)-1]
			continue
		}
		m.path = append(m.path, step{h, e})
		child := m.pool.edges(n)[e].child
		if child == nilHandle {
			return m.playout(id)
		}
		h = child
	}
}

func (m *MCTS) playout(id uint16) (cycle bool, err error) {
	base := len(m.path)
	for {
		last := m.path[len(m.path)-1]
		h, err := m.materialize(last)
		if err != nil {
			return false, err
		}
		if n := m.pool.node(h); n.lastVisit == id {
			// loop, take another move from the parent
			m.path = m.path[:len(m.path)-1]
			h = last.node
		} else {
			n.lastVisit = id
		}

		for {
			n := m.pool.node(h)
			if m.leaf(n) || len(m.path)-base+1 >= m.cutoff {
				m.path = append(m.path, step{h, -1})
				return false, nil
			}
			var e int
			var ok bool
			if n.visits == 0 {
				e, ok = m.randomEdge(h, id)
			} else {
				e, ok = m.selectEdge(h, id)
			}
			if ok {
				m.path = append(m.path, step{h, e})
				break
			}
			if len(m.path) == 0 {
				return m.deadEnd(), nil
			}
			h = m.path[len(m.path)-1].node
			m.path = m.path[:len(m.path)-1]
		}
	}
}

// deadEnd ends a pass in which every move of the root leads back into the
// pass. The root alone is the path and the pass scores as a cycle.
func (m *MCTS) deadEnd() bool {
	m.path = append(m.path[:0], step{m.root, -1})
	m.logger.Trace().Msg("no move left at the root")
	return true
}

// materialize returns the child behind the edge of s, creating its node when
// the move was never followed.
func (m *MCTS) materialize(s step) (Handle, error) {
	parent := m.pool.node(s.node)
	edge := &m.pool.edges(parent)[s.edge]
	if edge.child != nilHandle {
		return edge.child, nil
	}
	next := m.rules.Apply(parent.state, parent.moves[s.edge], parent.player)
	h, created, err := m.node(next)
	if err != nil {
		return nilHandle, err
	}
	edge.child = h
	m.links = append(m.links, s)
	if created {
		m.fresh = append(m.fresh, h)
	}
	return h, nil
}

func (m *MCTS) open(e *moveEdge, id uint16) bool {
	return e.child == nilHandle || m.pool.node(e.child).lastVisit != id
}

// selectEdge marks h visited and picks its open edge with the highest UCB,
// ties broken at random. ok is false when no edge is open.
func (m *MCTS) selectEdge(h Handle, id uint16) (edge int, ok bool) {
	n := m.pool.node(h)
	n.lastVisit = id
	edges := m.pool.edges(n)
	if len(edges) == 1 {
		return 0, m.open(&edges[0], id)
	}

	policy := newUCB(m.c, n.visits)
	m.values = m.values[:0]
	for i := range edges {
		if !m.open(&edges[i], id) {
			m.values = append(m.values, math.NaN())
			continue
		}
		m.values = append(m.values, policy.evaluate(edges[i].value[n.player], edges[i].visits))
	}
	m.ties = utils.MaxIndices(m.ties[:0], m.values, 0)
	if len(m.ties) == 0 {
		return -1, false
	}
	return m.ties[m.rng.Intn(len(m.ties))], true
}

// randomEdge picks any open edge of h.
func (m *MCTS) randomEdge(h Handle, id uint16) (edge int, ok bool) {
	edges := m.pool.edges(m.pool.node(h))
	m.ties = m.ties[:0]
	for i := range edges {
		if m.open(&edges[i], id) {
			m.ties = append(m.ties, i)
		}
	}
	if len(m.ties) == 0 {
		return -1, false
	}
	return m.ties[m.rng.Intn(len(m.ties))], true
}

// backup scores the leaf of the path and adds the values to every edge
// on the way to the root.
func (m *MCTS) backup(cycle bool) {
	leaf := m.pool.node(m.path[len(m.path)-1].node)
	switch {
	case cycle:
		for p := range m.scores {
			m.scores[p] = m.cyclePenalty
		}
		m.metrics.AddCutoff()
	case leaf.terminal:
		m.rules.Score(leaf.state, m.scores)
		m.metrics.AddFullPlayout()
	default:
		m.evaluate(leaf.state, m.scores)
		m.metrics.AddCutoff()
	}

	var values [MaxPlayers]float64
	for p, score := range m.scores {
		values[p] = float64(score) / ScoreScale
	}
	leaf.visits++
	weight := 1.0
	for i := len(m.path) - 2; i >= 0; i-- {
		n := m.pool.node(m.path[i].node)
		edge := &m.pool.edges(n)[m.path[i].edge]
		n.visits++
		edge.visits++
		for p := 0; p < m.players; p++ {
			edge.value[p] += values[p] * weight
		}
		weight *= 1 - m.decay*(1-edge.probability)
	}
}

// expand keeps the path up to expansion nodes past its last permanent node
// and frees every other node created in the pass.
func (m *MCTS) expand() error {
	cut := len(m.path) - 1
	if m.expansion > 0 {
		lastPermanent := 0
		for i, s := range m.path {
			if m.pool.node(s.node).status == permanent {
				lastPermanent = i
			}
		}
		cut = min(lastPermanent+m.expansion, cut)
		for _, s := range m.path[:cut+1] {
			if n := m.pool.node(s.node); n.status == transient {
				n.status = permanent
			}
		}
	} else {
		for _, h := range m.fresh {
			m.pool.node(h).status = permanent
		}
	}

	for _, h := range m.fresh {
		if m.pool.node(h).status != transient {
			continue
		}
		if err := m.free(h); err != nil {
			return err
		}
	}
	for _, s := range m.links {
		if !m.pool.occupied(s.node) {
			continue
		}
		edge := &m.pool.edges(m.pool.node(s.node))[s.edge]
		if edge.child != nilHandle && !m.pool.occupied(edge.child) {
			edge.child = nilHandle
		}
	}
	return nil
}

// bestEdge picks the root edge with the best average value for the engine's
// player, ties within epsilon broken at random.
func (m *MCTS) bestEdge() int {
	root := m.pool.node(m.root)
	edges := m.pool.edges(root)
	m.values = m.values[:0]
	for i := range edges {
		m.values = append(m.values, edges[i].average(root.player))
	}
	m.ties = utils.MaxIndices(m.ties[:0], m.values, m.epsilon)
	return m.ties[m.rng.Intn(len(m.ties))]
}
