// Package player provides the players the game runner talks to, created from
// configuration strings. Player providers register themselves by name.
package player

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"pan/experiments/metrics"
	"pan/game"

	"github.com/pkg/errors"
)

// Player is anything that is able to play a game. A player is used by one
// game at a time.
type Player interface {
	Name() string
	// SetGameRules must be called before the first game.
	SetGameRules(rules game.Rules) error
	StartNewGame()
	// SelectMove returns the move of the player in state, nil when it has
	// none.
	SelectMove(state game.State) (game.Move, error)
	// EndGame is called with the final scores once the game is over.
	EndGame(scores []int, result game.Result)
	// GameStats returns what the player gathered since the last ResetStats.
	GameStats() metrics.Named
	ResetStats()
}

// SearchReporter is implemented by players that search for their moves.
type SearchReporter interface {
	LastSearch() metrics.SearchMetric
}

// Params holds the parameters of a configuration string by key.
type Params map[string]string

// Module implements a player constructor.
type Module interface {
	NewPlayer(number int, params Params) (Player, error)
}

type ModuleFunc func(number int, params Params) (Player, error)

func (f ModuleFunc) NewPlayer(number int, params Params) (Player, error) {
	return f(number, params)
}

var (
	modulesMu sync.RWMutex
	modules   = make(map[string]Module)
)

// RegisterModule makes a player type available to New.
func RegisterModule(name string, module Module) {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	modules[name] = module
}

// DefaultConfig is used when no configuration was given.
var DefaultConfig = "random"

// New creates player number from a configuration string: the player type
// followed by a colon and a comma separated list of key=value parameters,
// e.g. "mcts:eval=num_cards,move_sim_limit=500".
//
// Parameters not used by the player are an error.
func New(number int, config string) (Player, error) {
	moduleName, params := splitConfig(config)
	return build(number, moduleName, params)
}

// NewSeeded is like New, but a configuration without random_seed gets seed,
// so that a seeded run plays the same way every time.
func NewSeeded(number int, config string, seed uint64) (Player, error) {
	moduleName, params := splitConfig(config)
	if _, found := params["random_seed"]; !found {
		params["random_seed"] = strconv.FormatUint(seed, 10)
	}
	return build(number, moduleName, params)
}

func splitConfig(config string) (string, Params) {
	if config == "" {
		config = DefaultConfig
	}
	moduleName, rest, _ := strings.Cut(config, ":")
	return moduleName, ParseParams(rest)
}

func build(number int, moduleName string, params Params) (Player, error) {
	modulesMu.RLock()
	module, ok := modules[moduleName]
	modulesMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown player type %q", moduleName)
	}

	player, err := module.NewPlayer(number, params)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create player %q", moduleName)
	}
	if len(params) > 0 {
		return nil, errors.Errorf("unknown parameters for player %q: %s", moduleName, strings.Join(params.keys(), ", "))
	}
	return player, nil
}

// ParseParams splits a comma separated list of key=value pairs. A key
// without a value maps to the empty string.
func ParseParams(config string) Params {
	params := make(Params)
	for _, part := range strings.Split(config, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		params[key] = value
	}
	return params
}

func (p Params) keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// GetParamOr parses the parameter key to the type of defaultValue if it is
// present, or returns defaultValue if not.
//
// For bool types, a key without a value is interpreted as true.
func GetParamOr[T interface {
	bool | int | uint64 | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	value, exists := params[key]
	if !exists {
		return defaultValue, nil
	}
	var parsed any
	var err error
	switch any(defaultValue).(type) {
	case int:
		parsed, err = strconv.Atoi(value)
	case uint64:
		parsed, err = strconv.ParseUint(value, 10, 64)
	case float64:
		parsed, err = strconv.ParseFloat(value, 64)
	case string:
		parsed = value
	case bool:
		switch strings.ToLower(value) {
		case "", "true", "1":
			parsed = true
		case "false", "0":
			parsed = false
		default:
			err = errors.New("invalid syntax")
		}
	}
	if err != nil {
		return defaultValue, errors.Wrapf(err, "failed to parse configuration %s=%q", key, value)
	}
	return parsed.(T), nil
}

// PopParamOr is like GetParamOr but it also deletes the parameter from
// params.
func PopParamOr[T interface {
	bool | int | uint64 | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	value, err := GetParamOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}
	delete(params, key)
	return value, nil
}
