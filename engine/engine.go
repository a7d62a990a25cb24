// Package engine runs games between players, one at a time or in batches on
// several goroutines.
package engine

import (
	"pan/experiments/metrics"
	"pan/game"
)

// Outcome is how a single game ended.
type Outcome struct {
	Result game.Result
	Scores []int
	Rounds int
	Game   metrics.GameMetric
	Moves  []metrics.MoveMetric
}

// Won tells whether seat finished a won game with points, the player left
// holding cards scores nothing.
func (o *Outcome) Won(seat int) bool {
	return o.Result == game.Win && o.Scores[seat] > 0
}

func (o *Outcome) Lost(seat int) bool {
	return o.Result == game.Win && o.Scores[seat] == 0
}
