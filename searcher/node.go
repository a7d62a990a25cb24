package searcher

import "pan/game"

// Handle refers to a node slot in a Pool. The zero Handle refers to nothing.
type Handle uint32

const nilHandle Handle = 0

type nodeStatus uint8

const (
	freed nodeStatus = iota
	transient
	permanent
)

func (s nodeStatus) String() string {
	switch s {
	case transient:
		return "transient"
	case permanent:
		return "permanent"
	default:
		return "freed"
	}
}

type stateNode struct {
	state     game.State
	moves     []game.Move
	key       string
	visits    int
	player    int
	status    nodeStatus
	terminal  bool
	lastVisit uint16
	// moveCount and chunks are fixed at allocation, first is the offset of
	// the edges in the pool
	moveCount int
	chunks    int
	first     int
}

type moveEdge struct {
	child       Handle
	visits      int
	value       [MaxPlayers]float64
	probability float64
}

func (e *moveEdge) average(player int) float64 {
	if e.visits == 0 {
		return 0
	}
	return e.value[player] / float64(e.visits)
}
