package game

type Operation int

const (
	Noop Operation = iota
	TakeCards
	PlayCards
)

// CardMove is a move of the card game.
type CardMove struct {
	Operation Operation
	Cards     Cards
}

func (m CardMove) String() string {
	switch m.Operation {
	case TakeCards:
		return "take " + m.Cards.String()
	case PlayCards:
		return "play " + m.Cards.String()
	default:
		return "noop"
	}
}
