package game

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
)

// StandardRules are the rules of the card game for 2 to 4 players.
type StandardRules struct {
	players int
	states  sync.Pool
	moves   sync.Pool
}

var (
	noopMoves = []Move{CardMove{Operation: Noop}}
	noMoves   = []Move{}
)

func NewStandardRules(players int) *StandardRules {
	if players < 2 || players > MaxPlayers {
		panic("card game needs 2 to 4 players")
	}
	sr := &StandardRules{players: players}
	sr.states.New = func() any { return &GameState{} }
	sr.moves.New = func() any {
		moves := make([]Move, 0, 8)
		return &moves
	}
	return sr
}

func (sr *StandardRules) Players() int {
	return sr.players
}

func (sr *StandardRules) alloc() *GameState {
	return sr.states.Get().(*GameState)
}

func (sr *StandardRules) NewInitialState(rng *rand.Rand) State {
	gs := sr.alloc()
	*gs = GameState{}
	deck := rng.Perm(NumCards)
	for i, card := range deck {
		gs.Hands[i%sr.players] |= 1 << card
	}
	for p := 0; p < sr.players; p++ {
		if gs.Hands[p]&NineOfHearts != 0 {
			gs.CurrentPlayer = p
			break
		}
	}
	gs.Terminal = gs.playersWithCards(sr.players) <= 1
	return gs
}

// FromString builds a state from its human readable form.
func (sr *StandardRules) FromString(s string) (State, error) {
	parsed, players, err := ParseState(s)
	if err != nil {
		return nil, err
	}
	if players != sr.players {
		return nil, errors.Errorf("state has %d players, rules expect %d", players, sr.players)
	}
	gs := sr.alloc()
	*gs = *parsed
	return gs, nil
}

func (sr *StandardRules) CurrentPlayer(s State) int {
	return s.(*GameState).CurrentPlayer
}

func (sr *StandardRules) LegalMoves(s State, player int) []Move {
	gs := s.(*GameState)
	if gs.Terminal {
		return noMoves
	}
	if player != gs.CurrentPlayer {
		return noopMoves
	}

	moves := *sr.moves.Get().(*[]Move)
	moves = moves[:0]
	hand := gs.Hands[player]
	if gs.Stack == 0 {
		if hand&NineOfHearts != 0 {
			moves = append(moves, CardMove{Operation: PlayCards, Cards: NineOfHearts})
		}
		if hand&AllNines == AllNines {
			moves = append(moves, CardMove{Operation: PlayCards, Cards: AllNines})
		}
		return moves
	}

	if gs.Stack == NineOfHearts && hand&OtherNines == OtherNines {
		moves = append(moves, CardMove{Operation: PlayCards, Cards: OtherNines})
	}
	allowed, quad, take := stackMasks(gs.Stack)
	// only the lowest card of every value is offered, plus the full quad
	playable := hand & allowed
	for playable != 0 {
		if fromQuad := playable & quad; fromQuad != 0 {
			moves = append(moves, CardMove{Operation: PlayCards, Cards: fromQuad.Lowest()})
		}
		if playable&quad == quad {
			moves = append(moves, CardMove{Operation: PlayCards, Cards: quad})
		}
		playable &^= quad
		quad <<= 4
	}
	if take != 0 {
		moves = append(moves, CardMove{Operation: TakeCards, Cards: take})
	}
	return moves
}

func (sr *StandardRules) Apply(s State, m Move, player int) State {
	gs := s.(*GameState)
	move := m.(CardMove)
	next := sr.alloc()
	*next = *gs
	switch move.Operation {
	case TakeCards:
		next.Stack &^= move.Cards
		next.Hands[player] |= move.Cards
	case PlayCards:
		next.Stack |= move.Cards
		next.Hands[player] &^= move.Cards
	}
	next.CurrentPlayer = next.nextPlayer(gs.CurrentPlayer, sr.players)
	next.Terminal = next.playersWithCards(sr.players) <= 1
	return next
}

func (sr *StandardRules) IsTerminal(s State) bool {
	return s.(*GameState).Terminal
}

// Score gives every player who got rid of all cards an equal share, the
// loser gets nothing. An unfinished game is a draw.
func (sr *StandardRules) Score(s State, scores []int) {
	gs := s.(*GameState)
	if !gs.Terminal {
		for p := 0; p < sr.players; p++ {
			scores[p] = 100 / sr.players
		}
		return
	}
	win := 100 / (sr.players - 1)
	for p := 0; p < sr.players; p++ {
		if gs.Hands[p] != 0 {
			scores[p] = 0
		} else {
			scores[p] = win
		}
	}
}

func (sr *StandardRules) Equal(a, b State) bool {
	return *a.(*GameState) == *b.(*GameState)
}

func (sr *StandardRules) Key(s State) string {
	return s.(*GameState).key(sr.players)
}

func (sr *StandardRules) String(s State) string {
	return s.(*GameState).format(sr.players)
}

func (sr *StandardRules) MoveString(m Move) string {
	return m.(CardMove).String()
}

func (sr *StandardRules) Clone(s State) State {
	next := sr.alloc()
	*next = *s.(*GameState)
	return next
}

func (sr *StandardRules) ReleaseState(s State) {
	if gs, ok := s.(*GameState); ok && gs != nil {
		sr.states.Put(gs)
	}
}

func (sr *StandardRules) ReleaseMoves(moves []Move) {
	if cap(moves) == 0 || &moves[:1][0] == &noopMoves[0] {
		return
	}
	moves = moves[:0]
	sr.moves.Put(&moves)
}
