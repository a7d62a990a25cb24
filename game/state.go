package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const MaxPlayers = 4

// GameState is a position of the card game. Stack holds the cards on the
// table, Hands the cards of every player.
type GameState struct {
	Stack         Cards
	Hands         [MaxPlayers]Cards
	CurrentPlayer int
	Terminal      bool
}

func (gs *GameState) playersWithCards(players int) int {
	count := 0
	for p := 0; p < players; p++ {
		if gs.Hands[p] != 0 {
			count++
		}
	}
	return count
}

// nextPlayer is the first player after current who still holds cards.
func (gs *GameState) nextPlayer(current, players int) int {
	next := current
	for i := 0; i < players-1; i++ {
		next = (next + 1) % players
		if gs.Hands[next] != 0 {
			break
		}
	}
	return next
}

// key is the compact canonical form, cards as value*10+suit numbers.
func (gs *GameState) key(players int) string {
	var sb strings.Builder
	sb.WriteString("S=")
	writeNumbers(&sb, gs.Stack)
	for p := 0; p < players; p++ {
		fmt.Fprintf(&sb, "|P%d=", p)
		writeNumbers(&sb, gs.Hands[p])
	}
	sb.WriteString("|CP=")
	sb.WriteString(strconv.Itoa(gs.CurrentPlayer))
	return sb.String()
}

func writeNumbers(sb *strings.Builder, c Cards) {
	for i := 0; i < NumCards; i++ {
		if c&(1<<i) != 0 {
			sb.WriteString(strconv.Itoa(90 + i/4*10 + i%4))
			sb.WriteByte(',')
		}
	}
}

func (gs *GameState) format(players int) string {
	var sb strings.Builder
	sb.WriteString("S=")
	sb.WriteString(gs.Stack.String())
	for p := 0; p < players; p++ {
		fmt.Fprintf(&sb, "|P%d=%s", p, gs.Hands[p])
	}
	fmt.Fprintf(&sb, "|CP=%d", gs.CurrentPlayer)
	return sb.String()
}

// ParseState reads the human readable form, e.g. "S=9♥|P0=10♥|P1=A♠|CP=0".
func ParseState(s string) (*GameState, int, error) {
	parts := strings.Split(s, "|")
	if len(parts) < 3 {
		return nil, 0, errors.Errorf("failed to parse state %q: too few parts", s)
	}
	gs := &GameState{}
	players := 0
	for i, part := range parts {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, 0, errors.Errorf("failed to parse state %q: part %q has no value", s, part)
		}
		switch {
		case i == 0 && name == "S":
			cards, ok := ParseCards(value)
			if !ok {
				return nil, 0, errors.Errorf("failed to parse stack %q", value)
			}
			gs.Stack = cards
		case i == len(parts)-1 && name == "CP":
			cp, err := strconv.Atoi(value)
			if err != nil {
				return nil, 0, errors.Wrapf(err, "failed to parse current player %q", value)
			}
			gs.CurrentPlayer = cp
		case name == "P"+strconv.Itoa(players) && players < MaxPlayers:
			cards, ok := ParseCards(value)
			if !ok {
				return nil, 0, errors.Errorf("failed to parse hand %q", value)
			}
			gs.Hands[players] = cards
			players++
		default:
			return nil, 0, errors.Errorf("failed to parse state %q: unexpected part %q", s, part)
		}
	}
	if players < 2 || gs.CurrentPlayer >= players {
		return nil, 0, errors.Errorf("failed to parse state %q: bad player count", s)
	}
	gs.Terminal = gs.playersWithCards(players) <= 1
	return gs, players, nil
}
