package game

import (
	"math/bits"
	"strings"
)

// Cards is a set of the 24 cards, bit value*4+suit.
type Cards uint32

const (
	NumCards = 24
	AllCards Cards = 1<<NumCards - 1

	NineOfHearts Cards = 1
	AllNines     Cards = 0b1111
	OtherNines   Cards = 0b1110
)

var (
	suitNames  = []string{"♥", "♠", "♣", "♦"}
	valueNames = []string{"9", "10", "W", "D", "K", "A"}
)

func Card(value, suit int) Cards {
	return 1 << (value*4 + suit)
}

func (c Cards) Count() int {
	return bits.OnesCount32(uint32(c))
}

func (c Cards) Lowest() Cards {
	return c & -c
}

// Top is the index of the highest card, -1 for an empty set.
func (c Cards) Top() int {
	return bits.Len32(uint32(c)) - 1
}

func (c Cards) String() string {
	var sb strings.Builder
	for i := 0; i < NumCards; i++ {
		if c&(1<<i) != 0 {
			sb.WriteString(valueNames[i/4])
			sb.WriteString(suitNames[i%4])
		}
	}
	return sb.String()
}

// ParseCards reads the form produced by String.
func ParseCards(s string) (Cards, bool) {
	var c Cards
	for len(s) > 0 {
		value := -1
		for v, name := range valueNames {
			if strings.HasPrefix(s, name) {
				value = v
				s = s[len(name):]
				break
			}
		}
		if value < 0 {
			return 0, false
		}
		suit := -1
		for su, name := range suitNames {
			if strings.HasPrefix(s, name) {
				suit = su
				s = s[len(name):]
				break
			}
		}
		if suit < 0 {
			return 0, false
		}
		c |= Card(value, suit)
	}
	return c, true
}

// stackMasks returns the cards allowed on top of stack, the quad of the top
// card and the cards a player takes back.
func stackMasks(stack Cards) (allowed, firstQuad, take Cards) {
	idx := stack.Top()
	above := ^(Cards(1)<<(idx+1) - 1) & AllCards
	firstQuad = AllNines << (idx / 4 * 4)
	allowed = above | (^stack & firstQuad)

	taken := 0
	for stack > NineOfHearts {
		top := Cards(1) << stack.Top()
		take |= top
		stack &^= top
		taken++
		if taken == 3 {
			break
		}
	}
	return allowed, firstQuad, take
}
