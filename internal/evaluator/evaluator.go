// Package evaluator ranks Hold'em hands. Cards are packed into a 52-bit
// mask (suit*13 + rank) so flushes and straights fall out of per-suit rank
// masks.
package evaluator

import (
	"fmt"
	"math/bits"

	"github.com/lox/pokerroom/internal/deck"
)

// Category is the class of a made hand, weakest first
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the display name of the category
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandRank orders hands: a higher value is a stronger hand. The category
// sits above five 4-bit tiebreak ranks, most significant first.
type HandRank uint32

// Category returns the category encoded in the rank
func (h HandRank) Category() Category {
	return Category(h >> 20)
}

// String describes the hand, e.g. "Full House"
func (h HandRank) String() string {
	if h.Category() == StraightFlush && h&0xF0000 == 0xD0000 {
		return "Royal Flush"
	}
	return h.Category().String()
}

// Compare returns 1 if h beats other, -1 if other wins, 0 on a tie
func (h HandRank) Compare(other HandRank) int {
	switch {
	case h > other:
		return 1
	case h < other:
		return -1
	}
	return 0
}

const (
	rankMask  = 0x1FFF // 13 ranks, bit 0 = deuce, bit 12 = ace
	wheelMask = 0x100F // A-2-3-4-5
)

// Hand is a bitfield of up to 52 cards
type Hand uint64

// NewHand packs cards into a Hand
func NewHand(cards ...deck.Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(1) << (int(c.Suit)*13 + int(c.Rank-deck.Two))
	}
	return h
}

// Count returns the number of cards in the hand
func (h Hand) Count() int {
	return bits.OnesCount64(uint64(h))
}

func (h Hand) suitMask(suit deck.Suit) uint16 {
	return uint16(uint64(h)>>(int(suit)*13)) & rankMask
}

// Evaluate returns the rank of the best five-card hand among cards. It
// accepts five to seven cards.
func Evaluate(cards []deck.Card) (HandRank, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("evaluate needs 5 to 7 cards, got %d", len(cards))
	}
	hand := NewHand(cards...)
	if hand.Count() != len(cards) {
		return 0, fmt.Errorf("evaluate: duplicate cards in %v", cards)
	}
	return hand.Rank(), nil
}

// Rank scores the hand
func (h Hand) Rank() HandRank {
	var suits [4]uint16
	var ranks uint16
	for _, s := range deck.Suits {
		suits[s] = h.suitMask(s)
		ranks |= suits[s]
	}

	for _, sm := range suits {
		if bits.OnesCount16(sm) >= 5 {
			if top, ok := straightHigh(sm); ok {
				return makeRank(StraightFlush, top)
			}
		}
	}

	var counts [13]int
	for r := 0; r < 13; r++ {
		for _, sm := range suits {
			if sm&(1<<r) != 0 {
				counts[r]++
			}
		}
	}

	// ranks grouped by multiplicity, highest rank first
	var quads, trips, pairs, singles []int
	for r := 12; r >= 0; r-- {
		switch counts[r] {
		case 4:
			quads = append(quads, r)
		case 3:
			trips = append(trips, r)
		case 2:
			pairs = append(pairs, r)
		case 1:
			singles = append(singles, r)
		}
	}

	switch {
	case len(quads) > 0:
		return makeRank(FourOfAKind, quads[0], highestExcept(ranks, quads[0]))
	case len(trips) > 0 && (len(trips) > 1 || len(pairs) > 0):
		pair := -1
		if len(pairs) > 0 {
			pair = pairs[0]
		}
		if len(trips) > 1 && trips[1] > pair {
			pair = trips[1]
		}
		return makeRank(FullHouse, trips[0], pair)
	}

	for _, sm := range suits {
		if bits.OnesCount16(sm) >= 5 {
			return makeRank(Flush, topRanks(sm, 5)...)
		}
	}

	if top, ok := straightHigh(ranks); ok {
		return makeRank(Straight, top)
	}

	switch {
	case len(trips) > 0:
		return makeRank(ThreeOfAKind, append([]int{trips[0]}, first(singles, 2)...)...)
	case len(pairs) >= 2:
		rest := ranks &^ (1<<pairs[0] | 1<<pairs[1])
		return makeRank(TwoPair, pairs[0], pairs[1], topRanks(rest, 1)[0])
	case len(pairs) == 1:
		return makeRank(OnePair, append([]int{pairs[0]}, first(singles, 3)...)...)
	}
	return makeRank(HighCard, topRanks(ranks, 5)...)
}

// makeRank stores each tiebreak rank index offset by one so a zero nibble
// means "unused".
func makeRank(cat Category, tiebreak ...int) HandRank {
	r := HandRank(cat) << 20
	for i, t := range first(tiebreak, 5) {
		r |= HandRank(t+1) << (16 - 4*i)
	}
	return r
}

// straightHigh returns the top rank index of the best straight in mask
func straightHigh(mask uint16) (int, bool) {
	for top := 12; top >= 4; top-- {
		run := uint16(0x1F) << (top - 4)
		if mask&run == run {
			return top, true
		}
	}
	if mask&wheelMask == wheelMask {
		return 3, true // five-high
	}
	return 0, false
}

func topRanks(mask uint16, n int) []int {
	out := make([]int, 0, n)
	for r := 12; r >= 0 && len(out) < n; r-- {
		if mask&(1<<r) != 0 {
			out = append(out, r)
		}
	}
	return out
}

func highestExcept(mask uint16, except int) int {
	return topRanks(mask&^(1<<except), 1)[0]
}

func first(s []int, n int) []int {
	if len(s) < n {
		return s
	}
	return s[:n]
}
