package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// Size is the number of cards in a full deck
const Size = 52

// ErrNotEnoughCards is returned when a deal asks for more cards than remain
var ErrNotEnoughCards = errors.New("not enough cards in deck")

// Deck is an ordered stack of cards. The top of the deck is the end of the
// slice: deals take from the tail.
type Deck struct {
	cards []Card
}

// New creates a standard 52-card deck in fixed enumeration order, suits
// outermost (Hearts, Diamonds, Clubs, Spades), ranks 2 through Ace.
func New() *Deck {
	d := &Deck{cards: make([]Card, 0, Size)}
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	return d
}

// NewShuffled creates a fresh deck and shuffles it with rng
func NewShuffled(rng *rand.Rand) *Deck {
	d := New()
	d.Shuffle(rng)
	return d
}

// Shuffle randomizes the order of the remaining cards with a backward
// Fisher-Yates scan.
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Pop removes and returns the top card
func (d *Deck) Pop() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrNotEnoughCards
	}
	last := len(d.cards) - 1
	card := d.cards[last]
	d.cards = d.cards[:last]
	return card, nil
}

// DealFromTop removes and returns the top n cards, preserving their order
// in the deck. Nothing is removed if fewer than n cards remain.
func (d *Deck) DealFromTop(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("deal %d of %d: %w", n, len(d.cards), ErrNotEnoughCards)
	}
	start := len(d.cards) - n
	dealt := make([]Card, n)
	copy(dealt, d.cards[start:])
	d.cards = d.cards[:start]
	return dealt, nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// IsFresh reports whether no card has been dealt from the deck
func (d *Deck) IsFresh() bool {
	return len(d.cards) == Size
}

// Cards returns a copy of the remaining cards, bottom first
func (d *Deck) Cards() []Card {
	cards := make([]Card, len(d.cards))
	copy(cards, d.cards)
	return cards
}
