package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// Suits lists every suit in deck enumeration order
var Suits = [...]Suit{Hearts, Diamonds, Clubs, Spades}

// String returns the name of the suit
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "Hearts"
	case Diamonds:
		return "Diamonds"
	case Clubs:
		return "Clubs"
	case Spades:
		return "Spades"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the face label of the rank
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Ten:
		return fmt.Sprintf("%d", int(r))
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// Card represents a playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the card identifier, e.g. "Hearts A" or "Spades 10"
func (c Card) String() string {
	return c.Suit.String() + " " + c.Rank.String()
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// MarshalText encodes the card as its identifier so snapshots carry
// "Hearts A" rather than a struct.
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a card identifier
func (c *Card) UnmarshalText(text []byte) error {
	card, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// ParseCard parses an identifier such as "Hearts A" or "clubs 10"
func ParseCard(s string) (Card, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Card{}, fmt.Errorf("invalid card %q: want \"<suit> <rank>\"", s)
	}

	suit, err := parseSuit(fields[0])
	if err != nil {
		return Card{}, err
	}
	rank, err := parseRank(fields[1])
	if err != nil {
		return Card{}, err
	}
	return NewCard(suit, rank), nil
}

// MustParseCards parses each identifier and panics on error. Intended for
// tests.
func MustParseCards(s ...string) []Card {
	cards := make([]Card, 0, len(s))
	for _, id := range s {
		c, err := ParseCard(id)
		if err != nil {
			panic(err)
		}
		cards = append(cards, c)
	}
	return cards
}

func parseSuit(s string) (Suit, error) {
	for _, suit := range Suits {
		if strings.EqualFold(s, suit.String()) {
			return suit, nil
		}
	}
	return 0, fmt.Errorf("invalid suit: %s", s)
}

func parseRank(s string) (Rank, error) {
	for r := Two; r <= Ace; r++ {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("invalid rank: %s", s)
}
