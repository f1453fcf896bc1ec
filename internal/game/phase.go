package game

import (
	"fmt"

	"github.com/lox/pokerroom/internal/deck"
)

// Phase is the stage of a round
type Phase int

const (
	Waiting Phase = iota
	PreFlop
	Flop
	Turn
	River
	Showdown
)

var phaseNames = [...]string{"waiting", "pre-flop", "flop", "turn", "river", "showdown"}

// String returns the wire name of the phase
func (p Phase) String() string {
	if p < Waiting || p > Showdown {
		return "unknown"
	}
	return phaseNames[p]
}

// Next returns the phase that follows p
func (p Phase) Next() Phase {
	if p >= Showdown {
		return Waiting
	}
	return p + 1
}

// communityCards is the number of board cards dealt when entering p
func (p Phase) communityCards() int {
	switch p {
	case Flop:
		return 3
	case Turn, River:
		return 1
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// RoundState is the shared state of the round in progress
type RoundState struct {
	Phase      Phase
	Pot        int
	CurrentBet int
	Community  []deck.Card
}
