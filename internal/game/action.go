package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidAmount = errors.New("invalid bet amount")
)

// Action is a move made by the player holding the turn. The set of
// actions is closed: Fold and Bet.
type Action interface {
	fmt.Stringer
	action()
}

// Fold withdraws the player from the round
type Fold struct{}

// Bet commits chips to the pot
type Bet struct {
	Amount int
}

func (Fold) action() {}
func (Bet) action() {}

func (Fold) String() string { return "Fold" }
func (b Bet) String() string { return fmt.Sprintf("Bet %d", b.Amount) }

// ParseAction builds an Action from its wire form. The amount is ignored
// for Fold and must be a non-negative integer for Bet.
func ParseAction(kind, amount string) (Action, error) {
	switch {
	case strings.EqualFold(kind, "fold"):
		return Fold{}, nil
	case strings.EqualFold(kind, "bet"):
		n, err := strconv.Atoi(strings.TrimSpace(amount))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %d is negative", ErrInvalidAmount, n)
		}
		return Bet{Amount: n}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
}
