package game

import (
	"strings"
	"time"

	"github.com/lox/pokerroom/internal/deck"
)

// hostSuffix marks the host's display name in roster snapshots
const hostSuffix = " (HOST)"

// Player represents a seated player in a session
type Player struct {
	ID     string
	Name   string
	Hand   []deck.Card
	Bet    int // chips committed this round
	Folded bool
	Chips  int
}

// PlayerView is the broadcast form of a player
type PlayerView struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Hand     []deck.Card `json:"hand"`
	Bet      int         `json:"bet"`
	Folded   bool        `json:"folded"`
	Chips    int         `json:"chips"`
	IsHost   bool        `json:"isHost"`
	JoinedAt time.Time   `json:"joinedAt"`
}

func (p *Player) view(isHost bool, joinedAt time.Time) PlayerView {
	name := p.Name
	if isHost {
		name += hostSuffix
	}
	hand := make([]deck.Card, len(p.Hand))
	copy(hand, p.Hand)
	return PlayerView{
		ID:       p.ID,
		Name:     name,
		Hand:     hand,
		Bet:      p.Bet,
		Folded:   p.Folded,
		Chips:    p.Chips,
		IsHost:   isHost,
		JoinedAt: joinedAt,
	}
}

// BaseName returns the name without the host marker
func (v PlayerView) BaseName() string {
	if v.IsHost {
		return strings.TrimSuffix(v.Name, hostSuffix)
	}
	return v.Name
}

// resetForRound clears per-round state
func (p *Player) resetForRound() {
	p.Hand = nil
	p.Bet = 0
	p.Folded = false
}
