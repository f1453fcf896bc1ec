package game

import (
	"time"

	"github.com/lox/pokerroom/internal/deck"
)

// EventType represents a session event type with type safety
type EventType string

// EventType constants double as the outbound wire message types
const (
	EventTypeUsers       EventType = "users"
	EventTypeTurn        EventType = "turn"
	EventTypeDealer      EventType = "dealer"
	EventTypeShowCards   EventType = "show_cards"
	EventTypeYourID      EventType = "your_id"
	EventTypeGameState   EventType = "game_state"
	EventTypeRoundResult EventType = "round_result"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is a state snapshot emitted by a session
type Event interface {
	EventType() EventType
}

// Broadcaster delivers session events to connected players. Calls are
// made while the session lock is held and must not block or call back
// into the session.
type Broadcaster interface {
	Broadcast(event Event)
	SendTo(playerID string, event Event)
}

// RoundRecorder receives every finished round. Like Broadcaster it is
// called under the session lock and must not block.
type RoundRecorder interface {
	RecordRound(result RoundResult)
}

// UsersEvent carries the full roster
type UsersEvent struct {
	Users map[string]PlayerView `json:"users"`
}

// TurnEvent names the player holding the turn
type TurnEvent struct {
	PlayerID string `json:"playerId"`
}

// DealerEvent names the player allowed to deal
type DealerEvent struct {
	DealerID string `json:"dealerId"`
}

// ShowCardsEvent carries the session-wide reveal flag
type ShowCardsEvent struct {
	Show bool `json:"show"`
}

// YourIDEvent tells a joining player its id
type YourIDEvent struct {
	PlayerID string `json:"playerId"`
}

// GameStateEvent is emitted after every phase transition
type GameStateEvent struct {
	Phase          Phase       `json:"phase"`
	CommunityCards []deck.Card `json:"communityCards"`
	Pot            int         `json:"pot"`
	CurrentBet     int         `json:"currentBet"`
}

// RoundResult describes how a round was settled
type RoundResult struct {
	Room       string      `json:"room"`
	Round      int         `json:"round"`
	WinnerID   string      `json:"winnerId,omitempty"`
	WinnerName string      `json:"winnerName,omitempty"`
	Amount     int         `json:"amount"`
	Hand       string      `json:"hand,omitempty"`
	Refunded   bool        `json:"refunded"`
	Forfeited  int         `json:"forfeited,omitempty"` // refunded rounds: bets of players who left
	Community  []deck.Card `json:"communityCards"`
	At         time.Time   `json:"at"`
}

// RoundResultEvent is emitted at showdown before the round resets
type RoundResultEvent struct {
	RoundResult
}

func (UsersEvent) EventType() EventType { return EventTypeUsers }
func (TurnEvent) EventType() EventType { return EventTypeTurn }
func (DealerEvent) EventType() EventType { return EventTypeDealer }
func (ShowCardsEvent) EventType() EventType { return EventTypeShowCards }
func (YourIDEvent) EventType() EventType { return EventTypeYourID }
func (GameStateEvent) EventType() EventType { return EventTypeGameState }
func (RoundResultEvent) EventType() EventType { return EventTypeRoundResult }

type discardBroadcaster struct{}

func (discardBroadcaster) Broadcast(Event) {}
func (discardBroadcaster) SendTo(string, Event) {}
