package server

import "github.com/lox/pokerroom/internal/game"

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants. Session events are sent with the
// event's own type, so the server to client constants mirror
// game.EventType.
const (
	// Client to server messages
	MessageTypeJoin         MessageType = "join"
	MessageTypeAction       MessageType = "action"
	MessageTypeDeal         MessageType = "deal"
	MessageTypeChooseDealer MessageType = "choose_dealer"

	// Sent by clients to toggle, and by the server with the current value
	MessageTypeShowCards = MessageType(game.EventTypeShowCards)

	// Server to client messages
	MessageTypeUsers          = MessageType(game.EventTypeUsers)
	MessageTypeTurn           = MessageType(game.EventTypeTurn)
	MessageTypeDealer         = MessageType(game.EventTypeDealer)
	MessageTypeYourID         = MessageType(game.EventTypeYourID)
	MessageTypeGameState      = MessageType(game.EventTypeGameState)
	MessageTypeRoundResult    = MessageType(game.EventTypeRoundResult)
	MessageTypeActionRejected MessageType = "action_rejected"
	MessageTypeError          MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
