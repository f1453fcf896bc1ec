package server

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/lox/pokerroom/internal/game"
	"github.com/lox/pokerroom/internal/history"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"` // echoed on error and action_rejected replies
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// NewEventMessage wraps a session event in a message of the same type
func NewEventMessage(event game.Event) (*Message, error) {
	return NewMessage(MessageType(event.EventType()), event)
}

// Client → Server Messages

type JoinData struct {
	Name string `json:"name"`
}

type ActionData struct {
	Action string          `json:"action"`
	Amount json.RawMessage `json:"amount,omitempty"`
}

// AmountString returns the amount as text whether it was sent as a JSON
// number or a string
func (d ActionData) AmountString() string {
	raw := bytes.TrimSpace(d.Amount)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	return string(raw)
}

type ChooseDealerData struct {
	DealerID string `json:"dealerId"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ActionRejectedData struct {
	Command MessageType `json:"command"`
	Reason  string      `json:"reason"`
}

// HTTP responses

type RoomInfo struct {
	Name    string     `json:"name"`
	Players int        `json:"players"`
	Phase   game.Phase `json:"phase"`
	Pot     int        `json:"pot"`
	Round   int        `json:"round"`
	Host    string     `json:"host,omitempty"`
	Dealer  string     `json:"dealer,omitempty"`
}

type HistoryData struct {
	Room      string             `json:"room"`
	Rounds    []game.RoundResult `json:"rounds"`
	Standings []history.Standing `json:"standings"`
}
