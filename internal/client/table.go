package client

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/lox/pokerroom/internal/deck"
	"github.com/lox/pokerroom/internal/game"
	"github.com/lox/pokerroom/internal/server"
)

// Table mirrors the room state from the messages the server pushes
type Table struct {
	mu         sync.RWMutex
	playerID   string
	users      map[string]game.PlayerView
	turn       string
	dealer     string
	showCards  bool
	state      game.GameStateEvent
	lastResult *game.RoundResult
}

// TableView is a copy of the table state
type TableView struct {
	PlayerID   string
	Players    []game.PlayerView // join order
	Turn       string
	Dealer     string
	ShowCards  bool
	Phase      game.Phase
	Pot        int
	CurrentBet int
	Community  []deck.Card
	LastResult *game.RoundResult
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{users: make(map[string]game.PlayerView)}
}

// Apply folds a server message into the table and returns a log line
// describing it, or "" when there is nothing worth reporting
func (t *Table) Apply(msg *server.Message) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch msg.Type {
	case server.MessageTypeYourID:
		var data game.YourIDEvent
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return "", fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		t.playerID = data.PlayerID
		return "Joined the room", nil

	case server.MessageTypeUsers:
		var data game.UsersEvent
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return "", fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		var lines []string
		for id, p := range data.Users {
			if _, ok := t.users[id]; !ok {
				lines = append(lines, p.BaseName()+" sat down")
			}
		}
		for id, p := range t.users {
			if _, ok := data.Users[id]; !ok {
				lines = append(lines, p.BaseName()+" left")
			}
		}
		if data.Users == nil {
			data.Users = make(map[string]game.PlayerView)
		}
		t.users = data.Users
		slices.Sort(lines)
		return strings.Join(lines, "\n"), nil

	case server.MessageTypeTurn:
		var data game.TurnEvent
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return "", fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		t.turn = data.PlayerID
		if data.PlayerID != "" && data.PlayerID == t.playerID {
			return "Your turn", nil
		}
		return "", nil

	case server.MessageTypeDealer:
		var data game.DealerEvent
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return "", fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		changed := t.dealer != data.DealerID
		t.dealer = data.DealerID
		if changed && data.DealerID != "" {
			return t.nameLocked(data.DealerID) + " is dealing", nil
		}
		return "", nil

	case server.MessageTypeShowCards:
		var data game.ShowCardsEvent
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return "", fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		changed := t.showCards != data.Show
		t.showCards = data.Show
		if !changed {
			return "", nil
		}
		if data.Show {
			return "Cards are face up", nil
		}
		return "Cards are face down", nil

	case server.MessageTypeGameState:
		var data game.GameStateEvent
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return "", fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		t.state = data
		if data.Phase == game.Waiting {
			return "", nil
		}
		return fmt.Sprintf("Dealt %s", data.Phase), nil

	case server.MessageTypeRoundResult:
		var data game.RoundResultEvent
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return "", fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		result := data.RoundResult
		t.lastResult = &result
		return describeResult(result), nil

	case server.MessageTypeActionRejected:
		var data server.ActionRejectedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return "", fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		return fmt.Sprintf("%s rejected: %s", data.Command, data.Reason), nil

	case server.MessageTypeError:
		var data server.ErrorData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return "", fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		return fmt.Sprintf("Server error [%s]: %s", data.Code, data.Message), nil
	}

	return "", nil
}

func describeResult(r game.RoundResult) string {
	switch {
	case r.Refunded && r.Forfeited > 0:
		return fmt.Sprintf("Round %d: everyone folded, bets refunded, %d forfeited", r.Round, r.Forfeited)
	case r.Refunded:
		return fmt.Sprintf("Round %d: everyone folded, bets refunded", r.Round)
	case r.Hand != "":
		return fmt.Sprintf("Round %d: %s wins %d with %s", r.Round, r.WinnerName, r.Amount, r.Hand)
	default:
		return fmt.Sprintf("Round %d: %s wins %d", r.Round, r.WinnerName, r.Amount)
	}
}

func (t *Table) nameLocked(id string) string {
	if p, ok := t.users[id]; ok {
		return p.BaseName()
	}
	return id
}

// View returns a copy of the table state
func (t *Table) View() TableView {
	t.mu.RLock()
	defer t.mu.RUnlock()

	players := make([]game.PlayerView, 0, len(t.users))
	for _, p := range t.users {
		players = append(players, p)
	}
	slices.SortFunc(players, func(a, b game.PlayerView) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return TableView{
		PlayerID:   t.playerID,
		Players:    players,
		Turn:       t.turn,
		Dealer:     t.dealer,
		ShowCards:  t.showCards,
		Phase:      t.state.Phase,
		Pot:        t.state.Pot,
		CurrentBet: t.state.CurrentBet,
		Community:  slices.Clone(t.state.Community),
		LastResult: t.lastResult,
	}
}

// Player returns a seated player by id
func (v TableView) Player(id string) (game.PlayerView, bool) {
	for _, p := range v.Players {
		if p.ID == id {
			return p, true
		}
	}
	return game.PlayerView{}, false
}

// Me returns the local player, if seated
func (v TableView) Me() (game.PlayerView, bool) {
	if v.PlayerID == "" {
		return game.PlayerView{}, false
	}
	return v.Player(v.PlayerID)
}

// MyTurn reports whether the local player holds the turn
func (v TableView) MyTurn() bool {
	return v.PlayerID != "" && v.Turn == v.PlayerID
}

// IsDealer reports whether the local player may deal
func (v TableView) IsDealer() bool {
	return v.PlayerID != "" && v.Dealer == v.PlayerID
}

// IsHost reports whether the local player is the host
func (v TableView) IsHost() bool {
	me, ok := v.Me()
	return ok && me.IsHost
}

// Lookup resolves a player by id or case-insensitive name
func (v TableView) Lookup(nameOrID string) (game.PlayerView, bool) {
	if p, ok := v.Player(nameOrID); ok {
		return p, true
	}
	for _, p := range v.Players {
		if strings.EqualFold(p.BaseName(), nameOrID) {
			return p, true
		}
	}
	return game.PlayerView{}, false
}
