package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/pokerroom/internal/server"
)

var (
	ErrNotYourTurn = errors.New("it is not your turn")
	ErrNotDealer   = errors.New("only the dealer can deal")
	ErrNotHost     = errors.New("only the host can do that")
	ErrNotSeated   = errors.New("join the room first")
)

// HelpText lists the commands understood by ProcessCommand
const HelpText = "bet <n>, fold, deal, show, dealer <name>, quit"

// UI is the surface a NetworkAgent reports to
type UI interface {
	AddLogEntry(string)
	Refresh(TableView)
}

// NetworkAgent connects a Client to a UI: server messages update the
// table and the UI, and typed commands become client requests
type NetworkAgent struct {
	client *Client
	table  *Table
	ui     UI
	logger *log.Logger
}

// NewNetworkAgent creates a new network agent
func NewNetworkAgent(client *Client, ui UI, logger *log.Logger) *NetworkAgent {
	na := &NetworkAgent{
		client: client,
		table:  NewTable(),
		ui:     ui,
		logger: logger.WithPrefix("network-agent"),
	}

	na.setupEventHandlers()

	return na
}

// setupEventHandlers registers handlers for every server message type
func (na *NetworkAgent) setupEventHandlers() {
	for _, mt := range []server.MessageType{
		server.MessageTypeYourID,
		server.MessageTypeUsers,
		server.MessageTypeTurn,
		server.MessageTypeDealer,
		server.MessageTypeShowCards,
		server.MessageTypeGameState,
		server.MessageTypeRoundResult,
		server.MessageTypeActionRejected,
		server.MessageTypeError,
	} {
		na.client.AddEventHandler(mt, na.handleMessage)
	}
}

// Table returns the agent's view of the room
func (na *NetworkAgent) Table() *Table {
	return na.table
}

func (na *NetworkAgent) handleMessage(msg *server.Message) {
	line, err := na.table.Apply(msg)
	if err != nil {
		na.logger.Error("Failed to apply message", "type", msg.Type, "error", err)
		return
	}
	if line != "" {
		for _, l := range strings.Split(line, "\n") {
			na.ui.AddLogEntry(l)
		}
	}
	na.ui.Refresh(na.table.View())
}

// ProcessCommand parses one line of user input and sends the matching
// request. It reports quit when the user asked to leave.
func (na *NetworkAgent) ProcessCommand(input string) (quit bool, err error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false, nil
	}
	command, args := strings.ToLower(fields[0]), fields[1:]
	view := na.table.View()

	switch command {
	case "q", "quit", "exit":
		return true, nil

	case "h", "help", "?":
		na.ui.AddLogEntry("Commands: " + HelpText)
		return false, nil

	case "b", "bet":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: bet <amount>")
		}
		amount, err := strconv.Atoi(args[0])
		if err != nil || amount < 0 {
			return false, fmt.Errorf("invalid amount: %s", args[0])
		}
		if !view.MyTurn() {
			return false, ErrNotYourTurn
		}
		return false, na.client.Bet(amount)

	case "f", "fold":
		if !view.MyTurn() {
			return false, ErrNotYourTurn
		}
		return false, na.client.Fold()

	case "d", "deal":
		if !view.IsDealer() {
			return false, ErrNotDealer
		}
		return false, na.client.Deal()

	case "s", "show":
		if !view.IsHost() {
			return false, ErrNotHost
		}
		return false, na.client.ToggleShowCards()

	case "dealer":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: dealer <name>")
		}
		if !view.IsHost() {
			return false, ErrNotHost
		}
		p, ok := view.Lookup(args[0])
		if !ok {
			return false, fmt.Errorf("no player named %s", args[0])
		}
		return false, na.client.ChooseDealer(p.ID)

	case "join":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: join <name>")
		}
		if _, ok := view.Me(); ok {
			return false, fmt.Errorf("already seated")
		}
		return false, na.client.Join(strings.Join(args, " "))
	}

	if _, ok := view.Me(); !ok {
		return false, ErrNotSeated
	}
	return false, fmt.Errorf("unknown command: %s (try: %s)", command, HelpText)
}
