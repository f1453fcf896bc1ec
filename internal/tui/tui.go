package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/pokerroom/internal/client"
	"github.com/lox/pokerroom/internal/deck"
	"github.com/lox/pokerroom/internal/game"
)

// Commander turns a line of user input into a request to the server
type Commander interface {
	ProcessCommand(input string) (quit bool, err error)
}

// TUIModel represents the Bubble Tea model for a poker room
type TUIModel struct {
	commands Commander
	logger   *log.Logger

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// State
	gameLog     []string
	table       client.TableView
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	// Dimensions
	width       int
	height      int
	initialized bool
}

// QuitMsg is a custom message to signal quit
type QuitMsg struct{}

// NewTUIModel creates a new TUI model that sends typed commands to commands
func NewTUIModel(commands Commander, logger *log.Logger) *TUIModel {
	// Sized properly when WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "join <name>"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &TUIModel{
		commands:    commands,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		gameLog:     []string{},
		focusedPane: 1,
	}
}

// Init initializes the TUI model
func (m *TUIModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case QuitMsg:
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case logEntryMsg:
		m.AddLogEntry(string(msg))
		return m, nil

	case tableMsg:
		m.table = client.TableView(msg)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := strings.TrimSpace(m.actionInput.Value())
				m.actionInput.SetValue("")
				if cmd := m.processAction(input); cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd

	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// processAction hands a line of input to the commander
func (m *TUIModel) processAction(input string) tea.Cmd {
	if input == "" {
		return nil
	}

	quit, err := m.commands.ProcessCommand(input)
	if err != nil {
		m.AddLogEntry(ErrorStyle.Render(err.Error()))
		return nil
	}
	if quit {
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit)
	}
	return nil
}

// View renders the TUI
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Action pane (bottom, full width)
	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)

	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1))
	if m.focusedPane == 1 {
		actionStyle = actionStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	actionPane := actionStyle.Render(actionContent)

	// Sidebar pane (right of the log pane, same height)
	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 28)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	// Log pane (top left, fills the rest)
	m.logViewport.SetContent(m.renderLogPane())
	m.logViewport.Width = max(m.width-sidebarWidth-4, 1)
	m.logViewport.Height = paneHeight

	if !m.initialized && m.logViewport.Width > 1 && m.logViewport.Height > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.logViewport.Width).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderLogPane renders the game log pane content
func (m *TUIModel) renderLogPane() string {
	return strings.Join(m.gameLog, "\n")
}

// renderSidebarPane lists the room state and every seated player
func (m *TUIModel) renderSidebarPane() string {
	var content strings.Builder
	t := m.table

	content.WriteString(HeaderStyle.Render(" " + t.Phase.String() + " "))
	content.WriteString("\n")
	content.WriteString(WarningStyle.Render(fmt.Sprintf("Pot: $%d", t.Pot)))
	if t.CurrentBet > 0 {
		content.WriteString(" | ")
		content.WriteString(WarningStyle.Render(fmt.Sprintf("Bet: $%d", t.CurrentBet)))
	}
	content.WriteString("\n\n")

	if len(t.Players) == 0 {
		content.WriteString(InfoStyle.Render("Nobody is seated"))
		return content.String()
	}

	content.WriteString(InfoStyle.Render("Players:"))
	content.WriteString("\n")
	for _, p := range t.Players {
		content.WriteString(m.renderPlayer(p))
		content.WriteString("\n")
	}

	return content.String()
}

func (m *TUIModel) renderPlayer(p game.PlayerView) string {
	t := m.table

	marker := "  "
	if p.ID == t.Turn {
		marker = TurnStyle.Render("▶ ")
	}

	var tags []string
	if p.ID == t.Dealer {
		tags = append(tags, DealerStyle.Render("D"))
	}
	if p.ID == t.PlayerID {
		tags = append(tags, "you")
	}

	line := fmt.Sprintf("%s%s $%d", marker, p.Name, p.Chips)
	if p.Bet > 0 {
		line += fmt.Sprintf(" bet $%d", p.Bet)
	}
	if len(tags) > 0 {
		line += " [" + strings.Join(tags, ",") + "]"
	}
	if p.Folded {
		line = FoldedStyle.Render(line + " folded")
	} else {
		line = PlayerInfoStyle.Render(line)
	}

	if t.ShowCards && p.ID != t.PlayerID && len(p.Hand) > 0 {
		line += " " + formatCards(p.Hand)
	}
	return line
}

// renderActionPane renders the hand, board and input
func (m *TUIModel) renderActionPane() string {
	var content strings.Builder
	t := m.table

	me, seated := t.Me()
	if seated && len(me.Hand) > 0 {
		content.WriteString(HandInfoStyle.Render("Hand: "))
		content.WriteString(formatCards(me.Hand))
		content.WriteString("  ")
	}
	if len(t.Community) > 0 {
		content.WriteString(HandInfoStyle.Render("Board: "))
		content.WriteString(formatCards(t.Community))
	}
	if content.Len() > 0 {
		content.WriteString("\n")
	}

	content.WriteString(ActionsStyle.Render(m.status()))
	content.WriteString("\n")

	m.actionInput.Placeholder = m.placeholder()
	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	help := "Tab to scroll log • Enter to submit • Ctrl+C to quit"
	if m.focusedPane == 0 {
		help = "Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"
	}
	content.WriteString(InfoStyle.Render(help))

	return content.String()
}

// status describes what the local player can do next
func (m *TUIModel) status() string {
	t := m.table
	if _, ok := t.Me(); !ok {
		return "Type 'join <name>' to take a seat"
	}

	var parts []string
	if t.MyTurn() {
		parts = append(parts, "Your turn: bet <n> or fold")
	} else if p, ok := t.Player(t.Turn); ok {
		parts = append(parts, "Waiting for "+p.BaseName())
	}
	if t.IsDealer() {
		parts = append(parts, "deal to advance")
	}
	if len(parts) == 0 {
		return "Waiting..."
	}
	return strings.Join(parts, " • ")
}

func (m *TUIModel) placeholder() string {
	t := m.table
	if _, ok := t.Me(); !ok {
		return "join <name>"
	}
	var opts []string
	if t.MyTurn() {
		opts = append(opts, "bet <n>", "fold")
	}
	if t.IsDealer() {
		opts = append(opts, "deal")
	}
	if t.IsHost() {
		opts = append(opts, "show", "dealer <name>")
	}
	opts = append(opts, "quit")
	return strings.Join(opts, ", ")
}

// formatCards formats cards with colors
func formatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(cards))
	for _, card := range cards {
		if card.IsRed() {
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		} else {
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}

	return "[" + strings.Join(formatted, " ") + "]"
}

// AddLogEntry adds an entry to the game log
func (m *TUIModel) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns a copy of the game log
func (m *TUIModel) Log() []string {
	return slices.Clone(m.gameLog)
}

// Table returns the table state currently displayed
func (m *TUIModel) Table() client.TableView {
	return m.table
}
