package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/pokerroom/internal/deck"
	"github.com/lox/pokerroom/internal/fileutil"
	"github.com/lox/pokerroom/internal/game"
	"github.com/lox/pokerroom/internal/history"
	"github.com/lox/pokerroom/internal/server"
)

// HistoryCmd prints recorded rounds for a room
type HistoryCmd struct {
	DB    string `arg:"" name:"db" help:"Path to the SQLite history database" type:"existingfile"`
	Room  string `short:"r" default:"main" help:"Room to report on"`
	Limit int    `short:"n" default:"20" help:"Number of recent rounds to show"`
	JSON  string `name:"json" help:"Also write the report as JSON to this path" type:"path"`
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func (c *HistoryCmd) Run() error {
	store, err := history.Open(c.DB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rounds, err := store.Recent(ctx, c.Room, c.Limit)
	if err != nil {
		return err
	}
	standings, err := store.Standings(ctx, c.Room)
	if err != nil {
		return err
	}

	renderHistory(os.Stdout, c.Room, rounds, standings)

	if c.JSON != "" {
		report := server.HistoryData{Room: c.Room, Rounds: rounds, Standings: standings}
		if err := fileutil.WriteJSON(c.JSON, report, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", c.JSON, err)
		}
	}
	return nil
}

func renderHistory(w io.Writer, room string, rounds []game.RoundResult, standings []history.Standing) {
	styleFunc := func(row, _ int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	}

	_, _ = fmt.Fprintf(w, "Room %s: %d recent rounds\n", room, len(rounds))
	if len(rounds) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(styleFunc).
			Headers("Round", "Winner", "Pot", "Hand", "Board", "At")
		for _, r := range rounds {
			winner := r.WinnerName
			if r.Refunded {
				winner = "(refunded)"
				if r.Forfeited > 0 {
					winner = fmt.Sprintf("(refunded, %d forfeited)", r.Forfeited)
				}
			}
			t.Row(strconv.Itoa(r.Round), winner, strconv.Itoa(r.Amount), r.Hand, formatBoard(r.Community), r.At.Local().Format(time.DateTime))
		}
		_, _ = fmt.Fprintln(w, t.Render())
	}

	if len(standings) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(styleFunc).
			Headers("Player", "Wins", "Chips won")
		for _, s := range standings {
			t.Row(s.Name, strconv.Itoa(s.Wins), strconv.Itoa(s.Chips))
		}
		_, _ = fmt.Fprintln(w, t.Render())
	}
}

func formatBoard(cards []deck.Card) string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.String()
	}
	return strings.Join(ids, " ")
}
