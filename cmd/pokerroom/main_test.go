package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerroom/internal/deck"
	"github.com/lox/pokerroom/internal/game"
	"github.com/lox/pokerroom/internal/history"
	"github.com/lox/pokerroom/internal/server"
)

func init() {
	// plain output so assertions see text, not escape codes
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestServerCmdOverrides(t *testing.T) {
	seed := int64(99)
	cmd := &ServerCmd{Addr: "0.0.0.0:4000", LogLevel: "debug", Seed: &seed, HistoryDB: "rounds.db"}

	cfg := server.DefaultServerConfig()
	cfg.Rooms = append(cfg.Rooms, server.RoomConfig{Name: "side", StartingChips: 50, Resolver: "ranked"})
	require.NoError(t, cmd.applyOverrides(cfg))

	assert.Equal(t, "0.0.0.0:4000", cfg.GetServerAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "rounds.db", cfg.Server.HistoryDB)
	for _, room := range cfg.Rooms {
		assert.Equal(t, seed, room.Seed, room.Name)
	}
	require.NoError(t, cfg.Validate())

	bad := &ServerCmd{Addr: "nope"}
	assert.Error(t, bad.applyOverrides(server.DefaultServerConfig()))
	bad = &ServerCmd{Addr: "localhost:http"}
	assert.Error(t, bad.applyOverrides(server.DefaultServerConfig()))
}

func TestRenderHistory(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rounds := []game.RoundResult{
		{Room: "main", Round: 3, Amount: 12, Refunded: true, Forfeited: 2, At: at},
		{Room: "main", Round: 2, Refunded: true, At: at},
		{Room: "main", Round: 1, WinnerID: "p1", WinnerName: "alice", Amount: 30, Hand: "Pair",
			Community: deck.MustParseCards("Hearts A", "Clubs 2", "Spades 9", "Diamonds J", "Hearts 4"), At: at},
	}
	standings := []history.Standing{{Name: "alice", Wins: 1, Chips: 30}}

	var buf bytes.Buffer
	renderHistory(&buf, "main", rounds, standings)

	out := buf.String()
	assert.Contains(t, out, "Room main: 3 recent rounds")
	assert.Contains(t, out, "(refunded)")
	assert.Contains(t, out, "(refunded, 2 forfeited)")
	assert.Contains(t, out, "Hearts A Clubs 2 Spades 9 Diamonds J Hearts 4")
	assert.Contains(t, out, "Chips won")
	assert.Contains(t, out, "alice")
}
