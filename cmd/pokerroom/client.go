package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/pokerroom/cmd/pokerroom/shared"
	"github.com/lox/pokerroom/internal/client"
	"github.com/lox/pokerroom/internal/tui"
)

// ClientCmd connects an interactive terminal player to a room
type ClientCmd struct {
	Config   string `short:"c" default:"pokerroom-client.hcl" help:"Path to HCL configuration file"`
	URL      string `short:"s" name:"url" help:"Server URL to connect to (overrides config)"`
	Room     string `short:"r" help:"Room to join (overrides config)"`
	Name     string `short:"n" help:"Player name (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	LogFile  string `help:"Log file path (overrides config)"`
}

func (c *ClientCmd) Run() error {
	cfg, err := client.LoadClientConfig(c.Config)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if c.URL != "" {
		cfg.Server.URL = c.URL
	}
	if c.Room != "" {
		cfg.Server.Room = c.Room
	}
	if c.Name != "" {
		cfg.Player.Name = c.Name
	}
	if c.LogLevel != "" {
		cfg.UI.LogLevel = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.UI.LogFile = c.LogFile
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The terminal belongs to the TUI, so logs go to a file
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger, err := shared.SetupLogger(logFile, cfg.UI.LogLevel)
	if err != nil {
		return err
	}

	logger.Info("Starting poker room client",
		"server", cfg.Server.URL,
		"room", cfg.Server.Room,
		"player", cfg.Player.Name)

	wsClient := client.NewClient(cfg.Server.URL, cfg.Server.Room, logger)

	var program *tea.Program
	adapter := tui.NewNetworkTUIAdapter(func(msg tea.Msg) { program.Send(msg) })
	agent := client.NewNetworkAgent(wsClient, adapter, logger)
	model := tui.NewTUIModel(agent, logger)
	program = tea.NewProgram(model, tea.WithAltScreen())

	connectCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ConnectTimeout)*time.Second)
	defer cancel()
	if err := wsClient.Connect(connectCtx); err != nil {
		return err
	}
	defer func() { _ = wsClient.Disconnect() }()

	model.AddLogEntry("Connected to " + cfg.Server.URL)
	model.AddLogEntry("Commands: " + client.HelpText)

	if err := wsClient.Join(cfg.Player.Name); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	// Leave the TUI if the server goes away
	go func() {
		<-wsClient.Done()
		program.Send(tui.QuitMsg{})
	}()

	_, err = program.Run()
	return err
}
