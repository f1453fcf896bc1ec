package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/lox/pokerroom/cmd/pokerroom/shared"
	"github.com/lox/pokerroom/internal/server"
)

// ServerCmd runs the WebSocket server
type ServerCmd struct {
	Config    string `short:"c" default:"pokerroom-server.hcl" help:"Path to HCL configuration file"`
	Addr      string `short:"a" help:"Address to bind to as host:port (overrides config)"`
	LogLevel  string `short:"l" help:"Log level (overrides config)"`
	Seed      *int64 `help:"Deterministic RNG seed for every room (overrides config)"`
	HistoryDB string `name:"history-db" help:"SQLite database for round history (overrides config)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := c.applyOverrides(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := shared.SetupLogger(os.Stderr, cfg.Server.LogLevel)
	if err != nil {
		return err
	}

	logger.Info("Starting poker room server",
		"addr", cfg.GetServerAddress(),
		"rooms", len(cfg.Rooms),
		"history", cfg.Server.HistoryDB,
		"config", c.Config)

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	ctx := shared.SetupSignalHandler(logger)
	return srv.Run(ctx)
}

func (c *ServerCmd) applyOverrides(cfg *server.ServerConfig) error {
	if c.Addr != "" {
		host, portStr, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", c.Addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", portStr, err)
		}
		cfg.Server.Address = host
		cfg.Server.Port = port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.HistoryDB != "" {
		cfg.Server.HistoryDB = c.HistoryDB
	}
	if c.Seed != nil {
		for i := range cfg.Rooms {
			cfg.Rooms[i].Seed = *c.Seed
		}
	}
	return nil
}
