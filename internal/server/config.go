package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/pokerroom/internal/game"
)

// DefaultRoom is the room created when none are configured
const DefaultRoom = "main"

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Rooms  []RoomConfig   `hcl:"room,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address        string   `hcl:"address,optional"`
	Port           int      `hcl:"port,optional"`
	LogLevel       string   `hcl:"log_level,optional"`
	HistoryDB      string   `hcl:"history_db,optional"`
	AllowedOrigins []string `hcl:"allowed_origins,optional"`
}

// RoomConfig defines a game room
type RoomConfig struct {
	Name             string `hcl:"name,label"`
	StartingChips    int    `hcl:"starting_chips,optional"`
	Resolver         string `hcl:"resolver,optional"`
	Seed             int64  `hcl:"seed,optional"`
	ReportRejections bool   `hcl:"report_rejections,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:        "localhost",
			Port:           3000,
			LogLevel:       "info",
			AllowedOrigins: []string{"http://localhost:3005"},
		},
		Rooms: []RoomConfig{defaultRoomConfig(DefaultRoom)},
	}
}

func defaultRoomConfig(name string) RoomConfig {
	return RoomConfig{
		Name:          name,
		StartingChips: game.DefaultStartingChips,
		Resolver:      game.ResolverRandom,
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *ServerConfig) applyDefaults() {
	defaults := DefaultServerConfig()

	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaults.Server.LogLevel
	}
	if c.Server.AllowedOrigins == nil {
		c.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}

	if len(c.Rooms) == 0 {
		c.Rooms = defaults.Rooms
	}
	for i := range c.Rooms {
		if c.Rooms[i].StartingChips == 0 {
			c.Rooms[i].StartingChips = game.DefaultStartingChips
		}
		if c.Rooms[i].Resolver == "" {
			c.Rooms[i].Resolver = game.ResolverRandom
		}
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if len(c.Rooms) == 0 {
		return fmt.Errorf("at least one room must be configured")
	}

	seen := make(map[string]bool, len(c.Rooms))
	for _, room := range c.Rooms {
		if room.Name == "" {
			return fmt.Errorf("room name must not be empty")
		}
		if seen[room.Name] {
			return fmt.Errorf("room %s: configured more than once", room.Name)
		}
		seen[room.Name] = true

		if room.StartingChips <= 0 {
			return fmt.Errorf("room %s: starting chips must be positive", room.Name)
		}
		if _, err := game.ResolverByName(room.Resolver); err != nil {
			return fmt.Errorf("room %s: %w", room.Name, err)
		}
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GetRoomByName returns a room configuration by name
func (c *ServerConfig) GetRoomByName(name string) *RoomConfig {
	for i := range c.Rooms {
		if c.Rooms[i].Name == name {
			return &c.Rooms[i]
		}
	}
	return nil
}
