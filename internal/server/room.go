package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokerroom/internal/game"
	"github.com/lox/pokerroom/internal/randutil"
)

var ErrRoomNotFound = errors.New("room not found")

// Room is a named game session served over WebSocket
type Room struct {
	Name    string
	Config  RoomConfig
	Session *game.Session
}

// Info summarizes the room for listings
func (r *Room) Info() RoomInfo {
	snap := r.Session.Snapshot()
	return RoomInfo{
		Name:    r.Name,
		Players: len(snap.Players),
		Phase:   snap.Phase,
		Pot:     snap.Pot,
		Round:   snap.Round,
		Host:    snap.Host,
		Dealer:  snap.Dealer,
	}
}

// roomBroadcaster delivers a room's session events to the connections in
// that room
type roomBroadcaster struct {
	room   string
	server *Server
	logger *log.Logger
}

func (b *roomBroadcaster) Broadcast(event game.Event) {
	msg, err := NewEventMessage(event)
	if err != nil {
		b.logger.Error("Failed to create event message", "type", event.EventType(), "error", err)
		return
	}
	b.server.BroadcastToRoom(b.room, msg)
}

func (b *roomBroadcaster) SendTo(playerID string, event game.Event) {
	msg, err := NewEventMessage(event)
	if err != nil {
		b.logger.Error("Failed to create event message", "type", event.EventType(), "error", err)
		return
	}
	if err := b.server.SendToPlayer(playerID, msg); err != nil {
		b.logger.Debug("Failed to send to player", "player", playerID, "type", event.EventType(), "error", err)
	}
}

// RoomManager owns every room on the server
type RoomManager struct {
	rooms  map[string]*Room
	order  []string
	mu     sync.RWMutex
	logger *log.Logger
}

// NewRoomManager creates one session per configured room. Rooms deliver
// events through server and report finished rounds to recorder, which may
// be nil.
func NewRoomManager(configs []RoomConfig, server *Server, recorder game.RoundRecorder, clock quartz.Clock, logger *log.Logger) (*RoomManager, error) {
	m := &RoomManager{
		rooms:  make(map[string]*Room, len(configs)),
		logger: logger.WithPrefix("rooms"),
	}

	for _, cfg := range configs {
		resolver, err := game.ResolverByName(cfg.Resolver)
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", cfg.Name, err)
		}

		roomLogger := logger.WithPrefix("room")
		opts := []game.Option{
			game.WithRand(randutil.New(randutil.Seed(cfg.Seed))),
			game.WithClock(clock),
			game.WithLogger(roomLogger),
			game.WithResolver(resolver),
			game.WithStartingChips(cfg.StartingChips),
		}
		if recorder != nil {
			opts = append(opts, game.WithRecorder(recorder))
		}

		out := &roomBroadcaster{room: cfg.Name, server: server, logger: roomLogger.With("room", cfg.Name)}
		m.rooms[cfg.Name] = &Room{
			Name:    cfg.Name,
			Config:  cfg,
			Session: game.NewSession(cfg.Name, out, opts...),
		}
		m.order = append(m.order, cfg.Name)
		m.logger.Info("Created room", "name", cfg.Name, "resolver", cfg.Resolver, "startingChips", cfg.StartingChips)
	}

	return m, nil
}

// Get returns a room by name. An empty name selects the default room.
func (m *RoomManager) Get(name string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if name == "" && len(m.order) > 0 {
		name = m.order[0]
	}
	room, ok := m.rooms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, name)
	}
	return room, nil
}

// List returns every room in configuration order
func (m *RoomManager) List() []RoomInfo {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.order))
	for _, name := range m.order {
		rooms = append(rooms, m.rooms[name])
	}
	m.mu.RUnlock()

	// snapshots take each session lock; do it outside ours
	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Info())
	}
	return infos
}
