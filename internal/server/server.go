package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerroom/internal/connid"
	"github.com/lox/pokerroom/internal/game"
	"github.com/lox/pokerroom/internal/history"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	shutdownTimeout     = 5 * time.Second
)

// Server represents the WebSocket server
type Server struct {
	config      *ServerConfig
	upgrader    websocket.Upgrader
	connections map[string]*Connection
	register    chan *Connection
	unregister  chan *Connection
	stopped     chan struct{} // closed when the run loop exits
	logger      *log.Logger
	mu          sync.RWMutex
	clock       quartz.Clock
	ids         *connid.Generator

	rooms    *RoomManager
	history  *history.Store
	recorder *history.Recorder
}

// Option configures a Server
type Option func(*Server)

// WithClock sets the clock used by sessions and connection keepalives
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithIDGenerator sets the generator for connection ids
func WithIDGenerator(g *connid.Generator) Option {
	return func(s *Server) { s.ids = g }
}

// NewServer creates a server with one session per configured room. When
// history_db is set the round history store is opened as well.
func NewServer(config *ServerConfig, logger *log.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		config:      config,
		connections: make(map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		stopped:     make(chan struct{}),
		logger:      logger.WithPrefix("server"),
		clock:       quartz.NewReal(),
		ids:         connid.NewGenerator(nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin:     s.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	var recorder game.RoundRecorder
	if path := config.Server.HistoryDB; path != "" {
		store, err := history.Open(path)
		if err != nil {
			return nil, err
		}
		s.history = store
		s.recorder = history.NewRecorder(store, logger, 0)
		recorder = s.recorder
		s.logger.Info("Recording round history", "path", path)
	}

	rooms, err := NewRoomManager(config.Rooms, s, recorder, s.clock, logger)
	if err != nil {
		if s.history != nil {
			_ = s.history.Close()
		}
		return nil, err
	}
	s.rooms = rooms

	return s, nil
}

// Rooms returns the server's room manager
func (s *Server) Rooms() *RoomManager {
	return s.rooms
}

// Handler returns the HTTP handler serving the WebSocket and status
// endpoints
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/rooms", s.handleRooms)
	mux.HandleFunc("/history", s.handleHistory)
	return mux
}

// Run listens on the configured address and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.GetServerAddress())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.GetServerAddress(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes every
// client and flushes round history
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.run(ctx)
		return nil
	})

	if s.recorder != nil {
		g.Go(func() error {
			return s.recorder.Run(ctx)
		})
	}

	g.Go(func() error {
		s.logger.Info("Starting WebSocket server", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down server")
		s.closeConnections()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if s.history != nil {
		if cerr := s.history.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (s *Server) closeConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.connections {
		_ = conn.Close()
	}
}

// run handles connection lifecycle. The registry lock is never held while
// calling into a session: sessions broadcast under their own lock and the
// broadcast takes the registry lock.
func (s *Server) run(ctx context.Context) {
	defer close(s.stopped)

	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn.ID()] = conn
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "id", conn.ID(), "room", conn.Room(), "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn.ID()]
			delete(s.connections, conn.ID())
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				_ = conn.Close()
				if res := conn.room.Session.Leave(conn.ID()); res.OK() {
					s.logger.Info("Cleaned up disconnected player", "player", conn.ID(), "room", conn.Room())
				}
			}
			s.logger.Info("Client disconnected", "id", conn.ID(), "total", total)

		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	allowed := s.config.Server.AllowedOrigins
	if origin == "" || len(allowed) == 0 {
		return true
	}
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	s.logger.Warn("Rejected connection from disallowed origin", "origin", origin)
	return false
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	room, err := s.rooms.Get(r.URL.Query().Get("room"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(s.ids.New(), conn, room, s.clock, s.logger)
	select {
	case s.register <- client:
	case <-s.stopped:
		_ = client.Close()
		return
	}
	client.Start()

	go func() {
		<-client.Done()
		select {
		case s.unregister <- client:
		case <-s.stopped:
		}
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// handleRooms lists every room with its current phase and pot
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.rooms.List())
}

// handleHistory returns recent round results and standings for a room
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history is disabled", http.StatusNotFound)
		return
	}

	room, err := s.rooms.Get(r.URL.Query().Get("room"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	rounds, err := s.history.Recent(r.Context(), room.Name, limit)
	if err != nil {
		s.logger.Error("Failed to load history", "room", room.Name, "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	standings, err := s.history.Standings(r.Context(), room.Name)
	if err != nil {
		s.logger.Error("Failed to load standings", "room", room.Name, "error", err)
		http.Error(w, "failed to load standings", http.StatusInternalServerError)
		return
	}

	writeJSON(w, HistoryData{Room: room.Name, Rounds: rounds, Standings: standings})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// BroadcastToRoom sends a message to every connection in a room
func (s *Server) BroadcastToRoom(room string, msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, conn := range s.connections {
		if conn.Room() == room {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Error("Failed to send message to client", "error", err, "id", conn.ID())
			} else {
				count++
			}
		}
	}

	s.logger.Debug("Broadcasted message to room", "room", room, "type", msg.Type, "recipients", count)
}

// SendToPlayer sends a message to a specific player
func (s *Server) SendToPlayer(playerID string, msg *Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.connections[playerID]
	if !ok {
		return fmt.Errorf("player not found: %s", playerID)
	}
	return conn.SendMessage(msg)
}

// ConnectedPlayers returns the ids of connections in a room
func (s *Server) ConnectedPlayers(room string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, conn := range s.connections {
		if conn.Room() == room {
			ids = append(ids, id)
		}
	}
	return ids
}
