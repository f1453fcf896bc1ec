// Package history keeps a record of finished rounds in sqlite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lox/pokerroom/internal/deck"
	"github.com/lox/pokerroom/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	room        TEXT NOT NULL,
	round       INTEGER NOT NULL,
	winner_id   TEXT,
	winner_name TEXT,
	amount      INTEGER NOT NULL,
	hand        TEXT,
	refunded    BOOLEAN NOT NULL DEFAULT 0,
	forfeited   INTEGER NOT NULL DEFAULT 0,
	community   TEXT,
	played_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS rounds_room ON rounds(room, id);
`

// Store persists round results
type Store struct {
	db *sql.DB
}

// Standing is a player's running total in a room
type Standing struct {
	Name  string `json:"name"`
	Wins  int    `json:"wins"`
	Chips int    `json:"chips"`
}

// Open opens (creating if needed) the database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a round result
func (s *Store) Insert(ctx context.Context, r game.RoundResult) error {
	community, err := json.Marshal(r.Community)
	if err != nil {
		return fmt.Errorf("encode community cards: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rounds (room, round, winner_id, winner_name, amount, hand, refunded, forfeited, community, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Room, r.Round, r.WinnerID, r.WinnerName, r.Amount, r.Hand, r.Refunded, r.Forfeited, string(community), r.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert round %s/%d: %w", r.Room, r.Round, err)
	}
	return nil
}

// Recent returns up to limit results for a room, newest first
func (s *Store) Recent(ctx context.Context, room string, limit int) ([]game.RoundResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room, round, winner_id, winner_name, amount, hand, refunded, forfeited, community, played_at
		 FROM rounds WHERE room = ? ORDER BY id DESC LIMIT ?`, room, limit)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]game.RoundResult, 0, limit)
	for rows.Next() {
		var (
			r         game.RoundResult
			community sql.NullString
		)
		if err := rows.Scan(&r.Room, &r.Round, &r.WinnerID, &r.WinnerName, &r.Amount, &r.Hand, &r.Refunded, &r.Forfeited, &community, &r.At); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if community.Valid && community.String != "" {
			var cards []deck.Card
			if err := json.Unmarshal([]byte(community.String), &cards); err != nil {
				return nil, fmt.Errorf("decode community cards: %w", err)
			}
			r.Community = cards
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Standings totals wins and chips won per player name in a room, best
// first. Refunded rounds have no winner and are not counted.
func (s *Store) Standings(ctx context.Context, room string) ([]Standing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT winner_name, COUNT(*) AS wins, SUM(amount) AS chips
		 FROM rounds WHERE room = ? AND refunded = 0
		 GROUP BY winner_name ORDER BY chips DESC, wins DESC, winner_name ASC`, room)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	standings := make([]Standing, 0)
	for rows.Next() {
		var st Standing
		if err := rows.Scan(&st.Name, &st.Wins, &st.Chips); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		standings = append(standings, st)
	}
	return standings, rows.Err()
}
