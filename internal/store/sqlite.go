package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nukewar/internal/ports"

	_ "modernc.org/sqlite"
)

// ErrMissingID is returned when an outcome lacks its match or player id.
var ErrMissingID = errors.New("store: match id and player id are required")

// SQLiteStore keeps match outcomes and per-player counters in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:" for
// a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema. It is safe to run on every start.
func (s *SQLiteStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS nuke_games (
			match_id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			rounds INTEGER NOT NULL DEFAULT 0,
			player_cards INTEGER NOT NULL DEFAULT 0,
			cpu_cards INTEGER NOT NULL DEFAULT 0,
			ended_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS nuke_players (
			player_id TEXT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			ties INTEGER NOT NULL DEFAULT 0,
			total_games INTEGER NOT NULL DEFAULT 0,
			last_played INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_player_ended ON nuke_games(player_id, ended_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_players_wins ON nuke_players(wins DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// RecordOutcome stores o and bumps the player's counters in one transaction.
// A match id that is already stored is a no-op.
func (s *SQLiteStore) RecordOutcome(ctx context.Context, o ports.Outcome) error {
	if o.MatchID == "" || o.PlayerID == "" {
		return ErrMissingID
	}
	if !o.Result.Valid() {
		return fmt.Errorf("store: unknown result %q", o.Result)
	}
	if o.EndedAt.IsZero() {
		o.EndedAt = time.Now()
	}
	ended := o.EndedAt.UTC().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO nuke_games (
		match_id, player_id, user_id, username, result, reason, rounds, player_cards, cpu_cards, ended_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.MatchID, o.PlayerID, o.UserID, o.Username, string(o.Result), o.Reason,
		o.Rounds, o.PlayerCards, o.CPUCards, ended,
	)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", o.MatchID, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert game %s: %w", o.MatchID, err)
	}
	if inserted == 0 {
		return tx.Commit()
	}

	var win, loss, tie int
	switch o.Result {
	case ports.ResultWin:
		win = 1
	case ports.ResultLoss:
		loss = 1
	case ports.ResultTie:
		tie = 1
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO nuke_players (
		player_id, username, wins, losses, ties, total_games, last_played
	) VALUES (?, ?, ?, ?, ?, 1, ?)
	ON CONFLICT(player_id) DO UPDATE SET
		username = CASE WHEN excluded.username = '' THEN username ELSE excluded.username END,
		wins = wins + excluded.wins,
		losses = losses + excluded.losses,
		ties = ties + excluded.ties,
		total_games = total_games + 1,
		last_played = MAX(last_played, excluded.last_played)`,
		o.PlayerID, o.Username, win, loss, tie, ended,
	)
	if err != nil {
		return fmt.Errorf("update player %s: %w", o.PlayerID, err)
	}

	return tx.Commit()
}

// SeedStatsOnce creates an empty counters row. created is false when the
// player already has one.
func (s *SQLiteStore) SeedStatsOnce(ctx context.Context, playerID string) (bool, error) {
	if playerID == "" {
		return false, ErrMissingID
	}
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO nuke_players (player_id) VALUES (?)`, playerID)
	if err != nil {
		return false, fmt.Errorf("seed player %s: %w", playerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

const playerColumns = `player_id, username, wins, losses, ties, total_games, last_played`

func scanPlayer(row interface{ Scan(...any) error }) (ports.PlayerStats, error) {
	var (
		s          ports.PlayerStats
		lastPlayed int64
	)
	if err := row.Scan(&s.PlayerID, &s.Username, &s.Wins, &s.Losses, &s.Ties, &s.TotalGames, &lastPlayed); err != nil {
		return ports.PlayerStats{}, err
	}
	if lastPlayed > 0 {
		s.LastPlayed = time.UnixMilli(lastPlayed).UTC()
	}
	return s, nil
}

// TopPlayers returns players who finished at least one game, most wins first.
func (s *SQLiteStore) TopPlayers(ctx context.Context, limit int) ([]ports.PlayerStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM nuke_players
		WHERE total_games > 0
		ORDER BY wins DESC, total_games ASC, player_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top players: %w", err)
	}
	defer rows.Close()

	out := []ports.PlayerStats{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PlayerStats returns the counters for playerID; unknown players get zeros.
func (s *SQLiteStore) PlayerStats(ctx context.Context, playerID string) (ports.PlayerStats, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM nuke_players WHERE player_id = ?`, playerID)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.PlayerStats{PlayerID: playerID}, nil
	}
	if err != nil {
		return ports.PlayerStats{}, fmt.Errorf("query player %s: %w", playerID, err)
	}
	return p, nil
}

// RecentMatches returns the latest outcomes for playerID, newest first.
func (s *SQLiteStore) RecentMatches(ctx context.Context, playerID string, limit int) ([]ports.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		match_id, player_id, user_id, username, result, reason, rounds, player_cards, cpu_cards, ended_at
		FROM nuke_games
		WHERE player_id = ?
		ORDER BY ended_at DESC, rowid DESC
		LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent matches: %w", err)
	}
	defer rows.Close()

	out := []ports.Outcome{}
	for rows.Next() {
		var (
			o      ports.Outcome
			result string
			ended  int64
		)
		if err := rows.Scan(&o.MatchID, &o.PlayerID, &o.UserID, &o.Username, &result, &o.Reason,
			&o.Rounds, &o.PlayerCards, &o.CPUCards, &ended); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		o.Result = ports.Result(result)
		o.EndedAt = time.UnixMilli(ended).UTC()
		out = append(out, o)
	}
	return out, rows.Err()
}

var (
	_ ports.OutcomeSink       = (*SQLiteStore)(nil)
	_ ports.LeaderboardReader = (*SQLiteStore)(nil)
	_ ports.StatsSeeder       = (*SQLiteStore)(nil)
)
