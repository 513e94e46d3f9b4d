// Package storage provides SQLite-based persistence for the leaderboard.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/multiplayer"
)

// ErrAnonymous is returned when a guest result is submitted.
var ErrAnonymous = errors.New("storage: guest results are not recorded")

// Store manages the SQLite database connection for score persistence.
type Store struct {
	db *sql.DB
}

// RunEntry is one finished run.
type RunEntry struct {
	ID         int64
	RunID      string
	PlayerID   string
	PlayerName string
	Score      int
	Wave       int
	CreatedAt  time.Time
}

// BestEntry is a player's best run.
type BestEntry struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"name"`
	Score      int       `json:"score"`
	Wave       int       `json:"wave"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Stats contains aggregated statistics over all runs.
type Stats struct {
	Runs       int
	Players    int
	HighScore  int
	AvgScore   float64
	MaxWave    int
	LastPlayed time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One writer; the engine submits while the API reads.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			player_id TEXT NOT NULL,
			player_name TEXT NOT NULL,
			score INTEGER NOT NULL,
			wave INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_player ON runs(player_id);
		CREATE INDEX IF NOT EXISTS idx_runs_top ON runs(score DESC);

		CREATE TABLE IF NOT EXISTS best_scores (
			player_id TEXT PRIMARY KEY,
			player_name TEXT NOT NULL,
			score INTEGER NOT NULL,
			wave INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_best_scores_top ON best_scores(score DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SubmitResult records a finished run and raises the player's best score if
// the run beats it. A lower score never overwrites the best.
func (s *Store) SubmitResult(ctx context.Context, who multiplayer.Identity, score, wave int) error {
	if who.Guest || who.ID == "" {
		return ErrAnonymous
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, player_id, player_name, score, wave) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), who.ID, who.Name, score, wave,
	); err != nil {
		return fmt.Errorf("storage: cannot save run: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO best_scores (player_id, player_name, score, wave)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET
			player_name = excluded.player_name,
			score = excluded.score,
			wave = excluded.wave,
			updated_at = CURRENT_TIMESTAMP
		 WHERE excluded.score > best_scores.score`,
		who.ID, who.Name, score, wave,
	); err != nil {
		return fmt.Errorf("storage: cannot update best score: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit run: %w", err)
	}
	return nil
}

// Leaderboard returns the best score of each player, highest first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]BestEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, player_name, score, wave, updated_at
		 FROM best_scores
		 ORDER BY score DESC, updated_at ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []BestEntry{}
	for rows.Next() {
		var e BestEntry
		var updatedAt any
		if err := rows.Scan(&e.PlayerID, &e.PlayerName, &e.Score, &e.Wave, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.UpdatedAt = parseTime(updatedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// TopRuns retrieves the top N runs across all players.
func (s *Store) TopRuns(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryRuns(ctx,
		`SELECT id, run_id, player_id, player_name, score, wave, created_at
		 FROM runs
		 ORDER BY score DESC
		 LIMIT ?`,
		limit,
	)
}

// PlayerRuns retrieves a player's most recent runs.
func (s *Store) PlayerRuns(ctx context.Context, playerID string, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(ctx,
		`SELECT id, run_id, player_id, player_name, score, wave, created_at
		 FROM runs
		 WHERE player_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		playerID, limit,
	)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]RunEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.RunID, &e.PlayerID, &e.PlayerName, &e.Score, &e.Wave, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// HighScore returns a player's best score, or 0 if they have none.
func (s *Store) HighScore(ctx context.Context, playerID string) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx,
		"SELECT score FROM best_scores WHERE player_id = ?",
		playerID,
	).Scan(&score)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}
	return score, nil
}

// Stats aggregates all recorded runs.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var lastPlayed any
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT player_id), COALESCE(MAX(score), 0),
		        COALESCE(AVG(score), 0), COALESCE(MAX(wave), 0), MAX(created_at)
		 FROM runs`,
	).Scan(&stats.Runs, &stats.Players, &stats.HighScore, &stats.AvgScore, &stats.MaxWave, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)
	return stats, nil
}

// Clear deletes every run and best score.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM runs; DELETE FROM best_scores;"); err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
