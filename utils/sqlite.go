package utils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ccasino/models"
)

// SQLiteLedger stores players in an embedded SQLite database
type SQLiteLedger struct {
	db *sql.DB
}

var _ Ledger = (*SQLiteLedger)(nil)

// NewSQLiteLedger opens (or creates) the database at dbPath
func NewSQLiteLedger(ctx context.Context, dbPath string) (*SQLiteLedger, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLitePlayersSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteLedger{db: db}, nil
}

func ensureSQLitePlayersSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS players (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
    score INTEGER NOT NULL DEFAULT 0,
    cheat_strikes INTEGER NOT NULL DEFAULT 0,
    last_free_credits_at_ms INTEGER,
    created_at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_players_score ON players(score DESC);
`)
	if err != nil {
		return fmt.Errorf("failed to create players table: %w", err)
	}
	return nil
}

const sqlitePlayerColumns = `id, name, credits, score, cheat_strikes, last_free_credits_at_ms, created_at_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePlayer(row rowScanner) (*models.Player, error) {
	var (
		p         models.Player
		lastFree  sql.NullInt64
		createdMs int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Credits, &p.Score, &p.CheatStrikes, &lastFree, &createdMs); err != nil {
		return nil, err
	}
	if lastFree.Valid {
		t := time.UnixMilli(lastFree.Int64).UTC()
		p.LastFreeCreditsAt = &t
	}
	p.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &p, nil
}

func (l *SQLiteLedger) ensurePlayer(ctx context.Context, id int64) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO players (id, created_at_ms) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
		id, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) GetPlayer(ctx context.Context, id int64) (*models.Player, error) {
	if err := l.ensurePlayer(ctx, id); err != nil {
		return nil, err
	}
	p, err := scanSQLitePlayer(l.db.QueryRowContext(ctx,
		`SELECT `+sqlitePlayerColumns+` FROM players WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

func (l *SQLiteLedger) UpdatePlayer(ctx context.Context, id int64, upd models.PlayerUpdate) (*models.Player, error) {
	if err := l.ensurePlayer(ctx, id); err != nil {
		return nil, err
	}

	var lastFree sql.NullInt64
	if upd.LastFreeCreditsAt != nil {
		lastFree = sql.NullInt64{Int64: upd.LastFreeCreditsAt.UTC().UnixMilli(), Valid: true}
	}

	p, err := scanSQLitePlayer(l.db.QueryRowContext(ctx, `
UPDATE players SET
    credits = credits + ?2,
    score = score + ?3,
    cheat_strikes = cheat_strikes + ?4,
    name = CASE WHEN ?5 = '' THEN name ELSE ?5 END,
    last_free_credits_at_ms = COALESCE(?6, last_free_credits_at_ms)
WHERE id = ?1 AND credits + ?2 >= 0
RETURNING `+sqlitePlayerColumns,
		id,
		upd.CreditsIncrement,
		upd.ScoreIncrement,
		upd.CheatStrikesIncrement,
		upd.Name,
		lastFree,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, InsufficientFundsError(NotEnoughChips)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	return p, nil
}

func (l *SQLiteLedger) TopPlayers(ctx context.Context, limit int) ([]*models.Player, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+sqlitePlayerColumns+` FROM players ORDER BY score DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top players: %w", err)
	}
	defer rows.Close()

	var out []*models.Player
	for rows.Next() {
		p, err := scanSQLitePlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (l *SQLiteLedger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
