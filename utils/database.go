package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ccasino/models"
)

// PostgresLedger stores players in PostgreSQL through a pgx pool
type PostgresLedger struct {
	pool *pgxpool.Pool
}

var _ Ledger = (*PostgresLedger)(nil)

const playerColumns = `id, name, credits, score, cheat_strikes, last_free_credits_at, created_at`

// NewPostgresLedger connects to databaseURL and ensures the schema exists
func NewPostgresLedger(ctx context.Context, databaseURL string) (*PostgresLedger, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "ccasino",
		"timezone":          "UTC",
		"statement_timeout": "30s",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	l := &PostgresLedger{pool: pool}
	if err := l.createPlayersTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return l, nil
}

func (l *PostgresLedger) createPlayersTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS players (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			credits BIGINT NOT NULL DEFAULT 0 CHECK (credits >= 0),
			score BIGINT NOT NULL DEFAULT 0,
			cheat_strikes INTEGER NOT NULL DEFAULT 0,
			last_free_credits_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_players_score ON players(score DESC);`

	if _, err := l.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create players table: %w", err)
	}
	return nil
}

func scanPlayer(row pgx.Row) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Credits,
		&p.Score,
		&p.CheatStrikes,
		&p.LastFreeCreditsAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (l *PostgresLedger) ensurePlayer(ctx context.Context, id int64) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO players (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// GetPlayer retrieves a player, creating one if it doesn't exist
func (l *PostgresLedger) GetPlayer(ctx context.Context, id int64) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	p, err := scanPlayer(l.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		if err := l.ensurePlayer(ctx, id); err != nil {
			return nil, err
		}
		p, err = scanPlayer(l.pool.QueryRow(ctx, query, id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// UpdatePlayer applies increments in one statement; the credits guard in the
// WHERE clause makes an overdraft match no row.
func (l *PostgresLedger) UpdatePlayer(ctx context.Context, id int64, upd models.PlayerUpdate) (*models.Player, error) {
	if err := l.ensurePlayer(ctx, id); err != nil {
		return nil, err
	}

	query := `
		UPDATE players SET
			credits = credits + $2,
			score = score + $3,
			cheat_strikes = cheat_strikes + $4,
			name = CASE WHEN $5 = '' THEN name ELSE $5 END,
			last_free_credits_at = COALESCE($6, last_free_credits_at)
		WHERE id = $1 AND credits + $2 >= 0
		RETURNING ` + playerColumns

	p, err := scanPlayer(l.pool.QueryRow(ctx, query,
		id,
		upd.CreditsIncrement,
		upd.ScoreIncrement,
		upd.CheatStrikesIncrement,
		upd.Name,
		upd.LastFreeCreditsAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, InsufficientFundsError(NotEnoughChips)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	return p, nil
}

// TopPlayers returns the highest scoring players
func (l *PostgresLedger) TopPlayers(ctx context.Context, limit int) ([]*models.Player, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT `+playerColumns+` FROM players ORDER BY score DESC, id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top players: %w", err)
	}
	defer rows.Close()

	var out []*models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close closes the database connection pool
func (l *PostgresLedger) Close() error {
	l.pool.Close()
	return nil
}
