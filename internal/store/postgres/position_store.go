package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL. The
// schema's singleton constraint backs the at-most-one-position rule even
// if a second agent instance races past the application-level checks.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a position store backed by the given pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Get returns the open position, or domain.ErrNotFound when none exists.
func (s *PositionStore) Get(ctx context.Context) (domain.Position, error) {
	var pos domain.Position
	err := s.pool.QueryRow(ctx,
		`SELECT id, asset, open_price, amount, opened_at FROM positions LIMIT 1`,
	).Scan(&pos.ID, &pos.Asset, &pos.OpenPrice, &pos.Amount, &pos.OpenedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Position{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("postgres: get position: %w", err)
	}
	return pos, nil
}

// Create inserts the open position. A unique violation on the singleton
// flag surfaces as domain.ErrPositionOpen.
func (s *PositionStore) Create(ctx context.Context, pos domain.Position) error {
	const query = `
		INSERT INTO positions (id, asset, open_price, amount, opened_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.pool.Exec(ctx, query,
		pos.ID, pos.Asset, pos.OpenPrice, pos.Amount, pos.OpenedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("postgres: create position %s: %w", pos.ID, domain.ErrPositionOpen)
		}
		return fmt.Errorf("postgres: create position %s: %w", pos.ID, err)
	}
	return nil
}

// Delete removes the position by ID.
func (s *PositionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete position %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: delete position %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Compile-time interface check.
var _ domain.PositionStore = (*PositionStore)(nil)
