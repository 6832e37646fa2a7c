package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL. The trade log
// is append-only; rows are never updated or deleted outside of archival.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a trade store backed by the given pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `id, action, price, amount, execution_ref, timestamp`

// Append inserts one trade log entry.
func (s *TradeStore) Append(ctx context.Context, trade domain.ClosedTrade) error {
	const query = `
		INSERT INTO trades (id, action, price, amount, execution_ref, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.pool.Exec(ctx, query,
		trade.ID, string(trade.Action), trade.Price, trade.Amount,
		trade.ExecutionRef, trade.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: append trade %s: %w", trade.ID, err)
	}
	return nil
}

// List returns the full trade log, oldest first. An empty table yields an
// empty slice.
func (s *TradeStore) List(ctx context.Context) ([]domain.ClosedTrade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeSelectCols+` FROM trades ORDER BY timestamp, inserted_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ListBefore returns trades older than the cutoff, oldest first.
func (s *TradeStore) ListBefore(ctx context.Context, cutoff time.Time) ([]domain.ClosedTrade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeSelectCols+` FROM trades WHERE timestamp < $1 ORDER BY timestamp, inserted_at`,
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// DeleteBefore removes trades older than the cutoff after they have been
// archived, returning the number of rows removed.
func (s *TradeStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trades WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete trades before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func scanTrades(rows pgx.Rows) ([]domain.ClosedTrade, error) {
	trades := []domain.ClosedTrade{}
	for rows.Next() {
		var t domain.ClosedTrade
		var action string
		if err := rows.Scan(&t.ID, &action, &t.Price, &t.Amount, &t.ExecutionRef, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		t.Action = domain.TradeAction(action)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate trades: %w", err)
	}
	return trades, nil
}

// Compile-time interface check.
var _ domain.TradeStore = (*TradeStore)(nil)
