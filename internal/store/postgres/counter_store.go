package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// CounterStore implements domain.CounterStore on a single-row table so the
// daily trade count survives agent restarts.
type CounterStore struct {
	pool *pgxpool.Pool
}

// NewCounterStore creates a counter store backed by the given pool.
func NewCounterStore(pool *pgxpool.Pool) *CounterStore {
	return &CounterStore{pool: pool}
}

// Get returns the persisted counter. An empty table yields a zero counter
// with the window starting now.
func (s *CounterStore) Get(ctx context.Context) (domain.DailyTradeCounter, error) {
	var counter domain.DailyTradeCounter
	err := s.pool.QueryRow(ctx,
		`SELECT count, window_start FROM daily_counter`,
	).Scan(&counter.Count, &counter.WindowStart)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DailyTradeCounter{WindowStart: time.Now().UTC()}, nil
	}
	if err != nil {
		return domain.DailyTradeCounter{}, fmt.Errorf("postgres: get daily counter: %w", err)
	}
	return counter, nil
}

// Increment bumps the counter atomically, creating the row on first use,
// and returns the updated value.
func (s *CounterStore) Increment(ctx context.Context) (domain.DailyTradeCounter, error) {
	const query = `
		INSERT INTO daily_counter (singleton, count, window_start)
		VALUES (TRUE, 1, NOW())
		ON CONFLICT (singleton)
		DO UPDATE SET count = daily_counter.count + 1
		RETURNING count, window_start`

	var counter domain.DailyTradeCounter
	err := s.pool.QueryRow(ctx, query).Scan(&counter.Count, &counter.WindowStart)
	if err != nil {
		return domain.DailyTradeCounter{}, fmt.Errorf("postgres: increment daily counter: %w", err)
	}
	return counter, nil
}

// Reset zeroes the count and starts a new window.
func (s *CounterStore) Reset(ctx context.Context, windowStart time.Time) error {
	const query = `
		INSERT INTO daily_counter (singleton, count, window_start)
		VALUES (TRUE, 0, $1)
		ON CONFLICT (singleton)
		DO UPDATE SET count = 0, window_start = $1`
	if _, err := s.pool.Exec(ctx, query, windowStart); err != nil {
		return fmt.Errorf("postgres: reset daily counter: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.CounterStore = (*CounterStore)(nil)
