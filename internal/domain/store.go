package domain

import (
	"context"
	"time"
)

// TradeStore persists the append-only trade log.
type TradeStore interface {
	Append(ctx context.Context, trade ClosedTrade) error
	// List returns the full log in insertion order, oldest first. An empty
	// or uninitialized store yields an empty slice, not an error.
	List(ctx context.Context) ([]ClosedTrade, error)
	// ListBefore returns log entries older than the cutoff, for archival.
	ListBefore(ctx context.Context, cutoff time.Time) ([]ClosedTrade, error)
}

// PositionStore persists the 0-or-1-element open position set.
type PositionStore interface {
	// Get returns the open position, or ErrNotFound when none is open.
	Get(ctx context.Context) (Position, error)
	Create(ctx context.Context, pos Position) error
	Delete(ctx context.Context, id string) error
}

// CounterStore persists the daily trade counter so restarts do not reset
// trading limits.
type CounterStore interface {
	// Get returns the counter, or a zero counter starting now when the
	// store is empty.
	Get(ctx context.Context) (DailyTradeCounter, error)
	Increment(ctx context.Context) (DailyTradeCounter, error)
	Reset(ctx context.Context, windowStart time.Time) error
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log of cycle decisions and gate
// verdicts.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, limit int) ([]AuditEntry, error)
}
