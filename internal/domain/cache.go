package domain

import (
	"context"
	"time"
)

// PriceCache provides fast access to recently observed prices.
type PriceCache interface {
	SetPrice(ctx context.Context, asset string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, asset string) (float64, time.Time, error)
}

// LockManager provides distributed locking. The trading cycle takes a lock
// around its read-decide-write sequence so two agent instances cannot
// mutate the position set or trade log concurrently.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
