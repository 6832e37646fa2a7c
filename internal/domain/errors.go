package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientData    = errors.New("insufficient data")
	ErrDataUnavailable     = errors.New("market data unavailable")
	ErrRiskDataUnavailable = errors.New("risk data unavailable")
	ErrExecutionFailed     = errors.New("swap execution failed")
	ErrPositionOpen        = errors.New("position already open")
	ErrNoOpenPosition      = errors.New("no open position")
	ErrDailyLimitReached   = errors.New("daily trade limit reached")
	ErrNotAuthorized       = errors.New("trade not authorized")
	ErrLockHeld            = errors.New("lock already held")
)
