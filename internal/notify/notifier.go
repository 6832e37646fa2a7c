// Package notify alerts operators about trade lifecycle events over
// Telegram and Discord. Delivery is best effort: the trading cycle never
// fails because a webhook is down.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

// Event types emitted by the trading cycle.
const (
	EventPositionOpened = "position_opened"
	EventPositionClosed = "position_closed"
	EventTradeRejected  = "trade_rejected"
	EventRebalanced     = "rebalanced"
)

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans events out to all configured senders, filtered by the
// allowed event set. An empty set allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a notifier delivering to the given senders, limited
// to the listed event types.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// PositionOpened reports a newly opened position.
func (n *Notifier) PositionOpened(ctx context.Context, pos domain.Position) {
	n.notify(ctx, EventPositionOpened, "Position opened",
		fmt.Sprintf("%s: %.6f units at %.6f (opened %s)",
			pos.Asset, pos.Amount, pos.OpenPrice,
			pos.OpenedAt.Format(time.RFC3339)))
}

// PositionClosed reports a closed position with its realized outcome.
func (n *Notifier) PositionClosed(ctx context.Context, closed domain.ClosedPosition, reason string) {
	n.notify(ctx, EventPositionClosed, "Position closed",
		fmt.Sprintf("%s: P/L %.6f (%.2f%%) after %s, %.6f -> %.6f",
			reason, closed.ProfitLoss, closed.PercentageChange,
			closed.Duration.Round(time.Second),
			closed.OpenPrice, closed.ClosePrice))
}

// TradeRejected reports a decision that the gate or daily cap refused.
func (n *Notifier) TradeRejected(ctx context.Context, decision domain.Decision, reasons []string) {
	n.notify(ctx, EventTradeRejected, "Trade rejected",
		fmt.Sprintf("%s blocked: %s", decision, strings.Join(reasons, "; ")))
}

// Rebalanced reports an executed portfolio rebalance.
func (n *Notifier) Rebalanced(ctx context.Context, direction domain.SwapDirection, amount float64) {
	n.notify(ctx, EventRebalanced, "Portfolio rebalanced",
		fmt.Sprintf("%s %.6f", direction, amount))
}

// notify applies the event filter and dispatches. Sender failures are
// logged and swallowed.
func (n *Notifier) notify(ctx context.Context, event, title, message string) {
	if len(n.events) > 0 && !n.events[event] {
		return
	}

	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.Warn("notification delivery failed",
				slog.String("sender", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			continue
		}
		n.logger.Debug("notification sent",
			slog.String("sender", s.Name()),
			slog.String("event", event),
		)
	}
}
