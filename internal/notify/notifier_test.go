package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
)

type recordingSender struct {
	name     string
	titles   []string
	messages []string
	err      error
}

func (r *recordingSender) Send(_ context.Context, title, message string) error {
	if r.err != nil {
		return r.err
	}
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingSender) Name() string { return r.name }

func TestNotifierDeliversToAllSenders(t *testing.T) {
	a := &recordingSender{name: "telegram"}
	b := &recordingSender{name: "discord"}
	n := NewNotifier([]Sender{a, b}, nil, slog.Default())

	n.PositionOpened(context.Background(), domain.Position{
		Asset:     "chainlink",
		Amount:    1.5,
		OpenPrice: 0.004,
		OpenedAt:  time.Now().UTC(),
	})

	assert.Equal(t, []string{"Position opened"}, a.titles)
	assert.Equal(t, []string{"Position opened"}, b.titles)
}

func TestNotifierFiltersEvents(t *testing.T) {
	s := &recordingSender{name: "telegram"}
	n := NewNotifier([]Sender{s}, []string{EventPositionClosed}, slog.Default())

	n.PositionOpened(context.Background(), domain.Position{Asset: "chainlink"})
	assert.Empty(t, s.titles)

	n.PositionClosed(context.Background(), domain.ClosedPosition{
		OpenPrice:        0.004,
		ClosePrice:       0.0042,
		ProfitLoss:       0.0002,
		PercentageChange: 0.05,
		Duration:         2 * time.Hour,
	}, "profit target")
	assert.Equal(t, []string{"Position closed"}, s.titles)
}

func TestNotifierSenderFailureDoesNotBlockOthers(t *testing.T) {
	broken := &recordingSender{name: "telegram", err: errors.New("bot token revoked")}
	healthy := &recordingSender{name: "discord"}
	n := NewNotifier([]Sender{broken, healthy}, nil, slog.Default())

	n.TradeRejected(context.Background(), domain.DecisionBuy, []string{"max trade amount exceeded"})

	assert.Empty(t, broken.titles)
	assert.Equal(t, []string{"Trade rejected"}, healthy.titles)
	assert.Contains(t, healthy.messages[0], "max trade amount exceeded")
}
