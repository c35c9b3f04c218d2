// Package notify sends best-effort customer notifications.
package notify

import (
	"context"

	"pottery-store/internal/model"

	"github.com/rs/zerolog"
)

// Notifier informs customers about order events. Implementations must not block for long;
// callers ignore the returned error apart from logging it.
type Notifier interface {
	OrderCancelled(ctx context.Context, order *model.Order, refund *model.Refund) error
}

// LogNotifier records notifications in the log instead of delivering them.
type LogNotifier struct {
	from   string
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that logs each message.
func NewLogNotifier(from string, logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{
		from:   from,
		logger: logger.With().Str("component", "notifier").Logger(),
	}
}

// OrderCancelled logs the cancellation notice that would be sent to the customer.
func (n *LogNotifier) OrderCancelled(ctx context.Context, order *model.Order, refund *model.Refund) error {
	event := n.logger.Info().
		Str("from", n.from).
		Str("to", order.ContactEmail()).
		Str("order_id", order.ID.String())
	if refund != nil {
		event = event.Str("refund_amount", refund.Amount.StringFixed(2))
	}
	event.Msg("order cancellation notice")
	return nil
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// OrderCancelled does nothing.
func (NopNotifier) OrderCancelled(context.Context, *model.Order, *model.Refund) error {
	return nil
}
