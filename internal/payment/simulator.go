package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Simulator approves every charge after a fixed delay without contacting a gateway.
// It backs the store's testing mode.
type Simulator struct {
	delay  time.Duration
	logger zerolog.Logger
}

// NewSimulator creates a simulated gateway that answers after delay.
func NewSimulator(delay time.Duration, logger zerolog.Logger) *Simulator {
	return &Simulator{
		delay:  delay,
		logger: logger.With().Str("gateway", "simulator").Logger(),
	}
}

// Charge waits for the configured delay and approves the charge.
func (s *Simulator) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	paymentID := "sim-" + uuid.NewString()

	s.logger.Info().
		Str("order_id", req.OrderID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Str("payment_id", paymentID).
		Msg("simulated payment approved")

	return &ChargeResult{Approved: true, PaymentID: paymentID}, nil
}
