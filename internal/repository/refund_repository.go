package repository

import (
	"context"
	"fmt"

	"pottery-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// refundRepository implements the RefundRepository interface using PostgreSQL.
type refundRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRefundRepository creates a new PostgreSQL-backed refund repository.
func NewRefundRepository(pool *pgxpool.Pool, logger zerolog.Logger) RefundRepository {
	return &refundRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "refund").Logger(),
	}
}

// Create inserts a refund within the provided transaction.
func (r *refundRepository) Create(ctx context.Context, tx pgx.Tx, refund *model.Refund) error {
	query := `
		INSERT INTO refunds (id, order_id, amount, reason, method, status, processed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		refund.ID,
		refund.OrderID,
		refund.Amount.String(),
		refund.Reason,
		refund.Method,
		string(refund.Status),
		refund.ProcessedBy,
		refund.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", refund.OrderID.String()).
			Msg("failed to create refund")
		return fmt.Errorf("failed to create refund: %w", err)
	}

	r.logger.Info().
		Str("order_id", refund.OrderID.String()).
		Str("amount", refund.Amount.StringFixed(2)).
		Msg("refund recorded")

	return nil
}

// GetByOrderID returns the refund written for an order, or nil.
func (r *refundRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Refund, error) {
	query := `
		SELECT id, order_id, amount::text, reason, method, status, processed_by, created_at
		FROM refunds
		WHERE order_id = $1
	`

	var (
		refund model.Refund
		amount string
		status string
	)
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&refund.ID,
		&refund.OrderID,
		&amount,
		&refund.Reason,
		&refund.Method,
		&status,
		&refund.ProcessedBy,
		&refund.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query refund")
		return nil, fmt.Errorf("failed to query refund: %w", err)
	}

	refund.Status = model.RefundStatus(status)
	if refund.Amount, err = parseDecimal("amount", amount); err != nil {
		return nil, err
	}

	return &refund, nil
}
