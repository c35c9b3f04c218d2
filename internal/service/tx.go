package service

import (
	"context"
	"fmt"

	"pottery-store/internal/model"
	"pottery-store/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// withTx runs fn in a transaction, committing when fn succeeds and rolling back otherwise.
func withTx(
	ctx context.Context,
	db repository.TxBeginner,
	logger zerolog.Logger,
	fn func(tx pgx.Tx) error,
) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// restoreStock returns each item's quantity to its product inside tx.
func restoreStock(ctx context.Context, tx pgx.Tx, productRepo repository.ProductRepository, items []model.OrderItem) error {
	for _, item := range items {
		if err := productRepo.AdjustStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("failed to restore stock for %s: %w", item.ProductID, err)
		}
	}
	return nil
}
