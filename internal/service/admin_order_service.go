package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pottery-store/internal/metrics"
	"pottery-store/internal/model"
	"pottery-store/internal/notify"
	"pottery-store/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const notifyTimeout = 10 * time.Second

// adminOrderService implements AdminOrderService.
type adminOrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	refundRepo  repository.RefundRepository
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewAdminOrderService creates the admin order manager.
func NewAdminOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	refundRepo repository.RefundRepository,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) AdminOrderService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &adminOrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		refundRepo:  refundRepo,
		notifier:    notifier,
		metrics:     m,
		logger:      logger.With().Str("service", "admin_order").Logger(),
	}
}

// List retrieves orders across all customers, newest first.
func (s *adminOrderService) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// GetByID retrieves any order with its items and product details.
func (s *adminOrderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	return loadOrder(ctx, s.orderRepo, s.productRepo, id)
}

// UpdateStatus moves an order along its lifecycle.
func (s *adminOrderService) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	req *model.StatusUpdateRequest,
	actor string,
) (*model.Order, error) {
	if req == nil || !req.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	if req.Status == model.StatusCancelled {
		result, err := s.Cancel(ctx, id, &model.CancelRequest{Reason: req.Reason}, actor)
		if err != nil {
			return nil, err
		}
		return &result.Order, nil
	}

	var updated *model.Order
	err := withTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		order, _, err := s.orderRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		if order.Status == req.Status {
			updated = order
			return nil
		}
		if !order.Status.CanTransitionTo(req.Status) {
			s.logger.Warn().
				Str("order_id", id.String()).
				Str("from", string(order.Status)).
				Str("to", string(req.Status)).
				Msg("rejected status transition")
			return model.ErrInvalidTransition
		}

		if err := s.orderRepo.UpdateStatus(ctx, tx, id, req.Status); err != nil {
			return err
		}

		s.logger.Info().
			Str("order_id", id.String()).
			Str("from", string(order.Status)).
			Str("to", string(req.Status)).
			Str("actor", actor).
			Msg("order status updated")

		order.Status = req.Status
		order.UpdatedAt = time.Now().UTC()
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Cancel cancels an order, returns its stock and records a refund.
// Cancelling an order that is already cancelled returns the refund written the first time.
func (s *adminOrderService) Cancel(
	ctx context.Context,
	id uuid.UUID,
	req *model.CancelRequest,
	actor string,
) (_ *model.CancelResult, err error) {
	ctx, span := tracer.Start(ctx, "AdminOrderService.Cancel")
	defer func() {
		if err != nil {
			spanError(span, err)
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("order.id", id.String()))

	if req == nil {
		req = &model.CancelRequest{}
	}
	if strings.TrimSpace(actor) == "" {
		actor = "admin"
	}

	var (
		result  *model.CancelResult
		created bool
	)

	err = withTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		order, items, err := s.orderRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		if order.Status == model.StatusCancelled {
			refund, err := s.refundRepo.GetByOrderID(ctx, id)
			if err != nil {
				return err
			}
			result = &model.CancelResult{Order: *order, Refund: refund}
			return nil
		}

		if !order.Status.CanTransitionTo(model.StatusCancelled) {
			return model.ErrInvalidTransition
		}

		amount, err := refundAmount(req.Amount, order.Total)
		if err != nil {
			return err
		}

		if err := s.orderRepo.UpdateStatus(ctx, tx, id, model.StatusCancelled); err != nil {
			return err
		}

		if err := restoreStock(ctx, tx, s.productRepo, items); err != nil {
			return err
		}

		method := strings.TrimSpace(req.Method)
		if method == "" {
			method = model.DefaultRefundMethod
		}

		now := time.Now().UTC()
		refund := &model.Refund{
			ID:          uuid.New(),
			OrderID:     id,
			Amount:      amount,
			Reason:      strings.TrimSpace(req.Reason),
			Method:      method,
			Status:      model.RefundPending,
			ProcessedBy: actor,
			CreatedAt:   now,
		}
		if err := s.refundRepo.Create(ctx, tx, refund); err != nil {
			return err
		}

		order.Status = model.StatusCancelled
		order.UpdatedAt = now
		result = &model.CancelResult{Order: *order, Refund: refund}
		created = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, model.ErrOrderNotFound) {
			s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to cancel order")
		}
		return nil, err
	}

	if !created {
		s.logger.Debug().Str("order_id", id.String()).Msg("order already cancelled")
		return result, nil
	}

	s.metrics.Cancellation(result.Refund.Amount.InexactFloat64())

	s.logger.Info().
		Str("order_id", id.String()).
		Str("refund_id", result.Refund.ID.String()).
		Str("amount", result.Refund.Amount.StringFixed(2)).
		Str("actor", actor).
		Msg("order cancelled")

	s.notifyCancelled(ctx, result)

	return result, nil
}

// Refunds lists the refunds recorded for an order.
func (s *adminOrderService) Refunds(ctx context.Context, id uuid.UUID) ([]model.Refund, error) {
	order, _, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	refund, err := s.refundRepo.GetByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}

	refunds := []model.Refund{}
	if refund != nil {
		refunds = append(refunds, *refund)
	}
	return refunds, nil
}

// notifyCancelled sends the cancellation notice without holding up the caller.
func (s *adminOrderService) notifyCancelled(ctx context.Context, result *model.CancelResult) {
	order := result.Order
	refund := *result.Refund

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := s.notifier.OrderCancelled(ctx, &order, &refund); err != nil {
			s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to send cancellation notice")
		}
	}()
}

// refundAmount resolves the requested refund against the order total.
// A nil request refunds the full total.
func refundAmount(requested *decimal.Decimal, total decimal.Decimal) (decimal.Decimal, error) {
	if requested == nil {
		return total, nil
	}
	if !requested.IsPositive() || requested.GreaterThan(total) {
		return decimal.Zero, model.ErrInvalidRefundAmount
	}
	return requested.Round(2), nil
}
