package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pottery-store/internal/config"
	"pottery-store/internal/metrics"
	"pottery-store/internal/model"
	"pottery-store/internal/payment"
	"pottery-store/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// paymentService implements PaymentService.
type paymentService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	gateway     payment.Gateway
	gatewayName string
	currency    string
	secretKey   string
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewPaymentService creates a payment service charging through gateway.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	gateway payment.Gateway,
	cfg config.PaymentConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) PaymentService {
	name := "iyzico"
	if cfg.Testing() {
		name = "simulator"
	}
	return &paymentService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		gateway:     gateway,
		gatewayName: name,
		currency:    cfg.Currency,
		secretKey:   cfg.SecretKey,
		metrics:     m,
		logger:      logger.With().Str("service", "payment").Str("gateway", name).Logger(),
	}
}

// Pay charges a PENDING order. The order is claimed first so concurrent requests
// cannot charge it twice. Approval moves it to PROCESSING; a decline cancels it
// and returns its stock. Gateway failures release the claim and leave the order PENDING.
func (s *paymentService) Pay(ctx context.Context, req *model.PaymentRequest) (_ *model.PaymentResponse, err error) {
	ctx, span := tracer.Start(ctx, "PaymentService.Pay")
	defer func() {
		if err != nil && !errors.Is(err, model.ErrPaymentDeclined) {
			spanError(span, err)
		}
		span.End()
	}()

	if req == nil || req.OrderID == uuid.Nil {
		return nil, model.NewValidationError("orderId", "order ID is required")
	}
	span.SetAttributes(attribute.String("order.id", req.OrderID.String()))

	order, err := loadOrder(ctx, s.orderRepo, s.productRepo, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.StatusPending {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("status", string(order.Status)).
			Msg("payment attempted for order that is not pending")
		return nil, model.ErrOrderNotPayable
	}

	attempt := uuid.New()
	claimed, err := s.orderRepo.ClaimPayment(ctx, order.ID, attempt)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.logger.Warn().Str("order_id", order.ID.String()).Msg("payment already in progress for order")
		return nil, model.ErrOrderNotPayable
	}

	result, err := s.gateway.Charge(ctx, s.chargeRequest(order, req))
	if err != nil {
		s.metrics.Payment(s.gatewayName, metrics.ResultError)
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("payment gateway call failed")

		if relErr := s.orderRepo.ReleasePayment(context.WithoutCancel(ctx), order.ID, attempt); relErr != nil {
			s.logger.Error().Err(relErr).Str("order_id", order.ID.String()).Msg("failed to release payment claim")
		}

		var ve *model.ValidationError
		if errors.As(err, &ve) || errors.Is(err, model.ErrPaymentNotConfigured) || errors.Is(err, model.ErrPaymentGateway) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentGateway, err)
	}

	if !result.Approved {
		s.metrics.Payment(s.gatewayName, metrics.ResultDeclined)
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("error_code", result.ErrorCode).
			Str("error_message", result.ErrorMessage).
			Msg("payment declined")

		if err := s.cancelUnpaid(ctx, order.ID); err != nil {
			return nil, err
		}
		return nil, &model.DeclinedError{Code: result.ErrorCode, Message: result.ErrorMessage}
	}

	s.metrics.Payment(s.gatewayName, metrics.ResultSuccess)

	status, err := s.markPaid(ctx, order.ID, result.PaymentID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("payment_id", result.PaymentID).
		Msg("payment approved")

	return &model.PaymentResponse{
		OrderID:   order.ID,
		PaymentID: result.PaymentID,
		Status:    status,
	}, nil
}

// HandleWebhook applies a signed gateway notification to its order.
func (s *paymentService) HandleWebhook(ctx context.Context, event *model.WebhookEvent, signature string) error {
	ctx, span := tracer.Start(ctx, "PaymentService.HandleWebhook")
	defer span.End()

	if event == nil || !payment.VerifyWebhook(s.secretKey, signature, *event) {
		s.logger.Warn().Msg("rejected webhook with invalid signature")
		return model.ErrInvalidSignature
	}

	orderID, err := uuid.Parse(event.ConversationID)
	if err != nil {
		return model.NewValidationError("conversationId", "conversation ID is not an order ID")
	}
	span.SetAttributes(attribute.String("order.id", orderID.String()))

	log := s.logger.With().
		Str("order_id", orderID.String()).
		Str("payment_id", event.PaymentID).
		Str("status", event.Status).
		Logger()

	switch strings.ToUpper(event.Status) {
	case payment.WebhookStatusSuccess:
		if _, err := s.markPaid(ctx, orderID, event.PaymentID); err != nil {
			if errors.Is(err, model.ErrOrderNotPayable) {
				log.Info().Msg("webhook for order no longer pending ignored")
				return nil
			}
			return err
		}
		log.Info().Msg("webhook marked order paid")
	case payment.WebhookStatusFailure:
		if err := s.cancelUnpaid(ctx, orderID); err != nil {
			return err
		}
		log.Info().Msg("webhook failure processed")
	default:
		log.Debug().Msg("webhook status ignored")
	}

	return nil
}

// markPaid moves a PENDING order to PROCESSING and returns the resulting status.
// An order that already carries paymentID is reported as is.
func (s *paymentService) markPaid(ctx context.Context, orderID uuid.UUID, paymentID string) (model.OrderStatus, error) {
	var status model.OrderStatus

	err := withTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		order, _, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		if order.Status != model.StatusPending {
			if order.PaymentID != nil && *order.PaymentID == paymentID {
				status = order.Status
				return nil
			}
			s.logger.Error().
				Str("order_id", orderID.String()).
				Str("status", string(order.Status)).
				Str("payment_id", paymentID).
				Msg("payment captured for order that is no longer pending")
			return model.ErrOrderNotPayable
		}

		if err := s.orderRepo.MarkPaid(ctx, tx, orderID, paymentID); err != nil {
			return err
		}
		status = model.StatusProcessing
		return nil
	})

	return status, err
}

// cancelUnpaid cancels a PENDING order after a failed payment and returns its stock.
// No refund is recorded because nothing was captured.
func (s *paymentService) cancelUnpaid(ctx context.Context, orderID uuid.UUID) error {
	return withTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		order, items, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return model.ErrOrderNotFound
		}
		if order.Status != model.StatusPending {
			return nil
		}

		if err := s.orderRepo.UpdateStatus(ctx, tx, orderID, model.StatusCancelled); err != nil {
			return err
		}
		return restoreStock(ctx, tx, s.productRepo, items)
	})
}

func (s *paymentService) chargeRequest(order *model.OrderResponse, req *model.PaymentRequest) payment.ChargeRequest {
	products := indexProducts(order.Products)

	items := make([]payment.ChargeItem, 0, len(order.Items))
	for _, item := range order.Items {
		p := products[item.ProductID]
		name := p.Name
		if name == "" {
			name = item.ProductID
		}
		items = append(items, payment.ChargeItem{
			ID:       item.ProductID,
			Name:     name,
			Category: p.CategoryID,
			Price:    item.Subtotal(),
		})
	}

	buyer := payment.Buyer{
		Name:  order.ShippingAddress.FullName,
		Email: order.ContactEmail(),
		Phone: order.ShippingAddress.Phone,
		IP:    req.ClientIP,
	}
	if order.UserID != nil {
		buyer.ID = *order.UserID
	}
	if order.Guest != nil {
		buyer.Name = order.Guest.Name
		if order.Guest.Phone != "" {
			buyer.Phone = order.Guest.Phone
		}
	}

	return payment.ChargeRequest{
		OrderID:         order.ID,
		Amount:          order.Total,
		Currency:        s.currency,
		Card:            req.Card,
		Buyer:           buyer,
		ShippingAddress: order.ShippingAddress,
		Items:           items,
	}
}
