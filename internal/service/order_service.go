package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"pottery-store/internal/metrics"
	"pottery-store/internal/model"
	"pottery-store/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		metrics:     m,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Checkout places an order. Stock is checked and decremented under row locks,
// so either the order exists and every line's stock was reduced, or nothing changed.
func (s *orderService) Checkout(ctx context.Context, req *model.CheckoutRequest) (_ *model.OrderResponse, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Checkout")
	defer func() {
		if err != nil {
			spanError(span, err)
		}
		span.End()
	}()

	lines, err := s.validateCheckout(req)
	if err != nil {
		s.metrics.Checkout(metrics.ResultRejected)
		return nil, err
	}

	span.SetAttributes(attribute.Int("order.lines", len(lines)))

	productIDs := make([]string, len(lines))
	for i, line := range lines {
		productIDs[i] = line.ProductID
	}
	sort.Strings(productIDs)

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.metrics.Checkout(metrics.ResultError)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	products, err := s.productRepo.LockByIDs(ctx, tx, productIDs)
	if err != nil {
		s.metrics.Checkout(metrics.ResultError)
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	byID := indexProducts(products)

	now := time.Now().UTC()
	order := &model.Order{
		ID:              uuid.New(),
		UserID:          req.UserID,
		Guest:           req.Guest,
		Status:          model.StatusPending,
		ShippingAddress: req.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.UserID != nil {
		order.Guest = nil
	}

	items, total, err := s.priceLines(lines, byID, order.ID)
	if err != nil {
		s.metrics.Checkout(metrics.ResultRejected)
		return nil, err
	}
	order.Total = total

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.metrics.Checkout(metrics.ResultError)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.metrics.Checkout(metrics.ResultError)
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	for _, item := range items {
		if err = s.productRepo.AdjustStock(ctx, tx, item.ProductID, -item.Quantity); err != nil {
			s.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Str("product_id", item.ProductID).
				Msg("failed to decrement stock")
			s.metrics.Checkout(metrics.ResultError)
			if errors.Is(err, model.ErrInsufficientStock) {
				p := byID[item.ProductID]
				return nil, &model.InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   item.Quantity,
					Available:   p.Stock,
				}
			}
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		s.metrics.Checkout(metrics.ResultError)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.metrics.Checkout(metrics.ResultSuccess)
	span.SetAttributes(attribute.String("order.id", order.ID.String()))

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(items)).
		Str("total", order.Total.StringFixed(2)).
		Bool("guest", order.IsGuest()).
		Msg("order created successfully")

	for i := range products {
		products[i].Stock -= quantityOf(items, products[i].ID)
	}

	return &model.OrderResponse{
		Order:    *order,
		Items:    items,
		Products: products,
	}, nil
}

// priceLines checks each line against the locked products and builds the order items.
func (s *orderService) priceLines(
	lines []model.CartItem,
	byID map[string]model.Product,
	orderID uuid.UUID,
) ([]model.OrderItem, decimal.Decimal, error) {
	items := make([]model.OrderItem, 0, len(lines))
	total := decimal.Zero

	for _, line := range lines {
		p, ok := byID[line.ProductID]
		if !ok {
			s.logger.Warn().Str("product_id", line.ProductID).Msg("checkout references unknown product")
			return nil, decimal.Zero, model.ErrProductNotFound
		}

		if line.Quantity > p.Stock {
			s.logger.Warn().
				Str("product_id", p.ID).
				Int("requested", line.Quantity).
				Int("available", p.Stock).
				Msg("insufficient stock")
			return nil, decimal.Zero, &model.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   line.Quantity,
				Available:   p.Stock,
			}
		}

		if line.Price != nil && !line.Price.Equal(p.Price) {
			s.logger.Warn().
				Str("product_id", p.ID).
				Str("client_price", line.Price.String()).
				Str("price", p.Price.String()).
				Msg("cart price is stale")
			return nil, decimal.Zero, model.ErrPriceMismatch
		}

		item := model.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: p.ID,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
		}
		total = total.Add(item.Subtotal())
		items = append(items, item)
	}

	return items, total, nil
}

// GetByID retrieves an order by its ID with all items and product details.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID, userID *string) (*model.OrderResponse, error) {
	resp, err := loadOrder(ctx, s.orderRepo, s.productRepo, id)
	if err != nil {
		if !errors.Is(err, model.ErrOrderNotFound) {
			s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		}
		return nil, err
	}

	if resp.UserID != nil && (userID == nil || *userID != *resp.UserID) {
		s.logger.Debug().Str("order_id", id.String()).Msg("order belongs to another user")
		return nil, model.ErrOrderNotFound
	}

	return resp, nil
}

// ListForUser retrieves a user's orders, newest first.
func (s *orderService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, model.NewValidationError("userId", "user ID is required")
	}

	limit, offset = clampPage(limit, offset)
	orders, err := s.orderRepo.List(ctx, model.OrderFilter{UserID: &userID, Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// validateCheckout validates the request and returns its merged lines.
func (s *orderService) validateCheckout(req *model.CheckoutRequest) ([]model.CartItem, error) {
	if req == nil {
		return nil, model.NewValidationError("", "request body is required")
	}

	lines, err := mergeCartItems(req.Items)
	if err != nil {
		s.logger.Warn().Err(err).Msg("invalid cart")
		return nil, err
	}

	if req.UserID != nil && strings.TrimSpace(*req.UserID) == "" {
		req.UserID = nil
	}
	if req.UserID == nil {
		if req.Guest == nil {
			return nil, model.NewValidationError("guest", "guest contact is required without a signed-in user")
		}
		if strings.TrimSpace(req.Guest.Name) == "" {
			return nil, model.NewValidationError("guest.name", "name is required")
		}
		if _, err := mail.ParseAddress(req.Guest.Email); err != nil {
			return nil, model.NewValidationError("guest.email", "a valid email is required")
		}
	}

	addr := req.ShippingAddress
	required := []struct {
		field string
		value string
	}{
		{"shippingAddress.fullName", addr.FullName},
		{"shippingAddress.line1", addr.Line1},
		{"shippingAddress.city", addr.City},
		{"shippingAddress.country", addr.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, model.NewValidationError(r.field, "%s is required", r.field)
		}
	}

	return lines, nil
}

// loadOrder fetches an order with its items and the products they reference.
func loadOrder(
	ctx context.Context,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	id uuid.UUID,
) (*model.OrderResponse, error) {
	order, items, err := orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	productIDs := make([]string, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}

	products, err := productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve product details: %w", err)
	}

	return &model.OrderResponse{
		Order:    *order,
		Items:    items,
		Products: products,
	}, nil
}

func quantityOf(items []model.OrderItem, productID string) int {
	for _, item := range items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// spanError marks span as failed with err.
func spanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
