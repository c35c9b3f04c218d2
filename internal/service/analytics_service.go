package service

import (
	"context"
	"fmt"

	"pottery-store/internal/model"
	"pottery-store/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	topProductsLimit = 5
	lowStockLimit    = 20
)

// analyticsService implements AnalyticsService.
type analyticsService struct {
	orderRepo         repository.OrderRepository
	productRepo       repository.ProductRepository
	lowStockThreshold int
	logger            zerolog.Logger
}

// NewAnalyticsService creates the dashboard analytics service.
func NewAnalyticsService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	lowStockThreshold int,
	logger zerolog.Logger,
) AnalyticsService {
	return &analyticsService{
		orderRepo:         orderRepo,
		productRepo:       productRepo,
		lowStockThreshold: lowStockThreshold,
		logger:            logger.With().Str("service", "analytics").Logger(),
	}
}

// Summary computes the dashboard figures. Cancelled orders count towards totals
// and status counts but not towards revenue or product sales.
func (s *analyticsService) Summary(ctx context.Context) (*model.Analytics, error) {
	stats, err := s.orderRepo.Stats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to compute order stats")
		return nil, fmt.Errorf("failed to compute order stats: %w", err)
	}

	top, err := s.orderRepo.TopProducts(ctx, topProductsLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to compute top products")
		return nil, fmt.Errorf("failed to compute top products: %w", err)
	}

	lowStock, err := s.productRepo.ListLowStock(ctx, s.lowStockThreshold, lowStockLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list low stock products")
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}

	average := decimal.Zero
	if paid := stats.TotalOrders - stats.ByStatus[model.StatusCancelled]; paid > 0 {
		average = stats.Revenue.Div(decimal.NewFromInt(int64(paid))).Round(2)
	}

	return &model.Analytics{
		TotalOrders:       stats.TotalOrders,
		Revenue:           stats.Revenue,
		AverageOrderValue: average,
		RefundedAmount:    stats.RefundedAmount,
		OrdersByStatus:    stats.ByStatus,
		TopProducts:       top,
		LowStock:          lowStock,
	}, nil
}
