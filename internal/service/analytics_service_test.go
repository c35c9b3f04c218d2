package service

import (
	"context"
	"errors"
	"testing"

	"pottery-store/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsService_Summary(t *testing.T) {
	ctx := context.Background()

	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	service := NewAnalyticsService(mockOrders, mockProducts, 3, zerolog.Nop())

	stats := &model.OrderStats{
		TotalOrders:    4,
		Revenue:        decimal.RequireFromString("100.00"),
		RefundedAmount: decimal.RequireFromString("30.00"),
		ByStatus: map[model.OrderStatus]int{
			model.StatusPending:   2,
			model.StatusShipped:   1,
			model.StatusCancelled: 1,
		},
	}
	top := []model.ProductSales{{ProductID: "A", Name: "Mug", UnitsSold: 7}}
	low := []model.Product{{ID: "B", Stock: 1}}

	mockOrders.On("Stats", ctx).Return(stats, nil)
	mockOrders.On("TopProducts", ctx, 5).Return(top, nil)
	mockProducts.On("ListLowStock", ctx, 3, 20).Return(low, nil)

	summary, err := service.Summary(ctx)

	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalOrders)
	assert.True(t, decimal.RequireFromString("33.33").Equal(summary.AverageOrderValue))
	assert.True(t, decimal.NewFromInt(30).Equal(summary.RefundedAmount))
	assert.Equal(t, 1, summary.OrdersByStatus[model.StatusCancelled])
	assert.Equal(t, top, summary.TopProducts)
	assert.Equal(t, low, summary.LowStock)
}

func TestAnalyticsService_Summary_NoOrders(t *testing.T) {
	ctx := context.Background()

	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	service := NewAnalyticsService(mockOrders, mockProducts, 5, zerolog.Nop())

	mockOrders.On("Stats", ctx).Return(&model.OrderStats{ByStatus: map[model.OrderStatus]int{}}, nil)
	mockOrders.On("TopProducts", ctx, 5).Return([]model.ProductSales{}, nil)
	mockProducts.On("ListLowStock", ctx, 5, 20).Return([]model.Product{}, nil)

	summary, err := service.Summary(ctx)

	require.NoError(t, err)
	assert.True(t, summary.AverageOrderValue.IsZero())
}

func TestAnalyticsService_Summary_Error(t *testing.T) {
	ctx := context.Background()

	mockOrders := new(MockOrderRepository)
	service := NewAnalyticsService(mockOrders, new(MockProductRepository), 5, zerolog.Nop())

	mockOrders.On("Stats", ctx).Return(nil, errors.New("database error"))

	summary, err := service.Summary(ctx)
	require.Error(t, err)
	assert.Nil(t, summary)
}
