package service

import (
	"context"
	"io"

	"pottery-store/internal/model"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

// Page size limits for catalogue and order listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var tracer = otel.Tracer("pottery-store/internal/service")

// ProductService defines operations for product management.
type ProductService interface {
	// List retrieves products matching the filter. Limit is clamped to 1..MaxPageSize.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, id string, req *model.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}

// CategoryService defines operations for category management.
type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, req *model.CategoryRequest) (*model.Category, error)
}

// CartService prices client-held carts.
type CartService interface {
	// Quote prices the cart against the live catalogue without reserving stock.
	Quote(ctx context.Context, req *model.QuoteRequest) (*model.Quote, error)
}

// OrderService defines customer-facing order operations.
type OrderService interface {
	// Checkout checks stock, creates the order and decrements stock in one transaction.
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.OrderResponse, error)

	// GetByID retrieves an order with its items and product details.
	// Orders that belong to another user are reported as not found.
	GetByID(ctx context.Context, id uuid.UUID, userID *string) (*model.OrderResponse, error)

	// ListForUser retrieves a user's orders, newest first.
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)
}

// PaymentService charges orders and applies gateway notifications.
type PaymentService interface {
	Pay(ctx context.Context, req *model.PaymentRequest) (*model.PaymentResponse, error)
	HandleWebhook(ctx context.Context, event *model.WebhookEvent, signature string) error
}

// AdminOrderService defines the admin order management operations.
type AdminOrderService interface {
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)

	// UpdateStatus moves an order to req.Status. CANCELLED is delegated to Cancel.
	UpdateStatus(ctx context.Context, id uuid.UUID, req *model.StatusUpdateRequest, actor string) (*model.Order, error)

	// Cancel cancels an order, restores its stock and records a refund in one transaction.
	Cancel(ctx context.Context, id uuid.UUID, req *model.CancelRequest, actor string) (*model.CancelResult, error)

	// Refunds lists the refunds recorded for an order.
	Refunds(ctx context.Context, id uuid.UUID) ([]model.Refund, error)
}

// BulkUploadService imports products from CSV files.
type BulkUploadService interface {
	// Upload parses a CSV stream and inserts every valid row.
	Upload(ctx context.Context, r io.Reader) (*model.BulkUploadResult, error)

	// Import loads a CSV from the configured storage and inserts every valid row.
	Import(ctx context.Context, key string) (*model.BulkUploadResult, error)
}

// AnalyticsService computes the admin dashboard figures.
type AnalyticsService interface {
	Summary(ctx context.Context) (*model.Analytics, error)
}

// clampPage normalises pagination parameters.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
