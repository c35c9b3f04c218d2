package repository

import (
	"context"

	"pottery-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxBeginner starts database transactions.
type TxBeginner interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves products matching the filter with pagination support.
	GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. It returns nil when the product does not exist.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// LockByIDs reads the given products inside tx and holds row locks on them until the
	// transaction ends. Rows are locked in ID order.
	LockByIDs(ctx context.Context, tx pgx.Tx, ids []string) ([]model.Product, error)

	// AdjustStock adds delta (which may be negative) to a product's stock inside tx.
	// It returns model.ErrInsufficientStock if the result would be negative.
	AdjustStock(ctx context.Context, tx pgx.Tx, id string, delta int) error

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// CreateBatch inserts multiple products within the provided transaction.
	CreateBatch(ctx context.Context, tx pgx.Tx, products []model.Product) error

	// Update replaces a product's editable fields.
	Update(ctx context.Context, product *model.Product) error

	// Delete removes a product.
	Delete(ctx context.Context, id string) error

	// ListLowStock returns products whose stock is at or below threshold, lowest first.
	ListLowStock(ctx context.Context, threshold, limit int) ([]model.Product, error)
}

// CategoryRepository defines the interface for category data access operations.
type CategoryRepository interface {
	GetAll(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, category *model.Category) error

	// ExistingIDs returns the subset of ids that exist.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	// It returns a nil order when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetForUpdate is GetByID inside tx with the order row locked.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// List retrieves orders matching the filter, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// UpdateStatus sets an order's status within the provided transaction.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error

	// ClaimPayment reserves a PENDING order for one charge attempt. It reports
	// false when the order is not pending or another attempt holds it.
	ClaimPayment(ctx context.Context, id, attempt uuid.UUID) (bool, error)

	// ReleasePayment drops the claim taken by attempt.
	ReleasePayment(ctx context.Context, id, attempt uuid.UUID) error

	// MarkPaid moves an order to PROCESSING and records the gateway payment ID.
	MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, paymentID string) error

	// Stats computes aggregate order figures.
	Stats(ctx context.Context) (*model.OrderStats, error)

	// TopProducts returns the best selling products across non-cancelled orders.
	TopProducts(ctx context.Context, limit int) ([]model.ProductSales, error)
}

// RefundRepository defines the interface for refund data access operations.
type RefundRepository interface {
	// Create inserts a refund within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, refund *model.Refund) error

	// GetByOrderID returns the refund written for an order, or nil.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Refund, error)
}
