package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"pottery-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// paymentClaimTTL bounds how long a crashed charge attempt blocks an order.
const paymentClaimTTL = "15 minutes"

const orderColumns = `id, user_id, guest, status, total::text, shipping_address, payment_id, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new read-committed transaction.
// Stock consistency comes from the row locks taken inside it, not from the isolation level.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, guest, status, total, shipping_address, payment_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var guest []byte
	if order.Guest != nil {
		var err error
		if guest, err = json.Marshal(order.Guest); err != nil {
			return fmt.Errorf("failed to encode guest contact: %w", err)
		}
	}

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to encode shipping address: %w", err)
	}

	_, err = tx.Exec(ctx, query,
		order.ID,
		order.UserID,
		guest,
		string(order.Status),
		order.Total.String(),
		address,
		order.PaymentID,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice.String())
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return r.getOrder(ctx, r.pool, id, false)
}

// GetForUpdate retrieves an order inside tx and locks its row.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	return r.getOrder(ctx, tx, id, true)
}

func (r *orderRepository) getOrder(ctx context.Context, q Querier, id uuid.UUID, lock bool) (*model.Order, []model.OrderItem, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		orderQuery += ` FOR UPDATE`
	}

	order, err := scanOrder(q.QueryRow(ctx, orderQuery, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, product_id, quantity, unit_price::text
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id
	`

	rows, err := q.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var (
			item  model.OrderItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &price); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if item.UnitPrice, err = parseDecimal("unit_price", price); err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return &order, items, nil
}

// List retrieves orders matching the filter, newest first.
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR user_id = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`

	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}

	rows, err := r.pool.Query(ctx, query, status, filter.UserID, filter.Limit, filter.Offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus sets an order's status within the provided transaction.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Str("status", string(status)).Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// ClaimPayment reserves a PENDING order for attempt. A claim older than
// paymentClaimTTL is treated as abandoned and may be taken over.
func (r *orderRepository) ClaimPayment(ctx context.Context, id, attempt uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET payment_attempt = $2, attempted_at = NOW()
		WHERE id = $1 AND status = $3
		  AND (payment_attempt IS NULL OR attempted_at < NOW() - INTERVAL '`+paymentClaimTTL+`')`,
		id, attempt, string(model.StatusPending),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to claim order for payment")
		return false, fmt.Errorf("failed to claim order for payment: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ReleasePayment clears the claim held by attempt so the order can be charged again.
func (r *orderRepository) ReleasePayment(ctx context.Context, id, attempt uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_attempt = NULL, attempted_at = NULL WHERE id = $1 AND payment_attempt = $2`,
		id, attempt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to release payment claim")
		return fmt.Errorf("failed to release payment claim: %w", err)
	}
	return nil
}

// MarkPaid moves an order to PROCESSING and records the gateway payment ID.
func (r *orderRepository) MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, paymentID string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, payment_id = $3, updated_at = NOW() WHERE id = $1`,
		id, string(model.StatusProcessing), paymentID,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order paid")
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// Stats computes aggregate order figures.
func (r *orderRepository) Stats(ctx context.Context) (*model.OrderStats, error) {
	stats := &model.OrderStats{ByStatus: make(map[model.OrderStatus]int, len(model.AllStatuses))}
	for _, s := range model.AllStatuses {
		stats.ByStatus[s] = 0
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total), 0)::text
		FROM orders
		GROUP BY status
	`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order stats")
		return nil, fmt.Errorf("failed to query order stats: %w", err)
	}
	defer rows.Close()

	revenue := decimal.Zero
	for rows.Next() {
		var (
			status string
			count  int
			sum    string
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan order stats: %w", err)
		}
		total, err := parseDecimal("total", sum)
		if err != nil {
			return nil, err
		}
		stats.ByStatus[model.OrderStatus(status)] = count
		stats.TotalOrders += count
		if model.OrderStatus(status) != model.StatusCancelled {
			revenue = revenue.Add(total)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order stats: %w", err)
	}
	stats.Revenue = revenue

	var refunded string
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::text FROM refunds`).Scan(&refunded); err != nil {
		r.logger.Error().Err(err).Msg("failed to query refunded amount")
		return nil, fmt.Errorf("failed to query refunded amount: %w", err)
	}
	if stats.RefundedAmount, err = parseDecimal("amount", refunded); err != nil {
		return nil, err
	}

	return stats, nil
}

// TopProducts returns the best selling products across non-cancelled orders.
func (r *orderRepository) TopProducts(ctx context.Context, limit int) ([]model.ProductSales, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, SUM(oi.quantity), SUM(oi.quantity * oi.unit_price)::text
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.status <> $1
		GROUP BY p.id, p.name
		ORDER BY SUM(oi.quantity) DESC, p.name
		LIMIT $2
	`, string(model.StatusCancelled), limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query top products")
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	sales := []model.ProductSales{}
	for rows.Next() {
		var (
			s       model.ProductSales
			revenue string
		)
		if err := rows.Scan(&s.ProductID, &s.Name, &s.UnitsSold, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan product sales: %w", err)
		}
		if s.Revenue, err = parseDecimal("revenue", revenue); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product sales: %w", err)
	}

	return sales, nil
}

// scanOrder scans a row selected with orderColumns.
func scanOrder(row rowScanner) (model.Order, error) {
	var (
		o       model.Order
		guest   []byte
		status  string
		total   string
		address []byte
	)
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&guest,
		&status,
		&total,
		&address,
		&o.PaymentID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}

	o.Status = model.OrderStatus(status)
	if o.Total, err = parseDecimal("total", total); err != nil {
		return o, err
	}
	if len(guest) > 0 {
		o.Guest = &model.GuestContact{}
		if err := json.Unmarshal(guest, o.Guest); err != nil {
			return o, fmt.Errorf("invalid guest contact: %w", err)
		}
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return o, fmt.Errorf("invalid shipping address: %w", err)
	}

	return o, nil
}
