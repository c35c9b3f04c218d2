package repository

import (
	"context"
	"testing"
	"time"

	"pottery-store/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAddress = model.Address{
	FullName:   "Ayse Yilmaz",
	Line1:      "Kiln Street 4",
	City:       "Izmir",
	PostalCode: "35000",
	Country:    "TR",
}

// insertPlainOrder writes a user order with no items and returns its ID.
func insertPlainOrder(t *testing.T, pool *pgxpool.Pool, status model.OrderStatus, total string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO orders (id, user_id, status, total, shipping_address) VALUES ($1, 'user-1', $2, $3, '{}')`,
		id, string(status), total)
	require.NoError(t, err)
	return id
}

// setupOrderTestDB creates a test database with two seeded products.
func setupOrderTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	pool, cleanup := setupTestDB(t)
	seedCategory(t, pool, "vases")
	seedProducts(t, pool, []model.Product{
		testProduct("P001", "Product A", "vases", "10.00", 10),
		testProduct("P002", "Product B", "vases", "20.00", 10),
	})
	return pool, cleanup
}

func newTestOrder(userID *string, guest *model.GuestContact, total string) *model.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Guest:           guest,
		Status:          model.StatusPending,
		Total:           decimal.RequireFromString(total),
		ShippingAddress: testAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestOrderRepository_BeginTx(t *testing.T) {
	pool, cleanup := setupOrderTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)

	require.NoError(t, err)
	require.NotNil(t, tx)

	err = tx.Rollback(ctx)
	assert.NoError(t, err)
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupOrderTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	userID := "user-42"
	guest := &model.GuestContact{Name: "Guest Buyer", Email: "guest@example.com", Phone: "+905550000000"}

	tests := []struct {
		name  string
		order *model.Order
	}{
		{
			name:  "Registered user order",
			order: newTestOrder(&userID, nil, "70.00"),
		},
		{
			name:  "Guest order",
			order: newTestOrder(nil, guest, "20.00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := repo.BeginTx(ctx)
			require.NoError(t, err)

			require.NoError(t, repo.CreateOrder(ctx, tx, tt.order))

			items := []model.OrderItem{
				{ID: uuid.New(), OrderID: tt.order.ID, ProductID: "P001", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
				{ID: uuid.New(), OrderID: tt.order.ID, ProductID: "P002", Quantity: 1, UnitPrice: decimal.NewFromInt(20)},
			}
			require.NoError(t, repo.CreateOrderItems(ctx, tx, items))
			require.NoError(t, tx.Commit(ctx))

			order, gotItems, err := repo.GetByID(ctx, tt.order.ID)
			require.NoError(t, err)
			require.NotNil(t, order)

			assert.Equal(t, tt.order.UserID, order.UserID)
			assert.Equal(t, tt.order.Guest, order.Guest)
			assert.Equal(t, model.StatusPending, order.Status)
			assert.True(t, tt.order.Total.Equal(order.Total))
			assert.Equal(t, testAddress, order.ShippingAddress)
			assert.Nil(t, order.PaymentID)

			require.Len(t, gotItems, 2)
			assert.Equal(t, "P001", gotItems[0].ProductID)
			assert.Equal(t, 2, gotItems[0].Quantity)
			assert.True(t, decimal.NewFromInt(10).Equal(gotItems[0].UnitPrice))
		})
	}

	t.Run("Order does not exist", func(t *testing.T) {
		order, items, err := repo.GetByID(ctx, uuid.New())

		require.NoError(t, err)
		assert.Nil(t, order)
		assert.Nil(t, items)
	})
}

func TestOrderRepository_CreateOrderItems_Empty(t *testing.T) {
	pool, cleanup := setupOrderTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	assert.NoError(t, repo.CreateOrderItems(ctx, tx, []model.OrderItem{}))
}

func TestOrderRepository_TransactionRollback(t *testing.T) {
	pool, cleanup := setupOrderTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	userID := "user-1"
	order := newTestOrder(&userID, nil, "10.00")
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, tx.Rollback(ctx))

	retrieved, _, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestOrderRepository_StatusUpdates(t *testing.T) {
	pool, cleanup := setupOrderTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	orderID := insertPlainOrder(t, pool, model.StatusPending, "10.00")

	t.Run("ClaimPayment", func(t *testing.T) {
		first, second := uuid.New(), uuid.New()

		claimed, err := repo.ClaimPayment(ctx, orderID, first)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = repo.ClaimPayment(ctx, orderID, second)
		require.NoError(t, err)
		assert.False(t, claimed, "held claim must block a second attempt")

		require.NoError(t, repo.ReleasePayment(ctx, orderID, second))
		claimed, err = repo.ClaimPayment(ctx, orderID, second)
		require.NoError(t, err)
		assert.False(t, claimed, "release by another attempt must not free the claim")

		require.NoError(t, repo.ReleasePayment(ctx, orderID, first))
		claimed, err = repo.ClaimPayment(ctx, orderID, second)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = repo.ClaimPayment(ctx, uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("MarkPaid", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)

		locked, _, err := repo.GetForUpdate(ctx, tx, orderID)
		require.NoError(t, err)
		require.NotNil(t, locked)

		require.NoError(t, repo.MarkPaid(ctx, tx, orderID, "pay-123"))
		require.NoError(t, tx.Commit(ctx))

		order, _, err := repo.GetByID(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusProcessing, order.Status)
		require.NotNil(t, order.PaymentID)
		assert.Equal(t, "pay-123", *order.PaymentID)

		claimed, err := repo.ClaimPayment(ctx, orderID, uuid.New())
		require.NoError(t, err)
		assert.False(t, claimed, "paid order cannot be claimed")
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)

		require.NoError(t, repo.UpdateStatus(ctx, tx, orderID, model.StatusShipped))
		require.NoError(t, tx.Commit(ctx))

		order, _, err := repo.GetByID(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusShipped, order.Status)
	})

	t.Run("Unknown order", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		assert.ErrorIs(t, repo.UpdateStatus(ctx, tx, uuid.New(), model.StatusShipped), model.ErrOrderNotFound)
		assert.ErrorIs(t, repo.MarkPaid(ctx, tx, uuid.New(), "x"), model.ErrOrderNotFound)
	})

	t.Run("GetForUpdate missing", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		order, items, err := repo.GetForUpdate(ctx, tx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, order)
		assert.Nil(t, items)
	})
}

func TestOrderRepository_List(t *testing.T) {
	pool, cleanup := setupOrderTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())

	insertPlainOrder(t, pool, model.StatusPending, "10.00")
	insertPlainOrder(t, pool, model.StatusPending, "20.00")
	insertPlainOrder(t, pool, model.StatusCancelled, "30.00")

	pending := model.StatusPending
	otherUser := "user-2"

	tests := []struct {
		name     string
		filter   model.OrderFilter
		expected int
	}{
		{name: "All orders", filter: model.OrderFilter{Limit: 10}, expected: 3},
		{name: "By status", filter: model.OrderFilter{Status: &pending, Limit: 10}, expected: 2},
		{name: "By other user", filter: model.OrderFilter{UserID: &otherUser, Limit: 10}, expected: 0},
		{name: "Paged", filter: model.OrderFilter{Limit: 1, Offset: 1}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := repo.List(context.Background(), tt.filter)

			require.NoError(t, err)
			assert.Len(t, orders, tt.expected)
		})
	}
}

func TestOrderRepository_StatsAndTopProducts(t *testing.T) {
	pool, cleanup := setupOrderTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	paid := insertPlainOrder(t, pool, model.StatusProcessing, "40.00")
	cancelled := insertPlainOrder(t, pool, model.StatusCancelled, "20.00")

	for _, row := range []struct {
		order    uuid.UUID
		product  string
		quantity int
		price    string
	}{
		{paid, "P001", 2, "10.00"},
		{paid, "P002", 1, "20.00"},
		{cancelled, "P002", 5, "20.00"},
	} {
		_, err := pool.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), row.order, row.product, row.quantity, row.price)
		require.NoError(t, err)
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO refunds (id, order_id, amount, method, status, processed_by) VALUES ($1, $2, '20.00', 'ORIGINAL_PAYMENT', 'PROCESSED', 'admin')`,
		uuid.New(), cancelled)
	require.NoError(t, err)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.True(t, decimal.NewFromInt(40).Equal(stats.Revenue))
	assert.True(t, decimal.NewFromInt(20).Equal(stats.RefundedAmount))
	assert.Equal(t, 1, stats.ByStatus[model.StatusProcessing])
	assert.Equal(t, 1, stats.ByStatus[model.StatusCancelled])
	assert.Equal(t, 0, stats.ByStatus[model.StatusShipped])

	top, err := repo.TopProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "P001", top[0].ProductID)
	assert.Equal(t, 2, top[0].UnitsSold)
	assert.True(t, decimal.NewFromInt(20).Equal(top[0].Revenue))
	assert.Equal(t, 1, top[1].UnitsSold)
}

func TestOrderRepository_ErrorPaths(t *testing.T) {
	pool, cleanup := setupOrderTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	// Close the pool to simulate database errors
	pool.Close()

	t.Run("BeginTx with closed pool", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)

		require.Error(t, err)
		assert.Nil(t, tx)
	})

	t.Run("GetByID with closed pool", func(t *testing.T) {
		order, items, err := repo.GetByID(ctx, uuid.New())

		require.Error(t, err)
		assert.Nil(t, order)
		assert.Nil(t, items)
	})

	t.Run("Stats with closed pool", func(t *testing.T) {
		stats, err := repo.Stats(ctx)

		require.Error(t, err)
		assert.Nil(t, stats)
	})
}
