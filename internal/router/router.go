package router

import (
	"context"
	"net/http"
	"time"

	"pottery-store/internal/handler"
	"pottery-store/internal/metrics"
	"pottery-store/internal/middleware"

	"github.com/rs/zerolog"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Products   *handler.ProductHandler
	Categories *handler.CategoryHandler
	Orders     *handler.OrderHandler
	Payments   *handler.PaymentHandler
	Admin      *handler.AdminHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// Routes under /api/admin require an X-API-Key matching adminKeyHash.
func New(h Handlers, adminKeyHash string, db Pinger, m *metrics.Metrics, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				logger.Error().Err(err).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	// Storefront
	mux.HandleFunc("GET /api/products", h.Products.List)
	mux.HandleFunc("GET /api/products/{id}", h.Products.GetByID)
	mux.HandleFunc("GET /api/categories", h.Categories.List)
	mux.HandleFunc("GET /api/categories/{id}", h.Categories.GetByID)
	mux.HandleFunc("POST /api/cart/quote", h.Orders.Quote)
	mux.HandleFunc("POST /api/orders", h.Orders.Checkout)
	mux.HandleFunc("GET /api/orders", h.Orders.List)
	mux.HandleFunc("GET /api/orders/{id}", h.Orders.GetByID)
	mux.HandleFunc("POST /api/payments", h.Payments.Pay)
	mux.HandleFunc("POST /api/payments/webhook", h.Payments.Webhook)

	// Admin
	auth := middleware.AdminAuth(adminKeyHash, logger)
	admin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth(fn))
	}
	admin("POST /api/admin/products", h.Products.Create)
	admin("PUT /api/admin/products/{id}", h.Products.Update)
	admin("DELETE /api/admin/products/{id}", h.Products.Delete)
	admin("POST /api/admin/products/bulk", h.Admin.BulkUpload)
	admin("POST /api/admin/products/bulk/import", h.Admin.ImportProducts)
	admin("POST /api/admin/categories", h.Categories.Create)
	admin("GET /api/admin/orders", h.Admin.ListOrders)
	admin("GET /api/admin/orders/{id}", h.Admin.GetOrder)
	admin("PATCH /api/admin/orders/{id}/status", h.Admin.UpdateStatus)
	admin("POST /api/admin/orders/{id}/cancel", h.Admin.Cancel)
	admin("GET /api/admin/orders/{id}/refunds", h.Admin.Refunds)
	admin("GET /api/admin/analytics", h.Admin.Analytics)

	// Apply middleware in order: RequestID -> Logging -> Metrics -> Recovery -> CORS
	// Recovery sits inside the others so a recovered panic is logged, counted and
	// carries the request ID.
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Metrics(m)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(logger)(handler)

	return handler
}
