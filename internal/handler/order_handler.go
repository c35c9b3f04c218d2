package handler

import (
	"net/http"

	"pottery-store/internal/model"
	"pottery-store/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles customer order and cart HTTP requests.
type OrderHandler struct {
	orders service.OrderService
	cart   service.CartService
	logger zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, cart service.CartService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		cart:   cart,
		logger: logger.With().Str("handler", "order").Logger(),
	}
}

// Quote handles POST /api/cart/quote requests.
func (h *OrderHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req model.QuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, err.Error(), h.logger)
		return
	}

	quote, err := h.cart.Quote(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// Checkout handles POST /api/orders requests.
// Signed-in customers are identified by X-User-ID; everyone else must supply guest contact details.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, err.Error(), h.logger)
		return
	}
	req.UserID = userID(r)

	order, err := h.orders.Checkout(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.orders.GetByID(r.Context(), orderID, userID(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// List handles GET /api/orders requests for the signed-in customer.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == nil {
		writeErrorResponse(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, HeaderUserID+" header is required")
		return
	}

	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	orders, err := h.orders.ListForUser(r.Context(), *user, limit, offset)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}
