package handler

import (
	"net"
	"net/http"
	"strings"

	"pottery-store/internal/model"
	"pottery-store/internal/payment"
	"pottery-store/internal/service"

	"github.com/rs/zerolog"
)

// PaymentHandler handles payment and gateway webhook requests.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

// Pay handles POST /api/payments requests.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, err.Error(), h.logger)
		return
	}
	req.ClientIP = clientIP(r)

	resp, err := h.service.Pay(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Webhook handles POST /api/payments/webhook notifications from the gateway.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var event model.WebhookEvent
	if err := decodeJSON(w, r, &event); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, err.Error(), h.logger)
		return
	}

	if err := h.service.HandleWebhook(r.Context(), &event, r.Header.Get(payment.SignatureHeader)); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// clientIP returns the first X-Forwarded-For address, or the connection's remote host.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
