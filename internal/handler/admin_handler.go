package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"pottery-store/internal/model"
	"pottery-store/internal/service"

	"github.com/rs/zerolog"
)

// AdminHandler handles the admin order, bulk upload and analytics requests.
type AdminHandler struct {
	orders         service.AdminOrderService
	uploads        service.BulkUploadService
	analytics      service.AnalyticsService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	orders service.AdminOrderService,
	uploads service.BulkUploadService,
	analytics service.AnalyticsService,
	maxUploadBytes int64,
	logger zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		orders:         orders,
		uploads:        uploads,
		analytics:      analytics,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("handler", "admin").Logger(),
	}
}

// ListOrders handles GET /api/admin/orders requests, optionally filtered by status and user.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	filter := model.OrderFilter{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := model.ParseOrderStatus(raw)
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		filter.Status = &status
	}
	if user := strings.TrimSpace(r.URL.Query().Get("userId")); user != "" {
		filter.UserID = &user
	}

	orders, err := h.orders.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/admin/orders/{id} requests.
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/admin/orders/{id}/status requests.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var body struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, err.Error(), h.logger)
		return
	}

	status, err := model.ParseOrderStatus(body.Status)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), orderID,
		&model.StatusUpdateRequest{Status: status, Reason: body.Reason}, adminActor(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Cancel handles POST /api/admin/orders/{id}/cancel requests.
func (h *AdminHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	// The body is optional; an empty one cancels with a full refund.
	var req model.CancelRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, err.Error(), h.logger)
		return
	}

	result, err := h.orders.Cancel(r.Context(), orderID, &req, adminActor(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Refunds handles GET /api/admin/orders/{id}/refunds requests.
func (h *AdminHandler) Refunds(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	refunds, err := h.orders.Refunds(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, refunds)
}

// BulkUpload handles POST /api/admin/products/bulk requests.
// The CSV is either the raw request body or the "file" part of a multipart form.
func (h *AdminHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, err := h.uploadedFile(r)
	if err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidUpload, err.Error(), h.logger)
		return
	}
	defer file.Close()

	result, err := h.uploads.Upload(r.Context(), file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeBadRequest(w, r, model.ErrCodeInvalidUpload,
				fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes), h.logger)
			return
		}
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ImportProducts handles POST /api/admin/products/bulk/import requests.
func (h *AdminHandler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	var req model.ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, err.Error(), h.logger)
		return
	}

	result, err := h.uploads.Import(r.Context(), req.Key)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Analytics handles GET /api/admin/analytics requests.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *AdminHandler) uploadedFile(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New(`multipart form must include a "file" part`)
	}
	return file, nil
}
