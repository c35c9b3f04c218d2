package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"pottery-store/internal/middleware"
	"pottery-store/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Request headers carrying caller identity.
const (
	HeaderUserID    = "X-User-ID"
	HeaderAdminUser = "X-Admin-User"
)

const maxJSONBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is required")

// statusByCode maps API error codes to HTTP status codes.
var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:          http.StatusBadRequest,
	model.ErrCodeMissingField:         http.StatusBadRequest,
	model.ErrCodeValidationFailed:     http.StatusBadRequest,
	model.ErrCodeInvalidQuantity:      http.StatusBadRequest,
	model.ErrCodeInvalidStatus:        http.StatusBadRequest,
	model.ErrCodeInvalidRefundAmount:  http.StatusBadRequest,
	model.ErrCodeInvalidUpload:        http.StatusBadRequest,
	model.ErrCodeProductNotFound:      http.StatusNotFound,
	model.ErrCodeCategoryNotFound:     http.StatusNotFound,
	model.ErrCodeOrderNotFound:        http.StatusNotFound,
	model.ErrCodeInsufficientStock:    http.StatusConflict,
	model.ErrCodePriceMismatch:        http.StatusConflict,
	model.ErrCodeInvalidTransition:    http.StatusConflict,
	model.ErrCodeOrderNotPayable:      http.StatusConflict,
	model.ErrCodeCategoryExists:       http.StatusConflict,
	model.ErrCodeProductInUse:         http.StatusConflict,
	model.ErrCodePaymentDeclined:      http.StatusPaymentRequired,
	model.ErrCodeInvalidSignature:     http.StatusUnauthorized,
	model.ErrCodeUnauthorised:         http.StatusUnauthorized,
	model.ErrCodePaymentNotConfigured: http.StatusBadGateway,
	model.ErrCodePaymentGatewayError:  http.StatusBadGateway,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError maps err to a status code and writes the standard error body.
// Internal errors are logged in full and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	code := model.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "internal server error"
	if status != http.StatusInternalServerError {
		message = err.Error()
		var de *model.DomainError
		if errors.As(err, &de) {
			message = de.Message
		}
	}

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Str("code", code).
		Int("status", status).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("request failed")

	writeErrorResponse(w, r, status, code, message)
}

// writeBadRequest writes a 400 with the given code and message.
func writeBadRequest(w http.ResponseWriter, r *http.Request, code, message string, logger zerolog.Logger) {
	logger.Warn().
		Str("code", code).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg(message)
	writeErrorResponse(w, r, http.StatusBadRequest, code, message)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: middleware.RequestIDFromContext(r.Context()),
	})
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// userID returns the caller's user ID from the X-User-ID header, or nil for guests.
func userID(r *http.Request) *string {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return nil
	}
	return &id
}

// adminActor names the admin performing a request.
func adminActor(r *http.Request) string {
	if actor := strings.TrimSpace(r.Header.Get(HeaderAdminUser)); actor != "" {
		return actor
	}
	return "admin"
}

// pathUUID parses the named path value as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return uuid.Nil, model.NewValidationError(name, "%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewValidationError(name, "invalid %s format", name)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError(name, "invalid %s parameter", name)
	}
	return v, nil
}

// pagination reads limit and offset query parameters. Zero values are clamped by the services.
func pagination(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
