package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeMissingField         = "MISSING_FIELD"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeProductInUse         = "PRODUCT_IN_USE"
	ErrCodeCategoryNotFound     = "CATEGORY_NOT_FOUND"
	ErrCodeCategoryExists       = "CATEGORY_EXISTS"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeInvalidQuantity      = "INVALID_QUANTITY"
	ErrCodeInsufficientStock    = "INSUFFICIENT_STOCK"
	ErrCodePriceMismatch        = "PRICE_MISMATCH"
	ErrCodeInvalidStatus        = "INVALID_STATUS"
	ErrCodeInvalidTransition    = "INVALID_STATUS_TRANSITION"
	ErrCodeOrderNotPayable      = "ORDER_NOT_PAYABLE"
	ErrCodeInvalidRefundAmount  = "INVALID_REFUND_AMOUNT"
	ErrCodePaymentDeclined      = "PAYMENT_DECLINED"
	ErrCodePaymentNotConfigured = "PAYMENT_NOT_CONFIGURED"
	ErrCodePaymentGatewayError  = "PAYMENT_GATEWAY_ERROR"
	ErrCodeInvalidSignature     = "INVALID_SIGNATURE"
	ErrCodeInvalidUpload        = "INVALID_UPLOAD"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound      = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrProductInUse         = NewDomainError(ErrCodeProductInUse, "Product is referenced by existing orders")
	ErrCategoryNotFound     = NewDomainError(ErrCodeCategoryNotFound, "Category not found")
	ErrCategoryExists       = NewDomainError(ErrCodeCategoryExists, "A category with this name already exists")
	ErrOrderNotFound        = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidQuantity      = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be between 1 and 10000")
	ErrInsufficientStock    = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
	ErrPriceMismatch        = NewDomainError(ErrCodePriceMismatch, "Product price has changed, refresh the cart")
	ErrInvalidStatus        = NewDomainError(ErrCodeInvalidStatus, "Unknown order status")
	ErrInvalidTransition    = NewDomainError(ErrCodeInvalidTransition, "Order status transition is not allowed")
	ErrOrderNotPayable      = NewDomainError(ErrCodeOrderNotPayable, "Order is not awaiting payment")
	ErrInvalidRefundAmount  = NewDomainError(ErrCodeInvalidRefundAmount, "Refund amount must be positive and not exceed the order total")
	ErrPaymentDeclined      = NewDomainError(ErrCodePaymentDeclined, "Payment was declined")
	ErrPaymentNotConfigured = NewDomainError(ErrCodePaymentNotConfigured, "Payment gateway is not configured")
	ErrPaymentGateway       = NewDomainError(ErrCodePaymentGatewayError, "Payment gateway unavailable")
	ErrInvalidSignature     = NewDomainError(ErrCodeInvalidSignature, "Webhook signature is invalid")
)

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError names the product whose stock cannot cover a requested quantity.
// It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

// Is reports whether target is the insufficient stock sentinel.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// DeclinedError carries the gateway's reason for a declined payment.
// It matches ErrPaymentDeclined with errors.Is.
type DeclinedError struct {
	Code    string
	Message string
}

func (e *DeclinedError) Error() string {
	if e.Code == "" {
		return "payment declined: " + e.Message
	}
	return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Message)
}

// Is reports whether target is the declined payment sentinel.
func (e *DeclinedError) Is(target error) bool {
	return target == ErrPaymentDeclined
}

// CodeOf returns the API error code for err, or INTERNAL_ERROR.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var se *InsufficientStockError
	if errors.As(err, &se) {
		return ErrCodeInsufficientStock
	}
	var dec *DeclinedError
	if errors.As(err, &dec) {
		return ErrCodePaymentDeclined
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrCodeValidationFailed
	}
	return ErrCodeInternalError
}
