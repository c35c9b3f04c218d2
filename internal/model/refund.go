package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundStatus is the processing state of a refund.
type RefundStatus string

const (
	RefundPending   RefundStatus = "PENDING"
	RefundProcessed RefundStatus = "PROCESSED"
	RefundFailed    RefundStatus = "FAILED"
)

// DefaultRefundMethod is used when an admin cancels without naming a method.
const DefaultRefundMethod = "ORIGINAL_PAYMENT"

// Refund is the audit record written when an order is cancelled.
type Refund struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderID     uuid.UUID       `json:"orderId" db:"order_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Reason      string          `json:"reason" db:"reason"`
	Method      string          `json:"method" db:"method"`
	Status      RefundStatus    `json:"status" db:"status"`
	ProcessedBy string          `json:"processedBy" db:"processed_by"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// CancelRequest is the admin payload for cancelling an order.
// A nil Amount refunds the full order total.
type CancelRequest struct {
	Reason string           `json:"reason"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Method string           `json:"method,omitempty"`
}

// CancelResult is returned after a cancellation.
// Refund is nil for orders cancelled without one, such as a declined payment.
type CancelResult struct {
	Order  Order   `json:"order"`
	Refund *Refund `json:"refund,omitempty"`
}
