// Package payment defines the gateway abstraction used to charge orders and
// the signature scheme of the gateway's webhook notifications.
package payment

import (
	"context"

	"pottery-store/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway charges a payment card.
//
// A declined charge is not an error: Charge returns a result with Approved false.
// Errors are reserved for failures where the outcome is unknown or the gateway
// could not be reached (model.ErrPaymentNotConfigured, model.ErrPaymentGateway).
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// ChargeRequest describes a single order payment.
type ChargeRequest struct {
	OrderID         uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	Card            *model.PaymentCard
	Buyer           Buyer
	ShippingAddress model.Address
	Items           []ChargeItem
}

// Buyer identifies the paying customer.
type Buyer struct {
	ID    string
	Name  string
	Email string
	Phone string
	IP    string
}

// ChargeItem is one basket line. Prices are line totals and must add up to the charge amount.
type ChargeItem struct {
	ID       string
	Name     string
	Category string
	Price    decimal.Decimal
}

// ChargeResult is the gateway's answer to a charge.
type ChargeResult struct {
	Approved     bool
	PaymentID    string
	ErrorCode    string
	ErrorMessage string
}
