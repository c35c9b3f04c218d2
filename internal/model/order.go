package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a customer or guest order.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          *string         `json:"userId,omitempty" db:"user_id"`
	Guest           *GuestContact   `json:"guest,omitempty" db:"guest"`
	Status          OrderStatus     `json:"status" db:"status"`
	Total           decimal.Decimal `json:"total" db:"total"`
	ShippingAddress Address         `json:"shippingAddress" db:"shipping_address"`
	PaymentID       *string         `json:"paymentId,omitempty" db:"payment_id"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsGuest reports whether the order is not linked to a registered account.
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}

// ContactEmail returns the address notifications for this order go to, if known.
func (o *Order) ContactEmail() string {
	if o.Guest != nil {
		return o.Guest.Email
	}
	return ""
}

// GuestContact holds the inline contact details of a guest order.
type GuestContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Address is the shipping destination snapshot stored with an order.
type Address struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// OrderItem represents a line item in an order.
// UnitPrice is captured at purchase time and does not follow later catalogue changes.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID string          `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
}

// Subtotal returns quantity times unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// MaxLineQuantity caps the merged quantity of one product in a cart or order.
const MaxLineQuantity = 10000

// CartItem is a single client-held cart line.
// Price is the unit price the client last saw; it is optional.
type CartItem struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// CheckoutRequest represents the request payload for placing an order.
type CheckoutRequest struct {
	UserID          *string       `json:"-"`
	Guest           *GuestContact `json:"guest,omitempty"`
	ShippingAddress Address       `json:"shippingAddress"`
	Items           []CartItem    `json:"items"`
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	Order
	Items    []OrderItem `json:"items"`
	Products []Product   `json:"products"`
}

// OrderFilter narrows an order listing.
type OrderFilter struct {
	Status *OrderStatus
	UserID *string
	Limit  int
	Offset int
}

// QuoteRequest asks the server to price a client-held cart.
type QuoteRequest struct {
	Items []CartItem `json:"items"`
}

// QuoteLine is the priced view of a single cart line.
type QuoteLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Available int             `json:"available"`
	InStock   bool            `json:"inStock"`
	Found     bool            `json:"found"`
}

// Quote is the priced view of a cart.
type Quote struct {
	Lines       []QuoteLine     `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	Purchasable bool            `json:"purchasable"`
}

// StatusUpdateRequest is the admin payload for moving an order to a new status.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}
