package model

import "github.com/google/uuid"

// PaymentCard holds the card details forwarded to the gateway. They are never stored.
type PaymentCard struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpireMonth string `json:"expireMonth"`
	ExpireYear  string `json:"expireYear"`
	CVC         string `json:"cvc"`
}

// PaymentRequest is the payload for paying an order.
type PaymentRequest struct {
	OrderID  uuid.UUID    `json:"orderId"`
	Card     *PaymentCard `json:"card,omitempty"`
	ClientIP string       `json:"-"`
}

// PaymentResponse reports the outcome of a payment attempt.
type PaymentResponse struct {
	OrderID   uuid.UUID   `json:"orderId"`
	PaymentID string      `json:"paymentId"`
	Status    OrderStatus `json:"status"`
}

// WebhookEvent is the signed notification the gateway posts after a payment changes state.
type WebhookEvent struct {
	EventType      string `json:"eventType"`
	PaymentID      string `json:"paymentId"`
	ConversationID string `json:"conversationId"`
	Status         string `json:"status"`
}
