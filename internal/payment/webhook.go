package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"pottery-store/internal/model"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "X-IYZ-SIGNATURE-V3"

// Webhook statuses acted upon.
const (
	WebhookStatusSuccess = "SUCCESS"
	WebhookStatusFailure = "FAILURE"
)

// SignWebhook computes the signature the gateway attaches to event.
func SignWebhook(secretKey string, event model.WebhookEvent) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(secretKey + event.EventType + event.PaymentID + event.ConversationID + event.Status))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook reports whether signature matches event. An empty secret never verifies.
func VerifyWebhook(secretKey, signature string, event model.WebhookEvent) bool {
	if secretKey == "" || signature == "" {
		return false
	}
	expected := SignWebhook(secretKey, event)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
