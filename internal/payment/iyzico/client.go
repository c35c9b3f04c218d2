// Package iyzico implements payment.Gateway against the Iyzico payment API.
package iyzico

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pottery-store/internal/config"
	"pottery-store/internal/model"
	"pottery-store/internal/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	paymentPath = "/payment/auth"

	statusSuccess = "success"

	// Iyzico requires a national identity number; the store does not collect one.
	defaultIdentityNumber = "11111111111"
	defaultBuyerIP        = "127.0.0.1"
)

// Client is an Iyzico payment gateway.
type Client struct {
	apiKey     string
	secretKey  string
	baseURL    string
	currency   string
	httpClient *http.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates an Iyzico client from the payment configuration.
func NewClient(cfg config.PaymentConfig, logger zerolog.Logger) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		currency:   cfg.Currency,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("gateway", "iyzico").Logger(),
		now:        time.Now,
	}
}

// Charge creates a payment for the order. A response with status "failure" is a decline.
func (c *Client) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	if c.apiKey == "" || c.secretKey == "" {
		return nil, model.ErrPaymentNotConfigured
	}
	if req.Card == nil {
		return nil, model.NewValidationError("card", "card details are required")
	}

	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+paymentPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}

	randomKey := c.randomKey()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("x-iyzi-rnd", randomKey)
	httpReq.Header.Set("Authorization", c.authorization(randomKey, paymentPath, body))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("order_id", req.OrderID.String()).Msg("payment request failed")
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", model.ErrPaymentGateway, err)
	}

	var result paymentResponse
	if err := json.Unmarshal(raw, &result); err != nil || result.Status == "" {
		c.logger.Error().
			Int("http_status", resp.StatusCode).
			Str("order_id", req.OrderID.String()).
			Msg("unexpected payment response")
		return nil, fmt.Errorf("%w: unexpected response (HTTP %d)", model.ErrPaymentGateway, resp.StatusCode)
	}

	c.logger.Info().
		Str("order_id", req.OrderID.String()).
		Str("status", result.Status).
		Str("payment_id", result.PaymentID).
		Dur("duration", time.Since(start)).
		Msg("payment response received")

	if result.Status != statusSuccess {
		return &payment.ChargeResult{
			Approved:     false,
			ErrorCode:    result.ErrorCode,
			ErrorMessage: result.ErrorMessage,
		}, nil
	}

	return &payment.ChargeResult{Approved: true, PaymentID: result.PaymentID}, nil
}

// authorization builds the IYZWSv2 header value for a request.
func (c *Client) authorization(randomKey, uriPath string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(randomKey + uriPath))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	params := "apiKey:" + c.apiKey + "&randomKey:" + randomKey + "&signature:" + signature
	return "IYZWSv2 " + base64.StdEncoding.EncodeToString([]byte(params))
}

func (c *Client) randomKey() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10) + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (c *Client) buildRequest(req payment.ChargeRequest) paymentRequest {
	currency := req.Currency
	if currency == "" {
		currency = c.currency
	}

	ip := req.Buyer.IP
	if ip == "" {
		ip = defaultBuyerIP
	}

	name, surname := splitName(req.Buyer.Name)
	addr := address{
		ContactName: req.ShippingAddress.FullName,
		City:        req.ShippingAddress.City,
		Country:     req.ShippingAddress.Country,
		Address:     strings.TrimSpace(req.ShippingAddress.Line1 + " " + req.ShippingAddress.Line2),
		ZipCode:     req.ShippingAddress.PostalCode,
	}

	items := make([]basketItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, basketItem{
			ID:        it.ID,
			Name:      it.Name,
			Category1: it.Category,
			ItemType:  "PHYSICAL",
			Price:     it.Price.StringFixed(2),
		})
	}

	buyerID := req.Buyer.ID
	if buyerID == "" {
		buyerID = "guest-" + req.OrderID.String()
	}

	return paymentRequest{
		Locale:         "tr",
		ConversationID: req.OrderID.String(),
		Price:          req.Amount.StringFixed(2),
		PaidPrice:      req.Amount.StringFixed(2),
		Currency:       currency,
		Installment:    1,
		BasketID:       req.OrderID.String(),
		PaymentChannel: "WEB",
		PaymentGroup:   "PRODUCT",
		PaymentCard: card{
			CardHolderName: req.Card.HolderName,
			CardNumber:     req.Card.Number,
			ExpireMonth:    req.Card.ExpireMonth,
			ExpireYear:     req.Card.ExpireYear,
			CVC:            req.Card.CVC,
		},
		Buyer: buyer{
			ID:                  buyerID,
			Name:                name,
			Surname:             surname,
			GSMNumber:           req.Buyer.Phone,
			Email:               req.Buyer.Email,
			IdentityNumber:      defaultIdentityNumber,
			RegistrationAddress: addr.Address,
			IP:                  ip,
			City:                addr.City,
			Country:             addr.Country,
		},
		ShippingAddress: addr,
		BillingAddress:  addr,
		BasketItems:     items,
	}
}

// splitName splits a full name into first names and a surname.
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

