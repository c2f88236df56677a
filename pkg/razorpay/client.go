package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dessy-cafe/storefront-backend/pkg/config"
	"github.com/sethvargo/go-retry"
)

// Client talks to the Razorpay Orders API. Amounts are in the smallest
// currency unit (paise).
type Client struct {
	cfg        config.RazorpayConfig
	httpClient *http.Client
}

// OrderRequest creates a gateway-side order tied to an internal receipt.
type OrderRequest struct {
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Receipt  string         `json:"receipt"`
	Notes    map[string]any `json:"notes,omitempty"`
}

// Order is the gateway's view of a created order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// New builds a Razorpay client from configuration.
func New(cfg config.RazorpayConfig) (*Client, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, fmt.Errorf("razorpay key id and secret are required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("razorpay base url is required")
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// KeyID exposes the publishable key the storefront embeds in its checkout widget.
func (c *Client) KeyID() string {
	return c.cfg.KeyID
}

// CreateOrder registers an order with the gateway, retrying transient failures.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive")
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	backoff := retry.WithMaxRetries(uint64(c.cfg.MaxRetries), retry.NewConstant(c.cfg.RetryPause))

	var order Order
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/orders", bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return retry.RetryableError(err)
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("gateway returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, payload)
		}

		return json.Unmarshal(payload, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifySignature checks the checkout callback signature: an HMAC-SHA256 of
// "<order_id>|<payment_id>" keyed with the API secret.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.cfg.KeySecret, orderID, paymentID, signature)
}

// VerifySignature is the raw HMAC comparison, exposed for tests and webhooks.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
