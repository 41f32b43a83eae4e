package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"narya-api/config"
	"narya-api/models"
)

// kesPerUSD approximates the conversion Coinbase charges are priced in.
const kesPerUSD = 160.0

// Coinbase integrates with Coinbase Commerce: hosted crypto charges plus an
// HMAC-signed webhook.
type Coinbase struct {
	APIKey        string
	WebhookSecret string
	BaseURL       string
	ClientURL     string
	HTTP          *http.Client
}

func NewCoinbaseFromEnv() *Coinbase {
	return &Coinbase{
		APIKey:        config.GetEnv("COINBASE_COMMERCE_API_KEY", ""),
		WebhookSecret: config.GetEnv("COINBASE_COMMERCE_WEBHOOK_SECRET", ""),
		BaseURL:       config.GetEnv("COINBASE_BASE_URL", "https://api.commerce.coinbase.com"),
		ClientURL:     config.GetEnv("CLIENT_URL", "http://localhost:3000"),
	}
}

func (c *Coinbase) Name() string { return models.PaymentBitcoin }

func (c *Coinbase) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

type coinbaseChargeResp struct {
	Data struct {
		ID        string `json:"id"`
		HostedURL string `json:"hosted_url"`
		Timeline  []struct {
			Status string `json:"status"`
		} `json:"timeline"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Initiate creates a fixed-price charge with the order ref in its metadata
// and returns the hosted checkout URL.
func (c *Coinbase) Initiate(ctx context.Context, order *models.Order, _ InitiateOptions) (*InitiateResult, error) {
	payload := map[string]interface{}{
		"name":        "Narya Baby Order",
		"description": fmt.Sprintf("Payment for order #%d", order.ID),
		"local_price": map[string]string{
			"amount":   fmt.Sprintf("%.2f", math.Ceil(order.TotalPrice/kesPerUSD)),
			"currency": "USD",
		},
		"pricing_type": "fixed_price",
		"metadata":     map[string]string{"orderRef": order.Ref},
		"redirect_url": fmt.Sprintf("%s/order/%d/confirmed", c.ClientURL, order.ID),
		"cancel_url":   fmt.Sprintf("%s/order/%d", c.ClientURL, order.ID),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CC-Api-Key", c.APIKey)
	req.Header.Set("X-CC-Version", "2018-03-22")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}
	defer resp.Body.Close()

	var out coinbaseChargeResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}
	if resp.StatusCode >= 300 || out.Data.ID == "" {
		return nil, fmt.Errorf("%w: coinbase returned %d: %s", ErrInitiationFailed, resp.StatusCode, out.Error.Message)
	}

	status := "pending"
	if len(out.Data.Timeline) > 0 {
		status = out.Data.Timeline[0].Status
	}
	return &InitiateResult{
		ProviderID: out.Data.ID,
		Status:     status,
		HostedURL:  out.Data.HostedURL,
	}, nil
}

// CoinbaseConfirmation is a verified charge:confirmed event.
type CoinbaseConfirmation struct {
	OrderRef string
	ChargeID string
}

type coinbaseEvent struct {
	Event struct {
		Type string `json:"type"`
		Data struct {
			ID       string `json:"id"`
			Metadata struct {
				OrderRef string `json:"orderRef"`
			} `json:"metadata"`
		} `json:"data"`
	} `json:"event"`
}

// VerifySignature checks the X-CC-Webhook-Signature header: hex HMAC-SHA256
// of the raw body under the shared webhook secret.
func (c *Coinbase) VerifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhook validates the signature and extracts the confirmation when
// the event is charge:confirmed. Other verified event types return (nil, nil).
func (c *Coinbase) VerifyWebhook(body []byte, signature string) (*CoinbaseConfirmation, error) {
	if !c.VerifySignature(body, signature) {
		return nil, ErrSignatureInvalid
	}
	var evt coinbaseEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode coinbase event: %w", err)
	}
	if evt.Event.Type != "charge:confirmed" {
		return nil, nil
	}
	return &CoinbaseConfirmation{
		OrderRef: evt.Event.Data.Metadata.OrderRef,
		ChargeID: evt.Event.Data.ID,
	}, nil
}
