package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"narya-api/config"
	"narya-api/models"
)

// Mpesa integrates with Safaricom's Daraja STK push API. Initiation sends
// the push prompt to the customer's phone; confirmation arrives later
// through the unauthenticated callback endpoint.
type Mpesa struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	BaseURL        string
	HTTP           *http.Client
}

func NewMpesaFromEnv() *Mpesa {
	return &Mpesa{
		ConsumerKey:    config.GetEnv("MPESA_CONSUMER_KEY", ""),
		ConsumerSecret: config.GetEnv("MPESA_CONSUMER_SECRET", ""),
		ShortCode:      config.GetEnv("MPESA_SHORTCODE", ""),
		Passkey:        config.GetEnv("MPESA_PASSKEY", ""),
		CallbackURL:    config.GetEnv("MPESA_CALLBACK_URL", config.GetEnv("BASE_URL", "http://localhost:8080")+"/api/payments/callback"),
		BaseURL:        config.GetEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
	}
}

func (m *Mpesa) Name() string { return models.PaymentMpesa }

func (m *Mpesa) client() *http.Client {
	if m.HTTP != nil {
		return m.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

type darajaTokenResp struct {
	AccessToken string `json:"access_token"`
}

func (m *Mpesa) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		m.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(m.ConsumerKey + ":" + m.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := m.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("daraja token request returned %d: %s", resp.StatusCode, body)
	}
	var out darajaTokenResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

type stkPushResp struct {
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResponseCode      string `json:"ResponseCode"`
	CustomerMessage   string `json:"CustomerMessage"`
	ErrorMessage      string `json:"errorMessage"`
}

// Initiate sends the STK push. The returned ProviderID is Safaricom's
// CheckoutRequestID; it is the only correlation key the callback carries.
func (m *Mpesa) Initiate(ctx context.Context, order *models.Order, opts InitiateOptions) (*InitiateResult, error) {
	token, err := m.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}

	phone := normalizePhone(opts.Phone)
	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(m.ShortCode + m.Passkey + timestamp))

	payload := map[string]interface{}{
		"BusinessShortCode": m.ShortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            int64(order.TotalPrice + 0.5),
		"PartyA":            phone,
		"PartyB":            m.ShortCode,
		"PhoneNumber":       phone,
		"CallBackURL":       m.CallbackURL,
		"AccountReference":  "Order_" + order.Ref,
		"TransactionDesc":   "Payment for Narya Baby order",
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}
	defer resp.Body.Close()

	var out stkPushResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}
	if resp.StatusCode != http.StatusOK || out.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: daraja returned %d: %s", ErrInitiationFailed, resp.StatusCode, out.ErrorMessage)
	}

	return &InitiateResult{
		ProviderID: out.CheckoutRequestID,
		Status:     "Pending Payment",
		Message:    out.CustomerMessage,
	}, nil
}

// normalizePhone converts local Kenyan numbers to the 254... form Daraja
// expects.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone[1:]
	}
	if strings.HasPrefix(phone, "0") {
		return "254" + phone[1:]
	}
	return phone
}

// MpesaCallback is the distilled result of a Safaricom STK callback.
type MpesaCallback struct {
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	Amount            float64
	Receipt           string
}

func (c *MpesaCallback) Success() bool { return c.ResultCode == 0 }

type stkCallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ParseCallback decodes the Safaricom callback JSON. Metadata items are only
// present on success.
func ParseCallback(body []byte) (*MpesaCallback, error) {
	var env stkCallbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	cb := env.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("callback payload has no CheckoutRequestID")
	}
	out := &MpesaCallback{
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			if v, ok := item.Value.(float64); ok {
				out.Amount = v
			}
		case "MpesaReceiptNumber":
			if v, ok := item.Value.(string); ok {
				out.Receipt = v
			}
		}
	}
	return out, nil
}
