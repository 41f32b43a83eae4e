package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"narya-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "254712345678", normalizePhone("0712345678"))
	assert.Equal(t, "254712345678", normalizePhone("+254712345678"))
	assert.Equal(t, "254712345678", normalizePhone("254712345678"))
}

func TestParseCallbackSuccess(t *testing.T) {
	body := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 1000.00},
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
						{"Name": "TransactionDate", "Value": 20191219102115},
						{"Name": "PhoneNumber", "Value": 254708374149}
					]
				}
			}
		}
	}`)

	cb, err := ParseCallback(body)
	require.NoError(t, err)
	assert.True(t, cb.Success())
	assert.Equal(t, "ws_CO_191220191020363925", cb.CheckoutRequestID)
	assert.Equal(t, 1000.0, cb.Amount)
	assert.Equal(t, "NLJ7RT61SV", cb.Receipt)
}

func TestParseCallbackFailure(t *testing.T) {
	body := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user."
			}
		}
	}`)

	cb, err := ParseCallback(body)
	require.NoError(t, err)
	assert.False(t, cb.Success())
	assert.Equal(t, "Request cancelled by user.", cb.ResultDesc)
	assert.Empty(t, cb.Receipt)
}

func TestParseCallbackMissingCorrelationID(t *testing.T) {
	_, err := ParseCallback([]byte(`{"Body":{"stkCallback":{}}}`))
	assert.Error(t, err)
}

func TestMpesaInitiate(t *testing.T) {
	var pushReq map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			assert.NotEmpty(t, r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token"})
		case "/mpesa/stkpush/v1/processrequest":
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&pushReq))
			json.NewEncoder(w).Encode(map[string]string{
				"CheckoutRequestID": "ws_CO_123",
				"ResponseCode":      "0",
				"CustomerMessage":   "Success. Request accepted for processing",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	m := &Mpesa{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		Passkey:        "passkey",
		CallbackURL:    "https://shop.example.com/api/payments/callback",
		BaseURL:        srv.URL,
		HTTP:           srv.Client(),
	}
	order := &models.Order{ID: 12, Ref: "abc-123", TotalPrice: 1499.6}

	res, err := m.Initiate(context.Background(), order, InitiateOptions{Phone: "0712345678"})
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_123", res.ProviderID)
	assert.Equal(t, "Pending Payment", res.Status)

	assert.Equal(t, "254712345678", pushReq["PhoneNumber"])
	assert.Equal(t, "Order_abc-123", pushReq["AccountReference"])
	assert.Equal(t, float64(1500), pushReq["Amount"])
}

func TestMpesaInitiateProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "t"})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"errorMessage": "Invalid Amount"})
	}))
	defer srv.Close()

	m := &Mpesa{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := m.Initiate(context.Background(), &models.Order{Ref: "r", TotalPrice: 0}, InitiateOptions{Phone: "0712345678"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInitiationFailed)
}
