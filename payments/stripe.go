package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"narya-api/config"
	"narya-api/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe creates PaymentIntents and verifies webhook events through the
// official SDK.
type Stripe struct {
	SecretKey     string
	WebhookSecret string
}

func NewStripeFromEnv() *Stripe {
	s := &Stripe{
		SecretKey:     config.GetEnv("STRIPE_SECRET_KEY", ""),
		WebhookSecret: config.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
	}
	stripe.Key = s.SecretKey
	return s
}

func (s *Stripe) Name() string { return models.PaymentCard }

// Initiate creates a PaymentIntent keyed by the order ref in its metadata
// and returns the client secret the frontend confirms with.
func (s *Stripe) Initiate(ctx context.Context, order *models.Order, _ InitiateOptions) (*InitiateResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(int64(math.Round(order.TotalPrice * 100))),
		Currency:    stripe.String(string(stripe.CurrencyKES)),
		Description: stripe.String(fmt.Sprintf("Narya Baby order #%d", order.ID)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("orderRef", order.Ref)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}
	return &InitiateResult{
		ProviderID:   pi.ID,
		Status:       "Pending",
		ClientSecret: pi.ClientSecret,
	}, nil
}

// StripeConfirmation is a verified payment_intent.succeeded event.
type StripeConfirmation struct {
	OrderRef     string
	IntentID     string
	Status       string
	ReceiptEmail string
}

// VerifyWebhook checks the signature and extracts the confirmation when the
// event is payment_intent.succeeded. Unverifiable payloads fail closed with
// ErrSignatureInvalid; verified events of other types return (nil, nil).
func (s *Stripe) VerifyWebhook(payload []byte, signatureHeader string) (*StripeConfirmation, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, s.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if event.Type != "payment_intent.succeeded" {
		return nil, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	return &StripeConfirmation{
		OrderRef:     pi.Metadata["orderRef"],
		IntentID:     pi.ID,
		Status:       string(pi.Status),
		ReceiptEmail: pi.ReceiptEmail,
	}, nil
}
