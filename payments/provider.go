package payments

import (
	"context"
	"errors"

	"narya-api/models"
)

var (
	// ErrInitiationFailed wraps provider rejections of the initiate call.
	// The order stays in its prior state.
	ErrInitiationFailed = errors.New("payment initiation failed")
	// ErrSignatureInvalid is returned when a webhook payload fails
	// verification. Such payloads are rejected with no state change.
	ErrSignatureInvalid = errors.New("webhook signature verification failed")
)

// InitiateOptions carries provider-specific initiation input.
type InitiateOptions struct {
	Phone string // M-Pesa: customer phone in local or E.164 form
}

// InitiateResult is what a provider hands back to the checkout flow.
type InitiateResult struct {
	ProviderID   string // correlation id stored in paymentResult.id
	Status       string
	ClientSecret string // Stripe: PaymentIntent client secret
	HostedURL    string // Coinbase: hosted checkout page
	Message      string
}

// Provider is the shared capability behind M-Pesa, Stripe and Coinbase.
// Confirmation arrives out-of-band through each provider's webhook and is
// handled by provider-specific parsers; only initiation is uniform.
type Provider interface {
	Name() string
	Initiate(ctx context.Context, order *models.Order, opts InitiateOptions) (*InitiateResult, error)
}
