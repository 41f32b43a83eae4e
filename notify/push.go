package notify

import (
	"fmt"
	"net/http"

	"narya-api/config"
	"narya-api/models"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// PushSender delivers one web-push message to one subscription.
type PushSender interface {
	Send(sub *models.PushSubscription, payload []byte) error
}

type vapidSender struct {
	publicKey  string
	privateKey string
	subscriber string
}

// NewVAPIDSender builds a sender from the VAPID env keys. Returns nil when
// keys are unset, which disables web push entirely.
func NewVAPIDSender() PushSender {
	pub := config.GetEnv("VAPID_PUBLIC_KEY", "")
	priv := config.GetEnv("VAPID_PRIVATE_KEY", "")
	if pub == "" || priv == "" {
		return nil
	}
	return &vapidSender{
		publicKey:  pub,
		privateKey: priv,
		subscriber: config.GetEnv("VAPID_CONTACT", "mailto:admin@example.com"),
	}
}

func (v *vapidSender) Send(sub *models.PushSubscription, payload []byte) error {
	s := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}
	resp, err := webpush.SendNotification(payload, s, &webpush.Options{
		Subscriber:      v.subscriber,
		VAPIDPublicKey:  v.publicKey,
		VAPIDPrivateKey: v.privateKey,
		TTL:             60,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// 404/410 mean the browser dropped the subscription
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// PublicVAPIDKey is served to the frontend so it can subscribe.
func PublicVAPIDKey() string {
	return config.GetEnv("VAPID_PUBLIC_KEY", "")
}
