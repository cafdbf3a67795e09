package notify

import (
	"context"
	"fmt"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// WebPushTransport delivers payloads over the Web Push protocol with VAPID
// authentication.
type WebPushTransport struct {
	publicKey  string
	privateKey string
	subscriber string
	ttl        int
}

// NewWebPushTransport creates a transport. subscriber is the VAPID contact
// address (mailto: URL) push services may use to reach the operator.
func NewWebPushTransport(publicKey, privateKey, subscriber string) *WebPushTransport {
	if subscriber == "" {
		subscriber = "mailto:admin@recallguard.app"
	}
	return &WebPushTransport{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
		ttl:        3600,
	}
}

// Configured reports whether a VAPID key pair is present.
func (t *WebPushTransport) Configured() bool {
	return t.publicKey != "" && t.privateKey != ""
}

// PublicKey returns the VAPID public key clients subscribe with.
func (t *WebPushTransport) PublicKey() string {
	return t.publicKey
}

// Send delivers one serialized payload. Non-2xx responses surface as
// StatusError so the dispatcher can distinguish terminal failures.
func (t *WebPushTransport) Send(ctx context.Context, sub Subscription, payload []byte) error {
	if !t.Configured() {
		return fmt.Errorf("VAPID keys not configured")
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      t.subscriber,
		VAPIDPublicKey:  t.publicKey,
		VAPIDPrivateKey: t.privateKey,
		TTL:             t.ttl,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// GenerateVAPIDKeys returns a fresh VAPID key pair for operator setup.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
