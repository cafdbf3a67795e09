// Package notify maintains the push subscription registry and fans alert
// payloads out to every subscriber.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Payload is the message the service worker expects.
type Payload struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Tag     string `json:"tag,omitempty"`
	URL     string `json:"url,omitempty"`
	Urgency string `json:"urgency,omitempty"`
}

// SubscriptionKeys are the client's Web Push encryption keys.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one registered push endpoint. The endpoint URL is the
// registry key, unique per device/browser.
type Subscription struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

// Transport delivers a serialized payload to one subscription.
// Implementations: WebPushTransport
type Transport interface {
	Send(ctx context.Context, sub Subscription, payload []byte) error
}

// StatusError carries the HTTP status of a failed push delivery.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("push delivery failed with status %d", e.Code)
}

// Terminal reports whether the status means the subscription can never
// succeed again. 410 Gone and 404 mean the endpoint is gone; 401 means our
// authorization for it is permanently rejected.
func (e *StatusError) Terminal() bool {
	return e.Code == 410 || e.Code == 404 || e.Code == 401
}

// DispatchResult summarizes one fan-out. Callers may inspect or ignore it.
type DispatchResult struct {
	Sent   int
	Failed int
	Pruned int
}

// Dispatcher holds the in-memory subscription registry and sends payloads to
// every subscriber concurrently. Subscriptions that fail with a terminal
// delivery error are pruned from the registry.
type Dispatcher struct {
	transport Transport
	timeout   time.Duration

	mu   sync.RWMutex
	subs map[string]Subscription
}

// NewDispatcher creates a dispatcher with an empty registry. sendTimeout
// bounds each individual delivery; a send that does not resolve in time
// counts as a non-terminal failure.
func NewDispatcher(transport Transport, sendTimeout time.Duration) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		transport: transport,
		timeout:   sendTimeout,
		subs:      make(map[string]Subscription),
	}
}

// Subscribe upserts a subscription by endpoint. Idempotent.
func (d *Dispatcher) Subscribe(sub Subscription) {
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs[sub.Endpoint] = sub
}

// Unsubscribe removes a subscription by endpoint. No-op if absent.
func (d *Dispatcher) Unsubscribe(endpoint string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.subs, endpoint)
}

// Subscriptions returns a snapshot of the registry.
func (d *Dispatcher) Subscriptions() []Subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()

	subs := make([]Subscription, 0, len(d.subs))
	for _, s := range d.subs {
		subs = append(subs, s)
	}
	return subs
}

// Count returns the number of registered subscriptions.
func (d *Dispatcher) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// Dispatch sends the payload to every registered subscription concurrently
// and waits for all outcomes. Each send is independent: transient failures
// are logged and the subscription retained (the failed send itself is not
// retried), terminal failures remove the subscription.
func (d *Dispatcher) Dispatch(ctx context.Context, payload Payload) DispatchResult {
	subs := d.Subscriptions()
	if len(subs) == 0 {
		return DispatchResult{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Warning: failed to marshal push payload: %v", err)
		return DispatchResult{Failed: len(subs)}
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result DispatchResult
	)

	for _, sub := range subs {
		wg.Add(1)
		go func(sub Subscription) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			err := d.transport.Send(sendCtx, sub, body)

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				result.Sent++
				return
			}

			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.Terminal() {
				d.Unsubscribe(sub.Endpoint)
				result.Pruned++
				return
			}

			log.Printf("Warning: push delivery to %s failed: %v", sub.Endpoint, err)
			result.Failed++
		}(sub)
	}

	wg.Wait()
	return result
}
