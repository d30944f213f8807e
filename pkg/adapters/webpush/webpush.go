package webpush

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	wp "github.com/SherClockHolmes/webpush-go"

	"github.com/goliatone/go-webpush/pkg/adapters"
	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
)

const maxErrorBody = 4 << 10

// DeliveryError reports a push service response outside the 2xx range.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webpush: push service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("webpush: push service returned %d: %s", e.StatusCode, e.Body)
}

// HTTPStatusCode implements adapters.StatusCoder.
func (e *DeliveryError) HTTPStatusCode() int {
	return e.StatusCode
}

// Expired reports whether the push service considers the subscription gone.
func (e *DeliveryError) Expired() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// Adapter delivers encrypted payloads through webpush-go.
type Adapter struct {
	name      string
	base      adapters.BaseAdapter
	caps      adapters.Capability
	transport http.RoundTripper
	timeout   time.Duration
}

type Option func(*Adapter)

// WithName overrides the adapter name.
func WithName(name string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(name) != "" {
			a.name = name
		}
	}
}

// WithTransport injects the round tripper used for push service requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(a *Adapter) {
		if rt != nil {
			a.transport = rt
		}
	}
}

// WithDefaultTimeout applies when a message carries no timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// New constructs the webpush adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "webpush",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:      "webpush",
			Encodings: []string{config.ContentEncoding},
		},
		transport: http.DefaultTransport,
		timeout:   10 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	return adapter
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

// Send encrypts and posts msg.Payload to the subscription endpoint.
func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	enc := msg.Options.ContentEncoding
	if enc != "" && !strings.EqualFold(enc, config.ContentEncoding) {
		return fmt.Errorf("webpush: unsupported content encoding %q", enc)
	}

	timeout := msg.Options.Timeout
	if timeout <= 0 {
		timeout = a.timeout
	}
	client := &headerClient{
		client:  &http.Client{Transport: a.transport, Timeout: timeout},
		headers: msg.Options.Headers,
	}

	sub := &wp.Subscription{
		Endpoint: msg.Subscription.Endpoint,
		Keys: wp.Keys{
			Auth:   msg.Subscription.Keys.Auth,
			P256dh: msg.Subscription.Keys.P256dh,
		},
	}
	options := &wp.Options{
		HTTPClient:      client,
		Subscriber:      strings.TrimPrefix(msg.Options.Credentials.Subject, "mailto:"),
		Topic:           msg.Options.Topic,
		TTL:             msg.Options.TTL,
		Urgency:         wp.Urgency(msg.Options.Urgency),
		VAPIDPublicKey:  msg.Options.Credentials.PublicKey,
		VAPIDPrivateKey: msg.Options.Credentials.PrivateKey,
	}

	resp, err := wp.SendNotificationWithContext(ctx, msg.Payload, sub, options)
	if err != nil {
		a.base.LogFailure(a.name, msg, err)
		return fmt.Errorf("webpush: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		derr := &DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		a.base.LogFailure(a.name, msg, derr)
		return derr
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	a.base.LogSuccess(a.name, msg)
	return nil
}

// GenerateKeys returns a fresh VAPID key pair (base64url encoded).
func GenerateKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = wp.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("webpush: generate vapid keys: %w", err)
	}
	return publicKey, privateKey, nil
}

// headerClient adds custom headers to every request without replacing the
// protocol headers webpush-go sets.
type headerClient struct {
	client  *http.Client
	headers map[string]string
}

func (c *headerClient) Do(req *http.Request) (*http.Response, error) {
	for k, v := range c.headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return c.client.Do(req)
}
