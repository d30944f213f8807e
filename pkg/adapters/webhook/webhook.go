package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-webpush/pkg/adapters"
	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
)

// Adapter relays each delivery, unencrypted, to a fixed HTTP endpoint. It
// suits gateways that own the push encryption and local integration setups.
type Adapter struct {
	name   string
	base   adapters.BaseAdapter
	caps   adapters.Capability
	cfg    Config
	client *http.Client
}

// Config configures the webhook adapter.
type Config struct {
	URL           string
	Method        string
	Headers       map[string]string
	Timeout       time.Duration
	BasicAuthUser string
	BasicAuthPass string
}

// StatusError reports a non-2xx relay response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook: unexpected status %d", e.StatusCode)
}

// HTTPStatusCode exposes the relay status to the dispatcher.
func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

type Option func(*Adapter)

// WithName overrides the adapter name.
func WithName(name string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(name) != "" {
			a.name = name
		}
	}
}

// WithConfig sets the adapter configuration.
func WithConfig(cfg Config) Option {
	return func(a *Adapter) {
		a.cfg = cfg
	}
}

// WithClient allows injecting a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

// New constructs the webhook adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "webhook",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:      "webhook",
			Encodings: []string{"identity"},
		},
		cfg: Config{
			Method:  http.MethodPost,
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	if adapter.cfg.Method == "" {
		adapter.cfg.Method = http.MethodPost
	}
	if adapter.client == nil {
		adapter.client = &http.Client{Timeout: adapter.cfg.Timeout}
	}
	return adapter
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

type relayBody struct {
	CommandID    string              `json:"command_id,omitempty"`
	Subscription domain.Subscription `json:"subscription"`
	TTL          int                 `json:"ttl"`
	Urgency      string              `json:"urgency,omitempty"`
	Topic        string              `json:"topic,omitempty"`
	Payload      json.RawMessage     `json:"payload"`
}

func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	if strings.TrimSpace(a.cfg.URL) == "" {
		return fmt.Errorf("webhook: url is required")
	}

	body, err := json.Marshal(relayBody{
		CommandID:    msg.CommandID,
		Subscription: msg.Subscription,
		TTL:          msg.Options.TTL,
		Urgency:      msg.Options.Urgency,
		Topic:        msg.Options.Topic,
		Payload:      msg.Payload,
	})
	if err != nil {
		return fmt.Errorf("webhook: encode body: %w", err)
	}

	if msg.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, msg.Options.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(a.cfg.Method), a.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}

	for k, v := range a.cfg.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range msg.Options.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.cfg.BasicAuthUser != "" {
		req.SetBasicAuth(a.cfg.BasicAuthUser, a.cfg.BasicAuthPass)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.base.LogFailure(a.name, msg, err)
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := &StatusError{StatusCode: resp.StatusCode}
		a.base.LogFailure(a.name, msg, err)
		return err
	}

	a.base.LogSuccess(a.name, msg)
	return nil
}
