package adapters

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-webpush/pkg/domain"
)

// Credentials is the sender identity used to sign a push request.
type Credentials struct {
	Subject    string
	PublicKey  string
	PrivateKey string
}

// DeliveryOptions carries per-attempt push-service parameters.
type DeliveryOptions struct {
	Credentials     Credentials
	ContentEncoding string
	TTL             int // seconds
	Urgency         string
	Topic           string
	Timeout         time.Duration
	Headers         map[string]string
}

// Message is one encrypted-payload delivery to a single subscription.
type Message struct {
	ID           string
	CommandID    string
	Subscription domain.Subscription
	Payload      []byte
	Options      DeliveryOptions
}

// Capability describes what a messenger can deliver.
type Capability struct {
	Name      string
	Encodings []string
	DryRun    bool
	Metadata  map[string]string
}

// Messenger is implemented by push transports (webpush, console).
type Messenger interface {
	Name() string
	Capabilities() Capability
	Send(ctx context.Context, msg Message) error
}

// ErrAdapterNotFound is returned when no messenger is registered under a name.
var ErrAdapterNotFound = errors.New("adapters: no adapter matches route")

// Registry stores available messengers by name.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Messenger
}

// NewRegistry builds a registry with the supplied messengers.
func NewRegistry(messengers ...Messenger) *Registry {
	reg := &Registry{adapters: make(map[string]Messenger)}
	for _, m := range messengers {
		reg.Register(m)
	}
	return reg
}

// Register adds a messenger, replacing any previous one with the same name.
func (r *Registry) Register(m Messenger) {
	if r == nil || m == nil {
		return
	}
	name := normalizeKey(m.Name())
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = m
}

// Route locates a messenger by name.
func (r *Registry) Route(name string) (Messenger, error) {
	if r == nil {
		return nil, ErrAdapterNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[normalizeKey(name)]
	if !ok {
		return nil, ErrAdapterNotFound
	}
	return adapter, nil
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Describe returns a human-readable summary of the registry entries.
func (r *Registry) Describe() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for name, adapter := range r.adapters {
		caps := adapter.Capabilities()
		desc := fmt.Sprintf("%s (%s)", name, strings.Join(caps.Encodings, ","))
		if caps.DryRun {
			desc += " dry-run"
		}
		out = append(out, desc)
	}
	sort.Strings(out)
	return out
}

// StatusCoder is implemented by delivery errors that carry the push service
// HTTP status.
type StatusCoder interface {
	HTTPStatusCode() int
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}
