package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureID assigns a UUID when the struct is about to be persisted.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// SubscriptionKeys carries the encryption material a browser hands out with
// its push subscription. The registry never inspects it.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one browser's push endpoint registration. Endpoint is the
// identity; two subscriptions with the same endpoint are the same subscriber.
type Subscription struct {
	Endpoint       string           `json:"endpoint"`
	ExpirationTime *int64           `json:"expirationTime,omitempty"`
	Keys           SubscriptionKeys `json:"keys"`
}

// SameEndpoint reports whether both subscriptions target the same endpoint.
func (s Subscription) SameEndpoint(endpoint string) bool {
	return s.Endpoint == endpoint
}

// Valid reports whether the subscription can be stored.
func (s Subscription) Valid() bool {
	return strings.TrimSpace(s.Endpoint) != ""
}

// SubscriptionList stores []Subscription as JSON.
type SubscriptionList []Subscription

func (l SubscriptionList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]Subscription{})
	}
	return json.Marshal([]Subscription(l))
}

func (l *SubscriptionList) Scan(value any) error {
	if l == nil {
		return errors.New("SubscriptionList: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]Subscription)(l))
	case string:
		return json.Unmarshal([]byte(v), (*[]Subscription)(l))
	default:
		return fmt.Errorf("SubscriptionList: unsupported type %T", value)
	}
}

// Clone returns an independent copy of the list.
func (l SubscriptionList) Clone() SubscriptionList {
	if l == nil {
		return SubscriptionList{}
	}
	out := make(SubscriptionList, len(l))
	copy(out, l)
	return out
}

// RawJSON stores an already encoded JSON document.
type RawJSON json.RawMessage

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

func (r *RawJSON) Scan(value any) error {
	if r == nil {
		return errors.New("RawJSON: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		*r = append(RawJSON(nil), v...)
		return nil
	case string:
		*r = RawJSON(v)
		return nil
	default:
		return fmt.Errorf("RawJSON: unsupported type %T", value)
	}
}

// ContextEntry is one scoped key in the persistent context store. Value holds
// the whole stored document so writes replace it atomically.
type ContextEntry struct {
	bun.BaseModel `bun:"table:context_entries,alias:ce"`
	RecordMeta
	Scope string  `bun:"scope,notnull,unique:scope_key" json:"scope"`
	Key   string  `bun:"key,notnull,unique:scope_key" json:"key"`
	Value RawJSON `bun:"value,type:jsonb" json:"value"`
}
