package credentials

import (
	"context"
	"time"
)

// Well known credential keys stored per widget.
const (
	KeyPrivateKey = "private_key"
	KeyPublicKey  = "public_key"
)

// Reference identifies a credential owned by a widget.
type Reference struct {
	WidgetID string
	Key      string
	Version  string
}

// Value carries the resolved credential payload.
type Value struct {
	Data      []byte
	Version   string
	Retrieved time.Time
}

// Provider resolves and manages widget credentials.
type Provider interface {
	Get(ctx context.Context, ref Reference) (Value, error)
	Put(ctx context.Context, ref Reference, value []byte) (string, error)
	Delete(ctx context.Context, ref Reference) error
}
