package contextstore

import (
	"context"
	"errors"
)

// ErrInvalidKey is returned when scope or key are blank.
var ErrInvalidKey = errors.New("contextstore: scope and key are required")

// Store persists JSON documents under (scope, key). Set replaces the whole
// document; readers never observe a partially written value.
type Store interface {
	// Get decodes the value stored at (scope, key) into dest. It reports
	// false when nothing is stored.
	Get(ctx context.Context, scope, key string, dest any) (bool, error)
	Set(ctx context.Context, scope, key string, value any) error
	Delete(ctx context.Context, scope, key string) error
}

// Nop stores nothing and always reports a miss.
type Nop struct{}

var _ Store = (*Nop)(nil)

func (n *Nop) Get(ctx context.Context, scope, key string, dest any) (bool, error) {
	return false, nil
}
func (n *Nop) Set(ctx context.Context, scope, key string, value any) error { return nil }
func (n *Nop) Delete(ctx context.Context, scope, key string) error         { return nil }
