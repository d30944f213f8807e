package credentials

import (
	"context"
	"sync"
	"time"
)

// StaticProvider keeps credentials in memory (no encryption). Only the latest
// version of each reference is retained.
type StaticProvider struct {
	mu    sync.RWMutex
	store map[string]Value
	now   func() time.Time
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider builds an in-memory provider seeded with optional values.
func NewStaticProvider(seed map[Reference][]byte) *StaticProvider {
	p := &StaticProvider{store: make(map[string]Value), now: func() time.Time { return time.Now().UTC() }}
	for ref, data := range seed {
		p.store[storeKey(ref)] = Value{Data: append([]byte(nil), data...), Version: ref.Version}
	}
	return p
}

func (p *StaticProvider) Get(ctx context.Context, ref Reference) (Value, error) {
	if err := ValidateReference(ref); err != nil {
		return Value{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.store[storeKey(ref)]
	if !ok || (ref.Version != "" && val.Version != ref.Version) {
		return Value{}, ErrNotFound
	}
	val.Retrieved = p.now()
	return val, nil
}

func (p *StaticProvider) Put(ctx context.Context, ref Reference, value []byte) (string, error) {
	if err := ValidateReference(ref); err != nil {
		return "", err
	}
	if len(value) == 0 {
		return "", ErrEmptyValue
	}
	if ref.Version == "" {
		ref.Version = p.now().Format(time.RFC3339Nano)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store[storeKey(ref)] = Value{
		Data:    append([]byte(nil), value...),
		Version: ref.Version,
	}
	return ref.Version, nil
}

func (p *StaticProvider) Delete(ctx context.Context, ref Reference) error {
	if err := ValidateReference(ref); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.store, storeKey(ref))
	return nil
}

func storeKey(ref Reference) string {
	return ref.WidgetID + "." + ref.Key
}
