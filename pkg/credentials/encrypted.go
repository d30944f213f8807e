package credentials

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/goliatone/go-webpush/pkg/interfaces/contextstore"
	"golang.org/x/crypto/chacha20poly1305"
)

// Scope is the context store scope holding encrypted credentials.
const Scope = "credentials"

// EncryptedProvider persists credentials encrypted through a context store.
type EncryptedProvider struct {
	store contextstore.Store
	aead  cipherSuite
	now   func() time.Time
}

var _ Provider = (*EncryptedProvider)(nil)

type cipherSuite interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
}

type sealedRecord struct {
	Cipher    []byte    `json:"cipher"`
	Nonce     []byte    `json:"nonce"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEncryptedProvider builds a provider using the given store and a 32 byte
// key.
func NewEncryptedProvider(store contextstore.Store, key []byte) (*EncryptedProvider, error) {
	if store == nil {
		return nil, fmt.Errorf("encrypted provider: store required")
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: must be %d bytes", ErrInvalidKey, chacha20poly1305.KeySize)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &EncryptedProvider{
		store: store,
		aead:  aead,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *EncryptedProvider) Get(ctx context.Context, ref Reference) (Value, error) {
	if err := ValidateReference(ref); err != nil {
		return Value{}, err
	}
	var rec sealedRecord
	ok, err := p.store.Get(ctx, Scope, storeKey(ref), &rec)
	if err != nil {
		return Value{}, err
	}
	if !ok || (ref.Version != "" && rec.Version != ref.Version) {
		return Value{}, ErrNotFound
	}
	// the reference is bound as additional data
	plain, err := p.aead.Open(nil, rec.Nonce, rec.Cipher, []byte(storeKey(ref)))
	if err != nil {
		return Value{}, fmt.Errorf("decrypt: %w", err)
	}
	return Value{Data: plain, Version: rec.Version, Retrieved: p.now()}, nil
}

func (p *EncryptedProvider) Put(ctx context.Context, ref Reference, value []byte) (string, error) {
	if err := ValidateReference(ref); err != nil {
		return "", err
	}
	if len(value) == 0 {
		return "", ErrEmptyValue
	}
	if ref.Version == "" {
		ref.Version = p.now().Format(time.RFC3339Nano)
	}
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	rec := sealedRecord{
		Cipher:    p.aead.Seal(nil, nonce, value, []byte(storeKey(ref))),
		Nonce:     nonce,
		Version:   ref.Version,
		CreatedAt: p.now(),
	}
	if err := p.store.Set(ctx, Scope, storeKey(ref), rec); err != nil {
		return "", err
	}
	return ref.Version, nil
}

func (p *EncryptedProvider) Delete(ctx context.Context, ref Reference) error {
	if err := ValidateReference(ref); err != nil {
		return err
	}
	return p.store.Delete(ctx, Scope, storeKey(ref))
}
