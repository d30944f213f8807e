package credentials

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/storage"
)

func TestStaticProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	prov := NewStaticProvider(nil)
	ref := Reference{WidgetID: "w1", Key: KeyPrivateKey}

	if _, err := prov.Get(ctx, ref); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	ver, err := prov.Put(ctx, ref, []byte("priv"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := prov.Get(ctx, ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Data) != "priv" || got.Version != ver {
		t.Fatalf("unexpected value %+v", got)
	}
	if _, err := prov.Put(ctx, ref, nil); !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("expected ErrEmptyValue, got %v", err)
	}
	if _, err := prov.Get(ctx, Reference{Key: "x"}); !errors.Is(err, ErrInvalidRef) {
		t.Fatalf("expected ErrInvalidRef, got %v", err)
	}
	if err := prov.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := prov.Get(ctx, ref); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete")
	}
}

func TestEncryptedProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	providers := storage.NewMemoryProviders()
	prov, err := NewEncryptedProvider(providers.Context, bytes.Repeat([]byte{1}, 32))
	if err != nil {
		t.Fatalf("provider: %v", err)
	}

	ref := Reference{WidgetID: "w1", Key: KeyPrivateKey}
	ver, err := prov.Put(ctx, ref, []byte("supersecret"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	var raw map[string]any
	ok, err := providers.Context.Get(ctx, Scope, "w1."+KeyPrivateKey, &raw)
	if err != nil || !ok {
		t.Fatalf("expected stored record, ok=%v err=%v", ok, err)
	}
	if cipher, _ := raw["cipher"].(string); cipher == "" || strings.Contains(cipher, "supersecret") {
		t.Fatalf("expected ciphertext at rest, got %v", raw["cipher"])
	}

	got, err := prov.Get(ctx, ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Data) != "supersecret" || got.Version != ver {
		t.Fatalf("unexpected value %+v", got)
	}

	other, err := NewEncryptedProvider(providers.Context, bytes.Repeat([]byte{2}, 32))
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	if _, err := other.Get(ctx, ref); err == nil {
		t.Fatalf("expected decrypt failure with a different key")
	}

	if err := prov.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := prov.Get(ctx, ref); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestEncryptedProviderRejectsShortKey(t *testing.T) {
	providers := storage.NewMemoryProviders()
	if _, err := NewEncryptedProvider(providers.Context, []byte("short")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestResolveVAPID(t *testing.T) {
	ctx := context.Background()
	prov := NewStaticProvider(nil)
	if err := StoreVAPID(ctx, prov, "w1", "stored-pub", "stored-priv"); err != nil {
		t.Fatalf("store: %v", err)
	}

	cfg, err := ResolveVAPID(ctx, prov, "w1", config.VAPIDConfig{Subject: "mailto:a@b.c", PublicKey: "configured-pub"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.PublicKey != "configured-pub" {
		t.Fatalf("configured value must win, got %s", cfg.PublicKey)
	}
	if cfg.PrivateKey != "stored-priv" {
		t.Fatalf("expected stored private key, got %s", cfg.PrivateKey)
	}

	cfg, err = ResolveVAPID(ctx, prov, "unknown", config.VAPIDConfig{})
	if err != nil {
		t.Fatalf("resolve unknown: %v", err)
	}
	if cfg.PrivateKey != "" {
		t.Fatalf("expected empty private key for unknown widget")
	}
}

func TestMask(t *testing.T) {
	if Mask("") != "" {
		t.Fatalf("expected empty mask for empty value")
	}
	masked := Mask("supersecretvalue")
	if masked == "supersecretvalue" || strings.Contains(masked, "secret") {
		t.Fatalf("expected value to be masked, got %s", masked)
	}
}
