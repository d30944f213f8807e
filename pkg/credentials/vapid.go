package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-webpush/pkg/config"
)

// ResolveVAPID fills missing keys of cfg from the widget credentials.
// Configured values always win. A missing stored key is not an error; the
// dispatcher reports incomplete credentials at send time.
func ResolveVAPID(ctx context.Context, provider Provider, widgetID string, cfg config.VAPIDConfig) (config.VAPIDConfig, error) {
	if provider == nil {
		return cfg, nil
	}
	fill := func(target *string, key string) error {
		if *target != "" {
			return nil
		}
		val, err := provider.Get(ctx, Reference{WidgetID: widgetID, Key: key})
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("credentials: resolve %s: %w", key, err)
		}
		*target = string(val.Data)
		return nil
	}
	if err := fill(&cfg.PrivateKey, KeyPrivateKey); err != nil {
		return cfg, err
	}
	if err := fill(&cfg.PublicKey, KeyPublicKey); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// StoreVAPID persists a generated key pair for widgetID.
func StoreVAPID(ctx context.Context, provider Provider, widgetID, publicKey, privateKey string) error {
	if provider == nil {
		return ErrNotFound
	}
	if _, err := provider.Put(ctx, Reference{WidgetID: widgetID, Key: KeyPublicKey}, []byte(publicKey)); err != nil {
		return fmt.Errorf("credentials: store public key: %w", err)
	}
	if _, err := provider.Put(ctx, Reference{WidgetID: widgetID, Key: KeyPrivateKey}, []byte(privateKey)); err != nil {
		return fmt.Errorf("credentials: store private key: %w", err)
	}
	return nil
}
