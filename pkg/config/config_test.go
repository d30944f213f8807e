package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromMap(t *testing.T) {
	input := map[string]any{
		"widget": map[string]any{
			"id": "door-alerts",
		},
		"notification": map[string]any{
			"title":   "Alert",
			"urgency": "high",
			"ttl":     60,
		},
		"dispatcher": map[string]any{
			"max_workers": 2,
		},
	}

	cfg, err := Load(input)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Widget.ID != "door-alerts" {
		t.Fatalf("expected widget id door-alerts, got %s", cfg.Widget.ID)
	}
	if cfg.Notification.Urgency != UrgencyHigh {
		t.Fatalf("expected urgency high, got %s", cfg.Notification.Urgency)
	}
	if cfg.Notification.TTL != 60 {
		t.Fatalf("expected ttl 60, got %d", cfg.Notification.TTL)
	}
	if cfg.Dispatcher.MaxWorkers != 2 {
		t.Fatalf("expected workers 2, got %d", cfg.Dispatcher.MaxWorkers)
	}
	if cfg.Notification.Interaction != InteractionOptional {
		t.Fatalf("expected default interaction, got %s", cfg.Notification.Interaction)
	}
}

func TestLoadFromStruct(t *testing.T) {
	input := Config{
		Widget:     WidgetConfig{ID: "w1"},
		Dispatcher: DispatcherConfig{MaxWorkers: 10},
	}

	cfg, err := Load(input)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Dispatcher.MaxWorkers != 10 {
		t.Fatalf("expected workers 10, got %d", cfg.Dispatcher.MaxWorkers)
	}
	if cfg.Dispatcher.ContentEncoding != ContentEncoding {
		t.Fatalf("expected default content encoding, got %s", cfg.Dispatcher.ContentEncoding)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("expected memory storage by default, got %s", cfg.Storage.Driver)
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cases := map[string]func(*Config){
		"urgency":     func(c *Config) { c.Notification.Urgency = "silent" },
		"volume":      func(c *Config) { c.Notification.Volume = "loud" },
		"interaction": func(c *Config) { c.Notification.Interaction = "maybe" },
		"encoding":    func(c *Config) { c.Dispatcher.ContentEncoding = "aesgcm" },
		"storage":     func(c *Config) { c.Storage.Driver = "sqlite" },
		"key":         func(c *Config) { c.Credentials.EncryptionKey = "abcd" },
		"kafka":       func(c *Config) { c.Kafka.Enabled = true },
	}
	for name, mutate := range cases {
		cfg := Defaults()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestValidateAllowsMissingVAPID(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate without keys: %v", err)
	}
}

func TestLoadFileYAMLWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "webpush.yaml")
	doc := strings.Join([]string{
		"widget:",
		"  id: garage",
		"vapid:",
		"  subject: mailto:ops@example.com",
		"notification:",
		"  title: Garage",
		"  headers:",
		"    X-Flow: garage",
	}, "\n")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	env := map[string]string{
		"WEBPUSH_VAPID_PUBLIC_KEY": "pub",
		"WEBPUSH_KAFKA_BROKERS":    "k1:9092, k2:9092",
	}
	cfg, err := LoadFile(path, WithEnv(func(k string) string { return env[k] }))
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.Widget.ID != "garage" || cfg.VAPID.Subject != "mailto:ops@example.com" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Notification.Headers["X-Flow"] != "garage" {
		t.Fatalf("expected header to be decoded, got %v", cfg.Notification.Headers)
	}
	if cfg.VAPID.PublicKey != "pub" {
		t.Fatalf("expected env public key, got %q", cfg.VAPID.PublicKey)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected kafka config %+v", cfg.Kafka)
	}
}

func TestEncryptionKeyBytes(t *testing.T) {
	cfg := Defaults()
	cfg.Credentials.EncryptionKey = strings.Repeat("ab", 32)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(cfg.EncryptionKeyBytes()) != 32 {
		t.Fatalf("expected 32 byte key")
	}
}
