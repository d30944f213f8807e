package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML or JSON document and decodes it through Load.
func LoadFile(path string, opts ...LoadOption) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	input := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &input)
	default:
		err = yaml.Unmarshal(data, &input)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return Load(input, opts...)
}

// ApplyEnv overlays WEBPUSH_* environment variables on top of cfg.
func ApplyEnv(cfg Config, getenv func(string) string) Config {
	if getenv == nil {
		return cfg
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Widget.ID, "WEBPUSH_WIDGET_ID")
	set(&cfg.VAPID.Subject, "WEBPUSH_VAPID_SUBJECT")
	set(&cfg.VAPID.PublicKey, "WEBPUSH_VAPID_PUBLIC_KEY")
	set(&cfg.VAPID.PrivateKey, "WEBPUSH_VAPID_PRIVATE_KEY")
	set(&cfg.Dispatcher.Transport, "WEBPUSH_TRANSPORT")
	set(&cfg.Dispatcher.WebhookURL, "WEBPUSH_WEBHOOK_URL")
	set(&cfg.Storage.Driver, "WEBPUSH_STORAGE_DRIVER")
	set(&cfg.Storage.DSN, "WEBPUSH_STORAGE_DSN")
	set(&cfg.Server.Host, "WEBPUSH_SERVER_HOST")
	set(&cfg.Server.Port, "WEBPUSH_SERVER_PORT")
	set(&cfg.Auth.JWTSecret, "WEBPUSH_JWT_SECRET")
	set(&cfg.Kafka.Topic, "WEBPUSH_KAFKA_TOPIC")
	set(&cfg.Kafka.GroupID, "WEBPUSH_KAFKA_GROUP")
	set(&cfg.Credentials.EncryptionKey, "WEBPUSH_CREDENTIALS_KEY")
	set(&cfg.Logging.Level, "WEBPUSH_LOG_LEVEL")
	if brokers := strings.TrimSpace(getenv("WEBPUSH_KAFKA_BROKERS")); brokers != "" {
		cfg.Kafka.Brokers = nil
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
		cfg.Kafka.Enabled = len(cfg.Kafka.Brokers) > 0
	}
	return cfg
}
