package config

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
)

// Allowed values for enumerated notification attributes.
const (
	InteractionOptional = "optional"
	InteractionRequired = "required"

	VolumeDefault = "default"
	VolumeSilent  = "silent"

	UrgencyVeryLow = "very-low"
	UrgencyLow     = "low"
	UrgencyNormal  = "normal"
	UrgencyHigh    = "high"

	BodySourceLiteral = "str"
	BodySourceMessage = "msg"

	// ContentEncoding is the only payload encryption scheme supported by the
	// webpush transport.
	ContentEncoding = "aes128gcm"
)

var (
	Interactions = []string{InteractionOptional, InteractionRequired}
	Volumes      = []string{VolumeDefault, VolumeSilent}
	Urgencies    = []string{UrgencyVeryLow, UrgencyLow, UrgencyNormal, UrgencyHigh}
)

// Config captures module-level configuration knobs. Feature packages
// (registry, dispatcher, transports) pull from these nested structs.
type Config struct {
	Widget       WidgetConfig       `mapstructure:"widget" json:"widget" yaml:"widget"`
	VAPID        VAPIDConfig        `mapstructure:"vapid" json:"vapid" yaml:"vapid"`
	Notification NotificationConfig `mapstructure:"notification" json:"notification" yaml:"notification"`
	Dispatcher   DispatcherConfig   `mapstructure:"dispatcher" json:"dispatcher" yaml:"dispatcher"`
	Storage      StorageConfig      `mapstructure:"storage" json:"storage" yaml:"storage"`
	Server       ServerConfig       `mapstructure:"server" json:"server" yaml:"server"`
	Auth         AuthConfig         `mapstructure:"auth" json:"auth" yaml:"auth"`
	Kafka        KafkaConfig        `mapstructure:"kafka" json:"kafka" yaml:"kafka"`
	Credentials  CredentialsConfig  `mapstructure:"credentials" json:"credentials" yaml:"credentials"`
	Logging      LoggingConfig      `mapstructure:"logging" json:"logging" yaml:"logging"`
}

// WidgetConfig identifies the widget instance owning the registry.
type WidgetConfig struct {
	ID           string `mapstructure:"id" json:"id" yaml:"id"`
	Name         string `mapstructure:"name" json:"name" yaml:"name"`
	ContextStore string `mapstructure:"context_store" json:"context_store" yaml:"context_store"`
}

// VAPIDConfig holds the sender identity. None of these are overridable per
// message: every stored subscription is bound to the key pair.
type VAPIDConfig struct {
	Subject    string `mapstructure:"subject" json:"subject" yaml:"subject"`
	PublicKey  string `mapstructure:"public_key" json:"public_key" yaml:"public_key"`
	PrivateKey string `mapstructure:"private_key" json:"private_key" yaml:"private_key"`
}

// NotificationConfig is the static layer of the notification attributes.
type NotificationConfig struct {
	Title       string            `mapstructure:"title" json:"title" yaml:"title"`
	Body        string            `mapstructure:"body" json:"body" yaml:"body"`
	BodySource  string            `mapstructure:"body_source" json:"body_source" yaml:"body_source"`
	BodyField   string            `mapstructure:"body_field" json:"body_field" yaml:"body_field"`
	Badge       string            `mapstructure:"badge" json:"badge" yaml:"badge"`
	Icon        string            `mapstructure:"icon" json:"icon" yaml:"icon"`
	Image       string            `mapstructure:"image" json:"image" yaml:"image"`
	Tag         string            `mapstructure:"tag" json:"tag" yaml:"tag"`
	Interaction string            `mapstructure:"interaction" json:"interaction" yaml:"interaction"`
	Volume      string            `mapstructure:"volume" json:"volume" yaml:"volume"`
	URL         string            `mapstructure:"url" json:"url" yaml:"url"`
	Timeout     int               `mapstructure:"timeout" json:"timeout" yaml:"timeout"` // milliseconds
	TTL         int               `mapstructure:"ttl" json:"ttl" yaml:"ttl"`             // seconds
	Urgency     string            `mapstructure:"urgency" json:"urgency" yaml:"urgency"`
	Headers     map[string]string `mapstructure:"headers" json:"headers" yaml:"headers"`
}

// TimeoutDuration converts the millisecond timeout.
func (n NotificationConfig) TimeoutDuration() time.Duration {
	return time.Duration(n.Timeout) * time.Millisecond
}

// DispatcherConfig picks the transport and bounds the delivery fan-out.
type DispatcherConfig struct {
	Transport       string `mapstructure:"transport" json:"transport" yaml:"transport"`
	MaxWorkers      int    `mapstructure:"max_workers" json:"max_workers" yaml:"max_workers"`
	ContentEncoding string `mapstructure:"content_encoding" json:"content_encoding" yaml:"content_encoding"`
	// WebhookURL, when set, registers the "webhook" relay transport.
	WebhookURL      string `mapstructure:"webhook_url" json:"webhook_url" yaml:"webhook_url"`
}

// StorageConfig selects the context store backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver" json:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" json:"dsn" yaml:"dsn"`
}

// ServerConfig configures the HTTP command surface.
type ServerConfig struct {
	Host     string `mapstructure:"host" json:"host" yaml:"host"`
	Port     string `mapstructure:"port" json:"port" yaml:"port"`
	BasePath string `mapstructure:"base_path" json:"base_path" yaml:"base_path"`
}

// AuthConfig protects admin endpoints.
type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret" json:"jwt_secret" yaml:"jwt_secret"`
	Permission string `mapstructure:"permission" json:"permission" yaml:"permission"`
}

// KafkaConfig enables the flow command consumer.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Brokers []string `mapstructure:"brokers" json:"brokers" yaml:"brokers"`
	GroupID string   `mapstructure:"group_id" json:"group_id" yaml:"group_id"`
	Topic   string   `mapstructure:"topic" json:"topic" yaml:"topic"`
}

// CredentialsConfig holds the at-rest encryption key (hex, 32 bytes) for
// stored widget credentials. Empty keeps credentials in memory only.
type CredentialsConfig struct {
	EncryptionKey string `mapstructure:"encryption_key" json:"encryption_key" yaml:"encryption_key"`
}

// LoggingConfig sets the minimum level for the basic logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level" yaml:"level"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Widget: WidgetConfig{
			ID:           "web-push",
			Name:         "Web Push",
			ContextStore: "default",
		},
		Notification: NotificationConfig{
			BodySource:  BodySourceMessage,
			BodyField:   "payload",
			Interaction: InteractionOptional,
			Volume:      VolumeDefault,
			Timeout:     10000,
			TTL:         2419200,
			Urgency:     UrgencyNormal,
		},
		Dispatcher: DispatcherConfig{
			Transport:       "webpush",
			MaxWorkers:      8,
			ContentEncoding: ContentEncoding,
		},
		Storage: StorageConfig{
			Driver: "memory",
		},
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     "1880",
			BasePath: "/ui_web_push",
		},
		Auth: AuthConfig{
			Permission: "ui_web_push.write",
		},
		Kafka: KafkaConfig{
			GroupID: "webpush",
			Topic:   "webpush.commands",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate ensures required fields are present and sane. VAPID credentials
// are checked per dispatch, not here, so a widget can collect subscriptions
// before keys are configured.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Widget.ID) == "" {
		return errors.New("widget.id is required")
	}
	if c.Dispatcher.MaxWorkers <= 0 {
		return fmt.Errorf("dispatcher.max_workers must be > 0")
	}
	if c.Dispatcher.ContentEncoding != ContentEncoding {
		return fmt.Errorf("dispatcher.content_encoding must be %s", ContentEncoding)
	}
	if c.Notification.Timeout < 0 {
		return fmt.Errorf("notification.timeout must be >= 0")
	}
	if c.Notification.TTL < 0 {
		return fmt.Errorf("notification.ttl must be >= 0")
	}
	if !OneOf(c.Notification.Interaction, Interactions) {
		return fmt.Errorf("notification.interaction must be one of %v", Interactions)
	}
	if !OneOf(c.Notification.Volume, Volumes) {
		return fmt.Errorf("notification.volume must be one of %v", Volumes)
	}
	if !OneOf(c.Notification.Urgency, Urgencies) {
		return fmt.Errorf("notification.urgency must be one of %v", Urgencies)
	}
	if !OneOf(c.Notification.BodySource, []string{BodySourceLiteral, BodySourceMessage}) {
		return fmt.Errorf("notification.body_source must be %s or %s", BodySourceLiteral, BodySourceMessage)
	}
	switch c.Storage.Driver {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("storage.dsn is required for sqlite")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}
	if key := c.Credentials.EncryptionKey; key != "" {
		raw, err := hex.DecodeString(key)
		if err != nil || len(raw) != 32 {
			return errors.New("credentials.encryption_key must be 32 hex-encoded bytes")
		}
	}
	return nil
}

// EncryptionKeyBytes decodes the credentials key. Call after Validate.
func (c *Config) EncryptionKeyBytes() []byte {
	if c.Credentials.EncryptionKey == "" {
		return nil
	}
	raw, _ := hex.DecodeString(c.Credentials.EncryptionKey)
	return raw
}

// OneOf reports whether value is part of allowed.
func OneOf(value string, allowed []string) bool {
	for _, candidate := range allowed {
		if value == candidate {
			return true
		}
	}
	return false
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// When cfgx yields a zero value we fall back to a JSON round-trip decoder.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()
	if settings.getenv != nil {
		cfg = ApplyEnv(cfg, settings.getenv)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
	getenv    func(string) string
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

// WithEnv overlays WEBPUSH_* variables read through getenv after decoding.
func WithEnv(getenv func(string) string) LoadOption {
	return func(lo *loadOptions) {
		lo.getenv = getenv
	}
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Widget.ID == "" {
		c.Widget.ID = defaults.Widget.ID
	}
	if c.Widget.Name == "" {
		c.Widget.Name = defaults.Widget.Name
	}
	if c.Widget.ContextStore == "" {
		c.Widget.ContextStore = defaults.Widget.ContextStore
	}
	n := &c.Notification
	if n.BodySource == "" {
		n.BodySource = defaults.Notification.BodySource
	}
	if n.BodyField == "" {
		n.BodyField = defaults.Notification.BodyField
	}
	if n.Interaction == "" {
		n.Interaction = defaults.Notification.Interaction
	}
	if n.Volume == "" {
		n.Volume = defaults.Notification.Volume
	}
	if n.Urgency == "" {
		n.Urgency = defaults.Notification.Urgency
	}
	if n.Timeout == 0 {
		n.Timeout = defaults.Notification.Timeout
	}
	if n.TTL == 0 {
		n.TTL = defaults.Notification.TTL
	}
	if c.Dispatcher.Transport == "" {
		c.Dispatcher.Transport = defaults.Dispatcher.Transport
	}
	if c.Dispatcher.MaxWorkers == 0 {
		c.Dispatcher.MaxWorkers = defaults.Dispatcher.MaxWorkers
	}
	if c.Dispatcher.ContentEncoding == "" {
		c.Dispatcher.ContentEncoding = defaults.Dispatcher.ContentEncoding
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaults.Storage.Driver
	}
	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == "" {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = defaults.Server.BasePath
	}
	if c.Auth.Permission == "" {
		c.Auth.Permission = defaults.Auth.Permission
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = defaults.Kafka.GroupID
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = defaults.Kafka.Topic
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, cfg)
}
