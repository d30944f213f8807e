package options

import (
	"fmt"
	"time"

	opts "github.com/goliatone/go-options"

	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/domain"
)

// Settings is the effective notification configuration for one dispatch.
type Settings struct {
	Title       string
	Body        string
	Badge       string
	Icon        string
	Image       string
	Tag         string
	Interaction string
	Volume      string
	URL         string
	Urgency     string
	Timeout     int
	TTL         int
	Headers     map[string]string
	Actions     []domain.Action

	// Traces records which layer supplied each scalar field.
	Traces map[string]opts.Trace
}

// TimeoutDuration converts the millisecond timeout.
func (s Settings) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Millisecond
}

var stringKeys = []string{
	KeyTitle, KeyBody, KeyBadge, KeyIcon, KeyImage, KeyTag,
	KeyInteraction, KeyVolume, KeyURL, KeyUrgency,
}

var intKeys = []string{KeyTimeout, KeyTTL}

// Effective layers the overrides over the static notification config.
// Scalars resolve through the go-options stack; headers and actions from the
// override replace the static value as a whole.
func Effective(static config.NotificationConfig, o Overrides) (Settings, error) {
	snapshots := []Snapshot{{Scope: StaticScope, Data: staticMap(static)}}
	if dynamic := o.scalars(); len(dynamic) > 0 {
		snapshots = append(snapshots, Snapshot{Scope: DynamicScope, Data: dynamic})
	}

	resolver, err := NewResolver(snapshots...)
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{Traces: make(map[string]opts.Trace, len(stringKeys)+len(intKeys))}
	strs := map[string]*string{
		KeyTitle:       &settings.Title,
		KeyBody:        &settings.Body,
		KeyBadge:       &settings.Badge,
		KeyIcon:        &settings.Icon,
		KeyImage:       &settings.Image,
		KeyTag:         &settings.Tag,
		KeyInteraction: &settings.Interaction,
		KeyVolume:      &settings.Volume,
		KeyURL:         &settings.URL,
		KeyUrgency:     &settings.Urgency,
	}
	for _, key := range stringKeys {
		value, trace, err := resolver.ResolveString(key)
		if err != nil {
			return Settings{}, fmt.Errorf("options: resolve %s: %w", key, err)
		}
		*strs[key] = value
		settings.Traces[key] = trace
	}

	ints := map[string]*int{KeyTimeout: &settings.Timeout, KeyTTL: &settings.TTL}
	for _, key := range intKeys {
		value, trace, err := resolver.ResolveInt(key)
		if err != nil {
			return Settings{}, fmt.Errorf("options: resolve %s: %w", key, err)
		}
		*ints[key] = value
		settings.Traces[key] = trace
	}

	settings.Headers = copyHeaders(static.Headers)
	if o.Headers != nil {
		settings.Headers = copyHeaders(o.Headers)
	}
	if o.Actions != nil {
		settings.Actions = append([]domain.Action{}, o.Actions...)
	}
	return settings, nil
}

func staticMap(static config.NotificationConfig) map[string]any {
	return map[string]any{
		KeyTitle:       static.Title,
		KeyBody:        static.Body,
		KeyBadge:       static.Badge,
		KeyIcon:        static.Icon,
		KeyImage:       static.Image,
		KeyTag:         static.Tag,
		KeyInteraction: static.Interaction,
		KeyVolume:      static.Volume,
		KeyURL:         static.URL,
		KeyUrgency:     static.Urgency,
		KeyTimeout:     static.Timeout,
		KeyTTL:         static.TTL,
	}
}

func copyHeaders(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
