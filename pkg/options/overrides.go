package options

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/domain"
)

// Override keys accepted in a ui_update map.
const (
	KeyTitle       = "title"
	KeyBody        = "body"
	KeyBadge       = "badge"
	KeyIcon        = "icon"
	KeyImage       = "image"
	KeyTag         = "tag"
	KeyInteraction = "interaction"
	KeyVolume      = "volume"
	KeyURL         = "url"
	KeyTimeout     = "timeout"
	KeyTTL         = "ttl"
	KeyUrgency     = "urgency"
	KeyHeaders     = "headers"
	KeyActions     = "actions"
)

// protectedKeys are bound to every stored subscription and can only change
// through static configuration.
var protectedKeys = map[string]struct{}{
	"subject":     {},
	"publicKey":   {},
	"public_key":  {},
	"privateKey":  {},
	"private_key": {},
}

// Overrides holds dynamic per-widget values. A nil field means "not
// overridden"; the static configuration applies.
type Overrides struct {
	Title       *string
	Body        *string
	Badge       *string
	Icon        *string
	Image       *string
	Tag         *string
	Interaction *string
	Volume      *string
	URL         *string
	Urgency     *string
	Timeout     *int
	TTL         *int
	Headers     map[string]string
	Actions     []domain.Action
}

// Warning describes an override that was rejected.
type Warning struct {
	Field  string
	Reason string
	Value  any
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (got %v)", w.Field, w.Reason, w.Value)
}

type fieldValidator func(o *Overrides, value any) string

var validators = map[string]fieldValidator{
	KeyTitle:       stringField(func(o *Overrides) **string { return &o.Title }, nil),
	KeyBody:        stringField(func(o *Overrides) **string { return &o.Body }, nil),
	KeyBadge:       stringField(func(o *Overrides) **string { return &o.Badge }, nil),
	KeyIcon:        stringField(func(o *Overrides) **string { return &o.Icon }, nil),
	KeyImage:       stringField(func(o *Overrides) **string { return &o.Image }, nil),
	KeyTag:         stringField(func(o *Overrides) **string { return &o.Tag }, nil),
	KeyURL:         stringField(func(o *Overrides) **string { return &o.URL }, nil),
	KeyInteraction: stringField(func(o *Overrides) **string { return &o.Interaction }, config.Interactions),
	KeyVolume:      stringField(func(o *Overrides) **string { return &o.Volume }, config.Volumes),
	KeyUrgency:     stringField(func(o *Overrides) **string { return &o.Urgency }, config.Urgencies),
	KeyTimeout:     intField(func(o *Overrides) **int { return &o.Timeout }),
	KeyTTL:         intField(func(o *Overrides) **int { return &o.TTL }),
	KeyHeaders:     headersField,
	KeyActions:     actionsField,
}

// ParseOverrides validates a raw update map field by field. Valid fields are
// kept, everything else is reported as a warning and dropped.
func ParseOverrides(raw map[string]any) (Overrides, []Warning) {
	var out Overrides
	var warnings []Warning

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		if _, ok := protectedKeys[key]; ok {
			warnings = append(warnings, Warning{Field: key, Reason: "cannot be overridden dynamically", Value: value})
			continue
		}
		validate, ok := validators[key]
		if !ok {
			warnings = append(warnings, Warning{Field: key, Reason: "unsupported property", Value: value})
			continue
		}
		if reason := validate(&out, value); reason != "" {
			warnings = append(warnings, Warning{Field: key, Reason: reason, Value: value})
		}
	}
	return out, warnings
}

func stringField(target func(*Overrides) **string, allowed []string) fieldValidator {
	return func(o *Overrides, value any) string {
		str, ok := value.(string)
		if !ok {
			return "must be a string"
		}
		if allowed != nil && !config.OneOf(str, allowed) {
			return "must be one of " + strings.Join(allowed, ", ")
		}
		*target(o) = &str
		return ""
	}
}

func intField(target func(*Overrides) **int) fieldValidator {
	return func(o *Overrides, value any) string {
		n, ok := toInt(value)
		if !ok {
			return "must be a number"
		}
		if n < 0 {
			return "must be >= 0"
		}
		*target(o) = &n
		return ""
	}
}

func headersField(o *Overrides, value any) string {
	switch v := value.(type) {
	case map[string]string:
		o.Headers = make(map[string]string, len(v))
		for k, val := range v {
			o.Headers[k] = val
		}
		return ""
	case map[string]any:
		headers := make(map[string]string, len(v))
		for k, val := range v {
			str, ok := val.(string)
			if !ok {
				return "header values must be strings"
			}
			headers[k] = str
		}
		o.Headers = headers
		return ""
	default:
		return "must be an object of strings"
	}
}

func actionsField(o *Overrides, value any) string {
	switch v := value.(type) {
	case []domain.Action:
		o.Actions = append([]domain.Action{}, v...)
		return ""
	case []any:
		actions := make([]domain.Action, 0, len(v))
		for _, item := range v {
			entry, ok := item.(map[string]any)
			if !ok {
				return "actions must be objects"
			}
			action, _ := entry["action"].(string)
			title, _ := entry["title"].(string)
			if strings.TrimSpace(action) == "" || strings.TrimSpace(title) == "" {
				return "actions require action and title strings"
			}
			icon, _ := entry["icon"].(string)
			actions = append(actions, domain.Action{Action: action, Title: title, Icon: icon})
		}
		o.Actions = actions
		return ""
	default:
		return "must be a list"
	}
}

// IsZero reports whether no field is overridden.
func (o Overrides) IsZero() bool {
	return len(o.Map()) == 0
}

// Merge returns o with every field set in next superseding it.
func (o Overrides) Merge(next Overrides) Overrides {
	pick := func(a, b *string) *string {
		if b != nil {
			return b
		}
		return a
	}
	out := o
	out.Title = pick(o.Title, next.Title)
	out.Body = pick(o.Body, next.Body)
	out.Badge = pick(o.Badge, next.Badge)
	out.Icon = pick(o.Icon, next.Icon)
	out.Image = pick(o.Image, next.Image)
	out.Tag = pick(o.Tag, next.Tag)
	out.Interaction = pick(o.Interaction, next.Interaction)
	out.Volume = pick(o.Volume, next.Volume)
	out.URL = pick(o.URL, next.URL)
	out.Urgency = pick(o.Urgency, next.Urgency)
	if next.Timeout != nil {
		out.Timeout = next.Timeout
	}
	if next.TTL != nil {
		out.TTL = next.TTL
	}
	if next.Headers != nil {
		out.Headers = next.Headers
	}
	if next.Actions != nil {
		out.Actions = next.Actions
	}
	return out
}

// Map flattens the set fields into a property map.
func (o Overrides) Map() map[string]any {
	out := o.scalars()
	if o.Headers != nil {
		headers := make(map[string]any, len(o.Headers))
		for k, v := range o.Headers {
			headers[k] = v
		}
		out[KeyHeaders] = headers
	}
	if o.Actions != nil {
		actions := make([]any, 0, len(o.Actions))
		for _, a := range o.Actions {
			entry := map[string]any{"action": a.Action, "title": a.Title}
			if a.Icon != "" {
				entry["icon"] = a.Icon
			}
			actions = append(actions, entry)
		}
		out[KeyActions] = actions
	}
	return out
}

func (o Overrides) scalars() map[string]any {
	out := map[string]any{}
	strs := map[string]*string{
		KeyTitle:       o.Title,
		KeyBody:        o.Body,
		KeyBadge:       o.Badge,
		KeyIcon:        o.Icon,
		KeyImage:       o.Image,
		KeyTag:         o.Tag,
		KeyInteraction: o.Interaction,
		KeyVolume:      o.Volume,
		KeyURL:         o.URL,
		KeyUrgency:     o.Urgency,
	}
	for k, v := range strs {
		if v != nil {
			out[k] = *v
		}
	}
	if o.Timeout != nil {
		out[KeyTimeout] = *o.Timeout
	}
	if o.TTL != nil {
		out[KeyTTL] = *o.TTL
	}
	return out
}
