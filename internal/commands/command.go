package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-webpush/pkg/domain"
)

// Command is an inbound flow message addressed to the widget. Topic selects
// the intent; unknown top level keys are kept in Fields so a body field can
// be read from them.
type Command struct {
	ID       string          `json:"_msgid,omitempty"`
	Topic    string          `json:"topic"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	UIUpdate map[string]any  `json:"ui_update,omitempty"`
	Fields   map[string]any  `json:"-"`
}

var reservedFields = []string{"_msgid", "topic", "payload", "ui_update"}

// UnmarshalJSON decodes the known keys and collects the rest into Fields.
func (c *Command) UnmarshalJSON(data []byte) error {
	type plain Command
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, key := range reservedFields {
		delete(all, key)
	}
	if len(all) > 0 {
		out.Fields = all
	}
	*c = Command(out)
	return nil
}

// Intent returns the command topic as an intent tag.
func (c Command) Intent() domain.Intent {
	return domain.Intent(strings.TrimSpace(c.Topic))
}

// Subscription decodes the payload as a browser push subscription.
func (c Command) Subscription() (domain.Subscription, error) {
	var sub domain.Subscription
	if len(c.Payload) == 0 {
		return sub, fmt.Errorf("commands: %s requires a subscription payload", c.Topic)
	}
	if err := json.Unmarshal(c.Payload, &sub); err != nil {
		return sub, fmt.Errorf("commands: decode subscription: %w", err)
	}
	return sub, nil
}

// PayloadValue decodes the payload into a generic value.
func (c Command) PayloadValue() any {
	if len(c.Payload) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(c.Payload, &v); err != nil {
		return nil
	}
	return v
}

// field returns the named message field; "payload" reads the payload.
func (c Command) field(name string) any {
	if name == "" || name == "payload" {
		return c.PayloadValue()
	}
	return c.Fields[name]
}

// resolveBody extracts the notification body from the configured message
// field. An object value contributes its "body" string and its "ui_update"
// map, the latter being returned as extra overrides.
func (c Command) resolveBody(field string) (string, map[string]any) {
	switch v := c.field(field).(type) {
	case string:
		return v, nil
	case map[string]any:
		body, _ := v["body"].(string)
		update, _ := v["ui_update"].(map[string]any)
		return body, update
	default:
		return "", nil
	}
}
