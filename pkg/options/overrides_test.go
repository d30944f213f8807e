package options

import (
	"context"
	"testing"

	"github.com/goliatone/go-webpush/internal/storage/memory"
	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/domain"
)

func TestParseOverridesKeepsValidFields(t *testing.T) {
	o, warnings := ParseOverrides(map[string]any{
		"title":       "Door open",
		"interaction": "required",
		"volume":      "silent",
		"urgency":     "high",
		"ttl":         float64(60),
		"timeout":     2500,
		"headers":     map[string]any{"X-Flow": "kitchen"},
		"actions": []any{
			map[string]any{"action": "https://example.com/ack", "title": "Ack"},
		},
	})
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if o.Title == nil || *o.Title != "Door open" {
		t.Fatalf("title not parsed: %+v", o.Title)
	}
	if o.Interaction == nil || *o.Interaction != config.InteractionRequired {
		t.Fatalf("interaction not parsed")
	}
	if o.TTL == nil || *o.TTL != 60 {
		t.Fatalf("ttl not parsed")
	}
	if o.Timeout == nil || *o.Timeout != 2500 {
		t.Fatalf("timeout not parsed")
	}
	if o.Headers["X-Flow"] != "kitchen" {
		t.Fatalf("headers not parsed: %+v", o.Headers)
	}
	if len(o.Actions) != 1 || o.Actions[0].Title != "Ack" {
		t.Fatalf("actions not parsed: %+v", o.Actions)
	}
}

func TestParseOverridesWarnings(t *testing.T) {
	o, warnings := ParseOverrides(map[string]any{
		"subject":     "mailto:evil@example.com",
		"privateKey":  "secret",
		"volume":      "loud",
		"urgency":     "silent",
		"ttl":         -5,
		"title":       42,
		"colour":      "red",
		"interaction": "optional",
	})
	if len(warnings) != 7 {
		t.Fatalf("expected 7 warnings, got %d: %v", len(warnings), warnings)
	}
	if o.Volume != nil || o.Urgency != nil || o.TTL != nil || o.Title != nil {
		t.Fatalf("invalid fields must be dropped: %+v", o)
	}
	if o.Interaction == nil || *o.Interaction != config.InteractionOptional {
		t.Fatalf("valid field dropped alongside invalid ones")
	}
	fields := map[string]bool{}
	for _, w := range warnings {
		fields[w.Field] = true
	}
	for _, want := range []string{"subject", "privateKey", "volume", "urgency", "ttl", "title", "colour"} {
		if !fields[want] {
			t.Fatalf("missing warning for %s", want)
		}
	}
}

func TestOverridesMerge(t *testing.T) {
	first, _ := ParseOverrides(map[string]any{"title": "A", "body": "one", "headers": map[string]any{"X-A": "1"}})
	second, _ := ParseOverrides(map[string]any{"title": "B", "headers": map[string]any{"X-B": "2"}})

	merged := first.Merge(second)
	if *merged.Title != "B" || *merged.Body != "one" {
		t.Fatalf("unexpected merge result: %+v", merged.Map())
	}
	if _, ok := merged.Headers["X-A"]; ok {
		t.Fatalf("headers should be replaced as a whole")
	}
	if (Overrides{}).IsZero() != true || merged.IsZero() {
		t.Fatalf("IsZero mismatch")
	}
}

func TestEffectiveLayersOverrides(t *testing.T) {
	static := config.NotificationConfig{
		Title:       "Alert",
		Body:        "static body",
		Icon:        "/icon.png",
		Interaction: config.InteractionOptional,
		Volume:      config.VolumeDefault,
		Urgency:     config.UrgencyNormal,
		Timeout:     10000,
		TTL:         2419200,
		Headers:     map[string]string{"X-Static": "1"},
	}
	o, _ := ParseOverrides(map[string]any{
		"title":   "Door open",
		"ttl":     60,
		"actions": []domain.Action{{Action: "/ack", Title: "Ack"}},
	})

	settings, err := Effective(static, o)
	if err != nil {
		t.Fatalf("Effective: %v", err)
	}
	if settings.Title != "Door open" || settings.Icon != "/icon.png" {
		t.Fatalf("unexpected strings: %+v", settings)
	}
	if settings.TTL != 60 || settings.Timeout != 10000 {
		t.Fatalf("unexpected numbers: ttl=%d timeout=%d", settings.TTL, settings.Timeout)
	}
	if settings.Headers["X-Static"] != "1" {
		t.Fatalf("static headers should apply without override")
	}
	if len(settings.Actions) != 1 {
		t.Fatalf("actions not applied")
	}
	if trace, ok := settings.Traces[KeyTitle]; !ok || trace.Path != KeyTitle {
		t.Fatalf("missing title trace")
	}
}

func TestEffectiveWithoutOverrides(t *testing.T) {
	settings, err := Effective(config.NotificationConfig{Title: "Alert", Urgency: config.UrgencyLow}, Overrides{})
	if err != nil {
		t.Fatalf("Effective: %v", err)
	}
	if settings.Title != "Alert" || settings.Urgency != config.UrgencyLow {
		t.Fatalf("static values lost: %+v", settings)
	}
}

func TestStateSnapshotStoreApply(t *testing.T) {
	ctx := context.Background()
	store := StateSnapshotStore{Store: memory.NewStateStore()}

	if _, _, err := store.Apply(ctx, "w1", map[string]any{"title": "One", "volume": "silent"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	current, warnings, err := store.Apply(ctx, "w1", map[string]any{"title": "Two", "subject": "x"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected protected key warning, got %v", warnings)
	}
	if *current.Title != "Two" || current.Volume == nil || *current.Volume != "silent" {
		t.Fatalf("overrides not persisted across updates: %+v", current.Map())
	}

	other, _, err := store.Load(ctx, "w2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !other.IsZero() {
		t.Fatalf("overrides leaked across widgets")
	}

	if err := (StateSnapshotStore{}).Save(ctx, "w1", current); err != ErrStateStoreRequired {
		t.Fatalf("expected ErrStateStoreRequired, got %v", err)
	}
}

func TestStateSnapshotStoreApplySkipsInvalidUpdates(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStateStore()
	store := StateSnapshotStore{Store: backend}

	current, warnings, err := store.Apply(ctx, "w1", map[string]any{"volume": "loud", "privateKey": "x"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(warnings) != 2 || !current.IsZero() {
		t.Fatalf("expected two warnings and no overrides, got %v %+v", warnings, current.Map())
	}
	if props := backend.Properties(ctx, "w1"); len(props) != 0 {
		t.Fatalf("nothing should be written, got %v", props)
	}
}
