package options

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-webpush/pkg/interfaces/state"
)

// ErrStateStoreRequired is returned when the snapshot store has no backend.
var ErrStateStoreRequired = errors.New("options: state store is required")

// StateSnapshotStore persists widget overrides in the dynamic state store so
// they survive between commands.
type StateSnapshotStore struct {
	Store state.Store
}

// Load returns the overrides currently stored for widgetID. Stored values
// that no longer validate are reported as warnings.
func (s StateSnapshotStore) Load(ctx context.Context, widgetID string) (Overrides, []Warning, error) {
	if s.Store == nil {
		return Overrides{}, nil, ErrStateStoreRequired
	}
	props := s.Store.Properties(ctx, widgetID)
	if len(props) == 0 {
		return Overrides{}, nil, nil
	}
	o, warnings := ParseOverrides(props)
	return o, warnings, nil
}

// Save writes every field set in o. Fields not set are left untouched.
func (s StateSnapshotStore) Save(ctx context.Context, widgetID string, o Overrides) error {
	if s.Store == nil {
		return ErrStateStoreRequired
	}
	for key, value := range o.Map() {
		if err := s.Store.SetProperty(ctx, widgetID, key, value); err != nil {
			return fmt.Errorf("options: save %s: %w", key, err)
		}
	}
	return nil
}

// Apply parses raw, persists the valid fields and returns the merged
// overrides now in effect for widgetID. Nothing is written when no field is
// valid.
func (s StateSnapshotStore) Apply(ctx context.Context, widgetID string, raw map[string]any) (Overrides, []Warning, error) {
	current, loadWarnings, err := s.Load(ctx, widgetID)
	if err != nil {
		return Overrides{}, nil, err
	}
	update, warnings := ParseOverrides(raw)
	warnings = append(warnings, loadWarnings...)
	if update.IsZero() {
		return current, warnings, nil
	}
	if err := s.Save(ctx, widgetID, update); err != nil {
		return Overrides{}, warnings, err
	}
	return current.Merge(update), warnings, nil
}
