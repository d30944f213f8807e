package state

import "context"

// Store keeps per-widget dynamic property overrides (the ui_update values).
type Store interface {
	GetProperty(ctx context.Context, widgetID, name string) (any, bool)
	SetProperty(ctx context.Context, widgetID, name string, value any) error
	Properties(ctx context.Context, widgetID string) map[string]any
	Reset(ctx context.Context, widgetID string) error
}

// Nop never stores overrides.
type Nop struct{}

var _ Store = (*Nop)(nil)

func (n *Nop) GetProperty(ctx context.Context, widgetID, name string) (any, bool) {
	return nil, false
}
func (n *Nop) SetProperty(ctx context.Context, widgetID, name string, value any) error {
	return nil
}
func (n *Nop) Properties(ctx context.Context, widgetID string) map[string]any { return nil }
func (n *Nop) Reset(ctx context.Context, widgetID string) error               { return nil }
