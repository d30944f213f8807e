package memory

import (
	"context"
	"sync"

	"github.com/goliatone/go-webpush/pkg/interfaces/state"
)

// StateStore keeps dynamic widget properties for the lifetime of the process.
type StateStore struct {
	mu      sync.RWMutex
	widgets map[string]map[string]any
}

var _ state.Store = (*StateStore)(nil)

func NewStateStore() *StateStore {
	return &StateStore{widgets: make(map[string]map[string]any)}
}

func (s *StateStore) GetProperty(ctx context.Context, widgetID, name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.widgets[widgetID][name]
	return value, ok
}

func (s *StateStore) SetProperty(ctx context.Context, widgetID, name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	props, ok := s.widgets[widgetID]
	if !ok {
		props = make(map[string]any)
		s.widgets[widgetID] = props
	}
	props[name] = value
	return nil
}

// Properties returns a copy of every property stored for widgetID.
func (s *StateStore) Properties(ctx context.Context, widgetID string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	props := s.widgets[widgetID]
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func (s *StateStore) Reset(ctx context.Context, widgetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.widgets, widgetID)
	return nil
}
