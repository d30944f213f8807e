package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-webpush/pkg/interfaces/contextstore"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
)

// StorageKey is the context store key holding the subscription list.
const StorageKey = "subscriptions"

var (
	ErrMissingStore     = errors.New("registry: context store is required")
	ErrEndpointRequired = errors.New("registry: subscription endpoint is required")
)

// Dependencies wires the registry collaborators.
type Dependencies struct {
	Store       contextstore.Store
	Broadcaster broadcaster.Broadcaster
	Logger      logger.Logger
	Widget      config.WidgetConfig
}

// Service keeps the set of push subscriptions of one widget, unique by
// endpoint. Every mutation writes the whole list back to the context store.
type Service struct {
	store       contextstore.Store
	broadcaster broadcaster.Broadcaster
	logger      logger.Logger
	widget      config.WidgetConfig
	mu          sync.Mutex
}

// New builds the registry service.
func New(deps Dependencies) (*Service, error) {
	if deps.Store == nil {
		return nil, ErrMissingStore
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = &broadcaster.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Service{
		store:       deps.Store,
		broadcaster: deps.Broadcaster,
		logger:      deps.Logger,
		widget:      deps.Widget,
	}, nil
}

// Scope is the context store scope of this widget's registry.
func (s *Service) Scope() string {
	return s.widget.ContextStore + ":" + s.widget.ID
}

// Init makes sure an (empty) list is stored so it is visible to operators,
// then publishes the current status. An unreadable store counts as empty.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current domain.SubscriptionList
	ok, err := s.store.Get(ctx, s.Scope(), StorageKey, &current)
	if err != nil {
		s.logger.Warn("registry read failed, treating as empty", "scope", s.Scope(), "error", err)
		s.publish(ctx, 0)
		return nil
	}
	if !ok {
		if err := s.store.Set(ctx, s.Scope(), StorageKey, domain.SubscriptionList{}); err != nil {
			return fmt.Errorf("registry: init: %w", err)
		}
	}
	s.publish(ctx, len(current))
	return nil
}

// List returns a snapshot of the stored subscriptions. Missing or unreadable
// values yield an empty list.
func (s *Service) List(ctx context.Context) []domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Count returns the number of stored subscriptions.
func (s *Service) Count(ctx context.Context) int {
	return len(s.List(ctx))
}

// Add stores sub unless a subscription with the same endpoint exists.
func (s *Service) Add(ctx context.Context, sub domain.Subscription) error {
	if !sub.Valid() {
		return ErrEndpointRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load(ctx)
	for _, existing := range current {
		if existing.SameEndpoint(sub.Endpoint) {
			s.logger.Debug("registry subscription already known", "endpoint", sub.Endpoint)
			s.publish(ctx, len(current))
			return nil
		}
	}
	next := append(current, sub)
	if err := s.save(ctx, next); err != nil {
		return err
	}
	s.logger.Info("registry subscription added", "endpoint", sub.Endpoint, "count", len(next))
	s.publish(ctx, len(next))
	return nil
}

// Remove deletes every subscription targeting endpoint. Nothing happens when
// no subscription matches.
func (s *Service) Remove(ctx context.Context, endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load(ctx)
	next := make(domain.SubscriptionList, 0, len(current))
	for _, sub := range current {
		if !sub.SameEndpoint(endpoint) {
			next = append(next, sub)
		}
	}
	if len(next) == len(current) {
		return nil
	}
	if err := s.save(ctx, next); err != nil {
		return err
	}
	s.logger.Info("registry subscription removed", "endpoint", endpoint, "count", len(next))
	s.publish(ctx, len(next))
	return nil
}

// Clear drops every stored subscription.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, domain.SubscriptionList{}); err != nil {
		return err
	}
	s.logger.Info("registry cleared")
	s.publish(ctx, 0)
	return nil
}

// PublishStatus republishes the current count.
func (s *Service) PublishStatus(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(ctx, len(s.load(ctx)))
}

// StatusText renders the status line for count subscriptions.
func StatusText(count int) string {
	return fmt.Sprintf("%d subscriptions", count)
}

func (s *Service) load(ctx context.Context) domain.SubscriptionList {
	var list domain.SubscriptionList
	ok, err := s.store.Get(ctx, s.Scope(), StorageKey, &list)
	if err != nil {
		s.logger.Warn("registry read failed, treating as empty", "scope", s.Scope(), "error", err)
		return domain.SubscriptionList{}
	}
	if !ok {
		return domain.SubscriptionList{}
	}
	return list.Clone()
}

func (s *Service) save(ctx context.Context, list domain.SubscriptionList) error {
	if err := s.store.Set(ctx, s.Scope(), StorageKey, list); err != nil {
		s.logger.Error("registry write failed", "scope", s.Scope(), "error", err)
		return fmt.Errorf("registry: persist: %w", err)
	}
	return nil
}

// publish failures are logged only; the status display is best effort.
func (s *Service) publish(ctx context.Context, count int) {
	err := s.broadcaster.Broadcast(ctx, broadcaster.Event{
		Topic:    broadcaster.TopicStatus,
		WidgetID: s.widget.ID,
		Payload:  StatusText(count),
	})
	if err != nil {
		s.logger.Warn("registry status publish failed", "error", err)
	}
}
