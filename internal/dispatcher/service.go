package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-webpush/pkg/adapters"
	"github.com/goliatone/go-webpush/pkg/config"
	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
	"github.com/goliatone/go-webpush/pkg/options"
	"github.com/google/uuid"
)

// Dependencies groups the collaborators required by the dispatcher.
type Dependencies struct {
	Registry *adapters.Registry
	Logger   logger.Logger
	Config   config.DispatcherConfig
}

// Service validates a notification request, builds the payload and fans it
// out to every recipient through the configured transport.
type Service struct {
	registry *adapters.Registry
	logger   logger.Logger
	cfg      config.DispatcherConfig
}

// Request describes one push_notification command.
type Request struct {
	Static      config.NotificationConfig
	Overrides   options.Overrides
	Credentials adapters.Credentials
	// Body is the message text when the body source is the command itself.
	// With a literal body source the effective configured body is used.
	Body       string
	Recipients []domain.Subscription
	CommandID  string
}

// Outcome is the settlement of one delivery attempt.
type Outcome struct {
	Endpoint   string
	Err        error
	StatusCode int
}

// Failed reports whether the attempt failed.
func (o Outcome) Failed() bool { return o.Err != nil }

// Expired reports whether the push service says the subscription is gone.
// The registry is not pruned automatically.
func (o Outcome) Expired() bool {
	return o.StatusCode == http.StatusNotFound || o.StatusCode == http.StatusGone
}

// Result gathers every per-recipient outcome of a dispatch.
type Result struct {
	CommandID string
	Payload   domain.Payload
	Outcomes  []Outcome
}

// Failed counts failed attempts.
func (r Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Succeeded counts successful attempts.
func (r Result) Succeeded() int {
	return len(r.Outcomes) - r.Failed()
}

// Expired lists the endpoints reported as gone.
func (r Result) Expired() []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.Expired() {
			out = append(out, o.Endpoint)
		}
	}
	return out
}

var (
	ErrMissingRegistry   = errors.New("dispatcher: adapter registry is required")
	ErrMissingSubject    = errors.New("dispatcher: a subject must be specified")
	ErrMissingPublicKey  = errors.New("dispatcher: a VAPID public key must be specified")
	ErrMissingPrivateKey = errors.New("dispatcher: a VAPID private key must be specified")
	ErrNoRecipients      = errors.New("dispatcher: at least one subscription must be available")
	ErrMissingBody       = errors.New("dispatcher: the notification body must be a non-empty string")
)

// New builds the dispatcher service.
func New(deps Dependencies) (*Service, error) {
	if deps.Registry == nil {
		return nil, ErrMissingRegistry
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Config.MaxWorkers <= 0 {
		deps.Config.MaxWorkers = 4
	}
	if deps.Config.Transport == "" {
		deps.Config.Transport = "webpush"
	}
	if deps.Config.ContentEncoding == "" {
		deps.Config.ContentEncoding = config.ContentEncoding
	}
	return &Service{
		registry: deps.Registry,
		logger:   deps.Logger,
		cfg:      deps.Config,
	}, nil
}

type deliveryJob struct {
	index int
	sub   domain.Subscription
}

// Dispatch checks the preconditions in order, then sends one independent
// delivery per recipient and waits for all of them to settle. Precondition
// failures return before any attempt is made.
func (s *Service) Dispatch(ctx context.Context, req Request) (Result, error) {
	if req.CommandID == "" {
		req.CommandID = uuid.NewString()
	}
	result := Result{CommandID: req.CommandID}
	log := s.logger.WithContext(ctx)

	if err := validateCredentials(req.Credentials); err != nil {
		log.Error("dispatcher precondition failed", "command_id", req.CommandID, "error", err)
		return result, err
	}
	if len(req.Recipients) == 0 {
		log.Error("dispatcher precondition failed", "command_id", req.CommandID, "error", ErrNoRecipients)
		return result, ErrNoRecipients
	}

	settings, err := options.Effective(req.Static, req.Overrides)
	if err != nil {
		return result, fmt.Errorf("dispatcher: resolve settings: %w", err)
	}
	body := req.Body
	if req.Static.BodySource == config.BodySourceLiteral {
		body = settings.Body
	}
	if strings.TrimSpace(body) == "" {
		log.Error("dispatcher precondition failed", "command_id", req.CommandID, "error", ErrMissingBody)
		return result, ErrMissingBody
	}

	messenger, err := s.registry.Route(s.cfg.Transport)
	if err != nil {
		return result, fmt.Errorf("dispatcher: transport %q: %w", s.cfg.Transport, err)
	}

	result.Payload = BuildPayload(settings, body)
	raw, err := json.Marshal(result.Payload)
	if err != nil {
		return result, fmt.Errorf("dispatcher: encode payload: %w", err)
	}
	deliveryOpts := adapters.DeliveryOptions{
		Credentials:     req.Credentials,
		ContentEncoding: s.cfg.ContentEncoding,
		TTL:             settings.TTL,
		Urgency:         settings.Urgency,
		Timeout:         settings.TimeoutDuration(),
		Headers:         settings.Headers,
	}

	total := len(req.Recipients)
	result.Outcomes = make([]Outcome, total)
	jobs := make(chan deliveryJob, total)
	var wg sync.WaitGroup
	workerCount := min(s.cfg.MaxWorkers, total)

	for range workerCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				outcome := Outcome{Endpoint: job.sub.Endpoint}
				if ctx.Err() != nil {
					outcome.Err = ctx.Err()
				} else {
					outcome.Err = messenger.Send(ctx, adapters.Message{
						ID:           uuid.NewString(),
						CommandID:    req.CommandID,
						Subscription: job.sub,
						Payload:      raw,
						Options:      deliveryOpts,
					})
					outcome.StatusCode = adapters.StatusCodeOf(outcome.Err)
				}
				result.Outcomes[job.index] = outcome
			}
		}()
	}

	for i, sub := range req.Recipients {
		jobs <- deliveryJob{index: i, sub: sub}
	}
	close(jobs)
	wg.Wait()

	for _, o := range result.Outcomes {
		if o.Failed() {
			log.Error("cannot push notification",
				"command_id", req.CommandID,
				"endpoint", o.Endpoint,
				"status", o.StatusCode,
				"expired", o.Expired(),
				"error", o.Err,
			)
		}
	}
	log.Info("dispatcher notification sent",
		"command_id", req.CommandID,
		"transport", messenger.Name(),
		"recipients", total,
		"failed", result.Failed(),
	)
	return result, nil
}

func validateCredentials(c adapters.Credentials) error {
	switch {
	case strings.TrimSpace(c.Subject) == "":
		return ErrMissingSubject
	case strings.TrimSpace(c.PublicKey) == "":
		return ErrMissingPublicKey
	case strings.TrimSpace(c.PrivateKey) == "":
		return ErrMissingPrivateKey
	}
	return nil
}

// BuildPayload maps effective settings onto the service worker payload.
// Optional fields are only set when non-empty.
func BuildPayload(settings options.Settings, body string) domain.Payload {
	payload := domain.Payload{
		Title:              settings.Title,
		Body:               body,
		Badge:              settings.Badge,
		Icon:               settings.Icon,
		Image:              settings.Image,
		Tag:                settings.Tag,
		RequireInteraction: settings.Interaction == config.InteractionRequired,
		Silent:             settings.Volume == config.VolumeSilent,
	}
	if len(settings.Actions) > 0 {
		payload.Actions = append([]domain.Action{}, settings.Actions...)
	}
	if settings.URL != "" {
		payload.Data = &domain.PayloadData{URL: settings.URL}
	}
	return payload
}
