package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-webpush/internal/auth"
	"github.com/goliatone/go-webpush/internal/commands"
	"github.com/goliatone/go-webpush/internal/dispatcher"
	"github.com/goliatone/go-webpush/internal/registry"
	"github.com/goliatone/go-webpush/pkg/credentials"
	"github.com/goliatone/go-webpush/pkg/domain"
	"github.com/goliatone/go-webpush/pkg/interfaces/logger"
)

// KeyGenPath serves fresh VAPID key pairs to the widget editor.
const KeyGenPath = "/ui_web_push/generate_vapid_key_pair"

type commandHandler interface {
	Handle(ctx context.Context, cmd commands.Command) (commands.Response, error)
}

type subscriptionLister interface {
	List(ctx context.Context) []domain.Subscription
}

type clientCounter interface {
	Len() int
}

// KeyGenerator returns a new VAPID key pair.
type KeyGenerator func() (publicKey, privateKey string, err error)

// Dependencies wires the HTTP surface.
type Dependencies struct {
	Commands      commandHandler
	Subscriptions subscriptionLister
	Validator     auth.TokenValidator
	Permission    string
	KeyGen        KeyGenerator
	Credentials   credentials.Provider
	WidgetID      string
	BasePath      string
	WebSocket     http.Handler
	// Clients, when set, reports connected websocket clients on /status.
	Clients clientCounter
	Logger  logger.Logger
}

var (
	ErrMissingCommands = errors.New("httpapi: command handler is required")
	ErrMissingLister   = errors.New("httpapi: subscription lister is required")
)

type server struct {
	deps Dependencies
	log  logger.Logger
}

// New builds the echo instance with every route registered.
func New(deps Dependencies) (*echo.Echo, error) {
	if deps.Commands == nil {
		return nil, ErrMissingCommands
	}
	if deps.Subscriptions == nil {
		return nil, ErrMissingLister
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	deps.BasePath = "/" + strings.Trim(deps.BasePath, "/")

	s := &server{deps: deps, log: deps.Logger}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	g := e.Group(deps.BasePath)
	g.POST("/commands", s.postCommand, s.authenticateCommands)
	g.GET("/subscriptions", s.getSubscriptions)
	g.GET("/status", s.getStatus)
	if deps.WebSocket != nil {
		g.GET("/ws", echo.WrapHandler(deps.WebSocket))
	}
	if deps.KeyGen != nil {
		e.GET(KeyGenPath, s.generateKeys, s.requirePermission)
	}
	return e, nil
}

type commandResponse struct {
	CommandID string          `json:"command_id"`
	Intent    string          `json:"intent"`
	Warnings  []string        `json:"warnings,omitempty"`
	Delivery  *deliverySummary `json:"delivery,omitempty"`
}

type deliverySummary struct {
	Sent     int              `json:"sent"`
	Failed   int              `json:"failed"`
	Expired  []string         `json:"expired,omitempty"`
	Payload  domain.Payload   `json:"payload"`
	Outcomes []outcomeSummary `json:"outcomes"`
}

type outcomeSummary struct {
	Endpoint   string `json:"endpoint"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *server) postCommand(c echo.Context) error {
	var cmd commands.Command
	if err := c.Bind(&cmd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid command body")
	}

	resp, err := s.deps.Commands.Handle(c.Request().Context(), cmd)
	if err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}

	out := commandResponse{CommandID: resp.CommandID, Intent: string(resp.Intent)}
	for _, w := range resp.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	if resp.Result != nil && len(resp.Result.Outcomes) > 0 {
		out.Delivery = summarize(*resp.Result)
	}
	return c.JSON(http.StatusOK, out)
}

func summarize(r dispatcher.Result) *deliverySummary {
	sum := &deliverySummary{
		Sent:    r.Succeeded(),
		Failed:  r.Failed(),
		Expired: r.Expired(),
		Payload: r.Payload,
	}
	for _, o := range r.Outcomes {
		entry := outcomeSummary{Endpoint: o.Endpoint, StatusCode: o.StatusCode}
		if o.Err != nil {
			entry.Error = o.Err.Error()
		}
		sum.Outcomes = append(sum.Outcomes, entry)
	}
	return sum
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, commands.ErrUnsupportedIntent):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrEndpointRequired):
		return http.StatusBadRequest
	case errors.Is(err, dispatcher.ErrNoRecipients),
		errors.Is(err, dispatcher.ErrMissingBody),
		errors.Is(err, dispatcher.ErrMissingSubject),
		errors.Is(err, dispatcher.ErrMissingPublicKey),
		errors.Is(err, dispatcher.ErrMissingPrivateKey):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) getSubscriptions(c echo.Context) error {
	subs := s.deps.Subscriptions.List(c.Request().Context())
	if subs == nil {
		subs = []domain.Subscription{}
	}
	return c.JSON(http.StatusOK, subs)
}

func (s *server) getStatus(c echo.Context) error {
	count := len(s.deps.Subscriptions.List(c.Request().Context()))
	out := map[string]any{
		"count":  count,
		"status": registry.StatusText(count),
	}
	if s.deps.Clients != nil {
		out["clients"] = s.deps.Clients.Len()
	}
	return c.JSON(http.StatusOK, out)
}

// requirePermission rejects every request when no validator is configured.
func (s *server) requirePermission(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.deps.Validator == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication is not configured")
		}
		if err := s.authorize(c); err != nil {
			return err
		}
		return next(c)
	}
}

// authenticateCommands only checks tokens when a validator is configured.
func (s *server) authenticateCommands(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.deps.Validator == nil {
			return next(c)
		}
		if err := s.authorize(c); err != nil {
			return err
		}
		return next(c)
	}
}

func (s *server) authorize(c echo.Context) error {
	token := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	claims, err := auth.Authorize(s.deps.Validator, token, s.deps.Permission)
	switch {
	case errors.Is(err, auth.ErrForbidden):
		s.log.Warn("request forbidden", "path", c.Path(), "subject", claims.Subject)
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	case err != nil:
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return nil
}

type keyPair struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
	Stored     bool   `json:"stored,omitempty"`
}

func (s *server) generateKeys(c echo.Context) error {
	pub, priv, err := s.deps.KeyGen()
	if err != nil {
		s.log.Error("error while generating VAPID keypair", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "error while generating VAPID keypair")
	}
	out := keyPair{PublicKey: pub, PrivateKey: priv}

	if store, _ := strconv.ParseBool(c.QueryParam("store")); store && s.deps.Credentials != nil {
		if err := credentials.StoreVAPID(c.Request().Context(), s.deps.Credentials, s.deps.WidgetID, pub, priv); err != nil {
			s.log.Error("cannot store VAPID keypair", "widget_id", s.deps.WidgetID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot store VAPID keypair")
		}
		out.Stored = true
		s.log.Info("VAPID keypair stored", "widget_id", s.deps.WidgetID, "private_key", credentials.Mask(priv))
	}
	return c.JSON(http.StatusOK, out)
}
