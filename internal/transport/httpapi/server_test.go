package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-webpush/internal/auth"
	"github.com/goliatone/go-webpush/internal/commands"
	"github.com/goliatone/go-webpush/internal/dispatcher"
	"github.com/goliatone/go-webpush/pkg/credentials"
	"github.com/goliatone/go-webpush/pkg/domain"
)

type stubCommands struct {
	last commands.Command
	resp commands.Response
	err  error
}

func (s *stubCommands) Handle(ctx context.Context, cmd commands.Command) (commands.Response, error) {
	s.last = cmd
	resp := s.resp
	resp.Intent = cmd.Intent()
	return resp, s.err
}

type stubLister []domain.Subscription

func (s stubLister) List(ctx context.Context) []domain.Subscription { return s }

const secret = "test-secret"

func newServer(t *testing.T, cmds *stubCommands, creds credentials.Provider) http.Handler {
	t.Helper()
	e, err := New(Dependencies{
		Commands:      cmds,
		Subscriptions: stubLister{{Endpoint: "https://push/a"}, {Endpoint: "https://push/b"}},
		Validator:     auth.NewJWTValidator(secret),
		Permission:    "ui_web_push.write",
		KeyGen:        func() (string, string, error) { return "pub-key", "priv-key", nil },
		Credentials:   creds,
		WidgetID:      "w1",
		BasePath:      "/ui_web_push",
	})
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	return e
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func editorToken(t *testing.T) string {
	t.Helper()
	token, err := auth.Sign(secret, "editor", []string{"ui_web_push.write"}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Dependencies{}); !errors.Is(err, ErrMissingCommands) {
		t.Fatalf("expected ErrMissingCommands, got %v", err)
	}
	if _, err := New(Dependencies{Commands: &stubCommands{}}); !errors.Is(err, ErrMissingLister) {
		t.Fatalf("expected ErrMissingLister, got %v", err)
	}
}

func TestPostCommandRoutesAndSummarises(t *testing.T) {
	cmds := &stubCommands{resp: commands.Response{
		CommandID: "c1",
		Result: &dispatcher.Result{
			Payload: domain.Payload{Title: "Alert", Body: "Door open"},
			Outcomes: []dispatcher.Outcome{
				{Endpoint: "https://push/a"},
				{Endpoint: "https://push/b", StatusCode: 410, Err: errors.New("gone")},
			},
		},
	}}
	h := newServer(t, cmds, nil)

	rec := do(t, h, http.MethodPost, "/ui_web_push/commands", `{"topic":"push_notification","payload":"Door open","text":"x"}`, editorToken(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cmds.last.Fields["text"] != "x" {
		t.Fatalf("expected extra fields to survive binding, got %+v", cmds.last.Fields)
	}
	var out commandResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Delivery == nil || out.Delivery.Sent != 1 || out.Delivery.Failed != 1 {
		t.Fatalf("unexpected delivery summary: %+v", out.Delivery)
	}
	if len(out.Delivery.Expired) != 1 || out.Delivery.Expired[0] != "https://push/b" {
		t.Fatalf("expected expired endpoint, got %v", out.Delivery.Expired)
	}
}

func TestPostCommandErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{commands.ErrUnsupportedIntent, http.StatusBadRequest},
		{dispatcher.ErrNoRecipients, http.StatusUnprocessableEntity},
		{dispatcher.ErrMissingPrivateKey, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := newServer(t, &stubCommands{err: tc.err}, nil)
		rec := do(t, h, http.MethodPost, "/ui_web_push/commands", `{"topic":"x"}`, editorToken(t))
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestPostCommandRejectsInvalidJSON(t *testing.T) {
	h := newServer(t, &stubCommands{}, nil)
	if rec := do(t, h, http.MethodPost, "/ui_web_push/commands", `{`, editorToken(t)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostCommandRequiresTokenWhenAuthConfigured(t *testing.T) {
	cmds := &stubCommands{}
	h := newServer(t, cmds, nil)

	if rec := do(t, h, http.MethodPost, "/ui_web_push/commands", `{"topic":"clear_subscriptions"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	readOnly, _ := auth.Sign(secret, "viewer", []string{"ui_web_push.read"}, time.Minute)
	if rec := do(t, h, http.MethodPost, "/ui_web_push/commands", `{"topic":"clear_subscriptions"}`, readOnly); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if cmds.last.Topic != "" {
		t.Fatalf("unauthenticated command reached the router: %+v", cmds.last)
	}
}

func TestPostCommandOpenWithoutValidator(t *testing.T) {
	cmds := &stubCommands{}
	e, err := New(Dependencies{Commands: cmds, Subscriptions: stubLister{}, BasePath: "/ui_web_push"})
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	if rec := do(t, e, http.MethodPost, "/ui_web_push/commands", `{"topic":"refresh_node_status"}`, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cmds.last.Topic != "refresh_node_status" {
		t.Fatalf("expected command to be routed, got %+v", cmds.last)
	}
}

func TestSubscriptionsAndStatus(t *testing.T) {
	h := newServer(t, &stubCommands{}, nil)

	rec := do(t, h, http.MethodGet, "/ui_web_push/subscriptions", "", "")
	var subs []domain.Subscription
	if err := json.Unmarshal(rec.Body.Bytes(), &subs); err != nil || len(subs) != 2 {
		t.Fatalf("unexpected subscriptions: %s (%v)", rec.Body.String(), err)
	}

	rec = do(t, h, http.MethodGet, "/ui_web_push/status", "", "")
	var status map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status["status"] != "2 subscriptions" {
		t.Fatalf("unexpected status: %v", status)
	}
}

func TestGenerateKeysRequiresPermission(t *testing.T) {
	h := newServer(t, &stubCommands{}, nil)

	if rec := do(t, h, http.MethodGet, KeyGenPath, "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	readOnly, _ := auth.Sign(secret, "viewer", []string{"ui_web_push.read"}, time.Minute)
	if rec := do(t, h, http.MethodGet, KeyGenPath, "", readOnly); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	token, _ := auth.Sign(secret, "editor", []string{"ui_web_push.write"}, time.Minute)
	rec := do(t, h, http.MethodGet, KeyGenPath, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var pair keyPair
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pair.PublicKey != "pub-key" || pair.PrivateKey != "priv-key" || pair.Stored {
		t.Fatalf("unexpected key pair: %+v", pair)
	}
}

func TestGenerateKeysStoresWhenAsked(t *testing.T) {
	provider := credentials.NewStaticProvider(nil)
	h := newServer(t, &stubCommands{}, provider)
	token, _ := auth.Sign(secret, "editor", []string{"*"}, time.Minute)

	rec := do(t, h, http.MethodGet, KeyGenPath+"?store=true", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	val, err := provider.Get(context.Background(), credentials.Reference{WidgetID: "w1", Key: credentials.KeyPrivateKey})
	if err != nil || string(val.Data) != "priv-key" {
		t.Fatalf("expected stored private key, got %q (%v)", val.Data, err)
	}
}

type fixedClients int

func (n fixedClients) Len() int { return int(n) }

func TestStatusReportsConnectedClients(t *testing.T) {
	e, err := New(Dependencies{
		Commands:      &stubCommands{},
		Subscriptions: stubLister{{Endpoint: "https://push/a"}},
		Clients:       fixedClients(3),
		BasePath:      "/ui_web_push",
	})
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	rec := do(t, e, http.MethodGet, "/ui_web_push/status", "", "")
	var status map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status["status"] != "1 subscriptions" || status["clients"] != float64(3) {
		t.Fatalf("unexpected status: %v", status)
	}
}
