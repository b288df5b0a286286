// Package handlertest builds a fiber app with in-memory dependencies for
// handler tests.
package handlertest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"github.com/kandinsky-studio/design-shop/internal/auth"
	"github.com/kandinsky-studio/design-shop/internal/config"
	"github.com/kandinsky-studio/design-shop/internal/credentials"
	"github.com/kandinsky-studio/design-shop/internal/db/controller/catalog"
	"github.com/kandinsky-studio/design-shop/internal/db/dbtest"
	"github.com/kandinsky-studio/design-shop/internal/db/models"
	"github.com/kandinsky-studio/design-shop/internal/lifecycle"
	"github.com/kandinsky-studio/design-shop/internal/payment"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
	authmiddleware "github.com/kandinsky-studio/design-shop/internal/web/middleware/auth"
)

const (
	// ClientURL is the storefront origin of the test config.
	ClientURL = "http://shop.test"
	// AdminUser and AdminPassword log in through the local provider.
	AdminUser     = "admin"
	AdminPassword = "correct horse battery staple"

	tokenSecret = "handlertest-secret-handlertest-secret"
)

// Env is a fiber app wired to an in-memory database and a fake gateway.
type Env struct {
	App     *fiber.App
	Deps    *handler.Deps
	Gateway *Gateway
}

// New creates an Env. Handlers register themselves on API().
func New(t *testing.T) *Env {
	t.Helper()

	db := dbtest.Open(t)

	_, err := catalog.Seed(context.Background(), db)
	require.NoError(t, err)

	cfg := &config.Config{
		Title:     "Design Shop",
		Webserver: config.Webserver{Port: 3001, ClientURL: ClientURL},
		Stripe:    config.Stripe{SecretKey: "sk_test_env", PublishableKey: "pk_test_env"},
		Auth: config.Auth{
			TokenTTL: time.Hour,
			Issuer:   "design-shop",
			Local: config.LocalAuth{
				Enabled:  true,
				Username: AdminUser,
				Password: AdminPassword,
			},
		},
	}

	tokens, err := auth.NewTokenIssuer([]byte(tokenSecret), cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	require.NoError(t, err)

	local, err := auth.NewLocalProvider(cfg.Auth.Local)
	require.NoError(t, err)

	gw := NewGateway()

	deps := &handler.Deps{
		Cfg:          cfg,
		DB:           db,
		Lifecycle:    lifecycle.New(db, gw),
		Credentials:  credentials.NewResolver(db, cfg.Stripe),
		Tokens:       tokens,
		Logins:       auth.Chain{local},
		RequireAdmin: authmiddleware.New(tokens),
	}

	return &Env{
		App:     fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler}),
		Deps:    deps,
		Gateway: gw,
	}
}

// API returns the /api route group.
func (e *Env) API() fiber.Router {
	return e.App.Group(handler.APIPath)
}

// AdminToken issues a valid bearer token.
func (e *Env) AdminToken(t *testing.T) string {
	t.Helper()

	tok, err := e.Deps.Tokens.Issue(AdminUser)
	require.NoError(t, err)

	return tok.Value
}

// Request is a test request. Body is sent as json unless it is a []byte.
type Request struct {
	Method string
	Path   string
	Body   any
	Token  string
	Header map[string]string
}

// Do sends r and returns the status code and the response body.
func (e *Env) Do(t *testing.T, r Request) (int, []byte) {
	t.Helper()

	resp := e.DoRaw(t, r)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, out
}

// DoRaw sends r and returns the response. The caller closes the body.
func (e *Env) DoRaw(t *testing.T, r Request) *http.Response {
	t.Helper()

	var body io.Reader

	switch b := r.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)

		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(r.Method, r.Path, body)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if r.Token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+r.Token)
	}

	for k, v := range r.Header {
		req.Header.Set(k, v)
	}

	resp, err := e.App.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)

	return resp
}

// Gateway is a payment gateway handing out sequential session ids.
type Gateway struct {
	mu        sync.Mutex
	sessions  int
	status    map[string]payment.Status
	CreateErr error
	StatusErr error
}

// NewGateway creates an empty Gateway.
func NewGateway() *Gateway {
	return &Gateway{status: map[string]payment.Status{}}
}

func (g *Gateway) next() (payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.CreateErr != nil {
		return payment.Session{}, g.CreateErr
	}

	g.sessions++
	id := fmt.Sprintf("cs_test_%d", g.sessions)

	return payment.Session{ID: id, URL: "https://checkout.test/" + id}, nil
}

// CreateOrderSession implements lifecycle.Gateway.
func (g *Gateway) CreateOrderSession(context.Context, *models.Order, *models.Package) (payment.Session, error) {
	return g.next()
}

// CreateDonationSession implements lifecycle.Gateway.
func (g *Gateway) CreateDonationSession(context.Context, *models.Donation) (payment.Session, error) {
	return g.next()
}

// RetrieveSessionStatus implements lifecycle.Gateway.
func (g *Gateway) RetrieveSessionStatus(_ context.Context, sessionID string) (payment.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.StatusErr != nil {
		return payment.Status{}, g.StatusErr
	}

	return g.status[sessionID], nil
}

// SetPaid makes RetrieveSessionStatus report the session as paid.
func (g *Gateway) SetPaid(sessionID, paymentIntent string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.status[sessionID] = payment.Status{Paid: true, PaymentIntentID: paymentIntent}
}
