package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/phone-auth/internal/api/http"
	"github.com/spec-kit/phone-auth/internal/api/http/handlers"
	"github.com/spec-kit/phone-auth/internal/config"
	"github.com/spec-kit/phone-auth/internal/domain"
	"github.com/spec-kit/phone-auth/internal/events"
	"github.com/spec-kit/phone-auth/internal/observability"
	"github.com/spec-kit/phone-auth/internal/ratelimit"
	"github.com/spec-kit/phone-auth/internal/repository"
	"github.com/spec-kit/phone-auth/internal/service"
	"github.com/spec-kit/phone-auth/internal/session"
	"github.com/spec-kit/phone-auth/internal/verify"
)

const cookieName = "test_session"

type scriptedGateway struct {
	startStatus string
	startErr    error
	checkStatus string
	checkErr    error
}

func (g *scriptedGateway) Start(context.Context, string) (verify.Outcome, error) {
	return verify.Outcome{Status: g.startStatus}, g.startErr
}

func (g *scriptedGateway) Check(context.Context, string, string) (verify.Outcome, error) {
	return verify.Outcome{Status: g.checkStatus}, g.checkErr
}

type scriptedAccounts struct {
	id      string
	err     error
	created int
}

func (a *scriptedAccounts) CreateUser(context.Context, string, string) (string, error) {
	a.created++
	return a.id, a.err
}

func (a *scriptedAccounts) DeleteUser(context.Context, string) error {
	return nil
}

type testApp struct {
	app      *fiber.App
	sessions *session.Manager
	accounts *scriptedAccounts
	profiles repository.ProfileRepository
}

func newTestApp(t *testing.T, gateway service.ChallengeGateway) *testApp {
	t.Helper()

	accounts := &scriptedAccounts{id: "user-123"}
	profiles := repository.NewMemoryProfileRepository()

	flow := service.NewAuthFlowService(
		config.RateLimitConfig{MaxSends: 10, MaxChecks: 10, WindowMinutes: 10},
		service.AuthFlowDependencies{
			Gateway:     gateway,
			Accounts:    accounts,
			ProfileRepo: profiles,
			Limiter:     ratelimit.NewMemoryLimiter(10 * time.Minute),
			Dispatcher:  events.NewInMemoryDispatcher(),
		},
	)

	sessions := session.NewManager(config.SessionConfig{
		Secret:     "test-secret",
		CookieName: cookieName,
		TTLMinutes: 60,
	})

	engine := html.New("../../../../web/views", ".html")
	app := fiber.New(fiber.Config{Views: engine, ViewsLayout: "layout"})
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler("phone-auth-test", "test", nil, nil),
		Auth:     handlers.NewAuthHandler(flow),
		Sessions: sessions,
	})

	return &testApp{app: app, sessions: sessions, accounts: accounts, profiles: profiles}
}

func (ta *testApp) get(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (ta *testApp) postForm(t *testing.T, path string, form url.Values, cookie *http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func respCookie(resp *http.Response) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookieName {
			return cookie
		}
	}
	return nil
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func pendingSignupCookie(t *testing.T, ta *testApp, name, phone string) *http.Cookie {
	t.Helper()
	state := session.Anonymous()
	state.SetPendingSignup(name, phone)
	token, err := ta.sessions.Codec().Encode(state)
	require.NoError(t, err)
	return &http.Cookie{Name: cookieName, Value: token}
}

func TestHomeShowsNoUserForAnonymousVisitor(t *testing.T) {
	ta := newTestApp(t, &scriptedGateway{})

	resp := ta.get(t, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body(t, resp), "Welcome back")
}

func TestSignupFlowEndToEnd(t *testing.T) {
	ta := newTestApp(t, &scriptedGateway{startStatus: "pending", checkStatus: "approved"})

	// Submit the signup form.
	resp := ta.postForm(t, "/signup", url.Values{
		"name":  {"Ada"},
		"phone": {"+15551234567"},
	}, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/verify", resp.Header.Get("Location"))
	cookie := respCookie(resp)
	require.NotNil(t, cookie)

	// The verify page shows the pending phone.
	resp = ta.get(t, "/verify", cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "+15551234567")

	// Submit the approved code.
	resp = ta.postForm(t, "/verify", url.Values{"otp": {"123456"}}, cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	authed := respCookie(resp)
	require.NotNil(t, authed)

	// Exactly one account and one profile exist.
	assert.Equal(t, 1, ta.accounts.created)
	profile, err := ta.profiles.GetByPhone(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, "user-123", profile.ID)
	assert.Equal(t, "Ada", profile.Name)

	// The session is authenticated and the pending state is gone.
	state := ta.sessions.Codec().Decode(authed.Value)
	user, ok := state.User()
	require.True(t, ok)
	assert.Equal(t, domain.SessionUser{ID: "user-123", Name: "Ada", Phone: "+15551234567"}, user)
	_, ok = state.PendingSignup()
	assert.False(t, ok)

	// The home page greets the user.
	resp = ta.get(t, "/", authed)
	assert.Contains(t, body(t, resp), "Ada")
}

func TestSignupDeliveryFailureShowsError(t *testing.T) {
	ta := newTestApp(t, &scriptedGateway{startStatus: "canceled"})

	resp := ta.postForm(t, "/signup", url.Values{
		"name":  {"Ada"},
		"phone": {"+15551234567"},
	}, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Nil(t, respCookie(resp), "no pending state is stored when the send is rejected")
}

func TestSignupValidatesInput(t *testing.T) {
	ta := newTestApp(t, &scriptedGateway{startStatus: "pending"})

	resp := ta.postForm(t, "/signup", url.Values{"name": {"Ada"}}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ta.postForm(t, "/signup", url.Values{
		"name":  {"Ada"},
		"phone": {"not-a-phone"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyRejectedCodeKeepsPendingSignup(t *testing.T) {
	ta := newTestApp(t, &scriptedGateway{checkStatus: "failed"})
	cookie := pendingSignupCookie(t, ta, "Ada", "+15551234567")

	resp := ta.postForm(t, "/verify", url.Values{"otp": {"000000"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body(t, resp), "verification failed")
	assert.Zero(t, ta.accounts.created)
	assert.Nil(t, respCookie(resp), "session is not rewritten on a failed check")
}

func TestVerifyWithoutPendingSignup(t *testing.T) {
	ta := newTestApp(t, &scriptedGateway{checkStatus: "approved"})

	resp := ta.get(t, "/verify", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/signup", resp.Header.Get("Location"))

	resp = ta.postForm(t, "/verify", url.Values{"otp": {"123456"}}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSigninFlowEndToEnd(t *testing.T) {
	ta := newTestApp(t, &scriptedGateway{startStatus: "pending", checkStatus: "approved"})
	require.NoError(t, ta.profiles.Create(context.Background(), &domain.Profile{
		ID: "user-456", Name: "Grace", Phone: "+15557654321",
	}))

	resp := ta.postForm(t, "/signin", url.Values{"phone": {"+15557654321"}}, nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/signin/verify", resp.Header.Get("Location"))
	cookie := respCookie(resp)
	require.NotNil(t, cookie)

	resp = ta.get(t, "/signin/verify", cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "+15557654321")

	resp = ta.postForm(t, "/signin/verify", url.Values{"otp": {"123456"}}, cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	authed := respCookie(resp)
	require.NotNil(t, authed)
	decoded := ta.sessions.Codec().Decode(authed.Value)
	user, ok := decoded.User()
	require.True(t, ok)
	assert.Equal(t, domain.SessionUser{ID: "user-456", Name: "Grace", Phone: "+15557654321"}, user)
	assert.Zero(t, ta.accounts.created, "signin must not create accounts")
}

func TestSigninUnknownPhoneIsNotFound(t *testing.T) {
	ta := newTestApp(t, &scriptedGateway{startStatus: "pending", checkStatus: "approved"})

	resp := ta.postForm(t, "/signin", url.Values{"phone": {"+15550000000"}}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	cookie := respCookie(resp)
	require.NotNil(t, cookie)

	resp = ta.postForm(t, "/signin/verify", url.Values{"otp": {"123456"}}, cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body(t, resp), "not found")

	// The pending signin survives so the visitor can go sign up instead.
	decoded := ta.sessions.Codec().Decode(cookie.Value)
	phone, ok := decoded.SigninPhone()
	require.True(t, ok)
	assert.Equal(t, "+15550000000", phone)
}

func TestSigninVerifyWithoutPendingSignin(t *testing.T) {
	ta := newTestApp(t, &scriptedGateway{checkStatus: "approved"})

	resp := ta.get(t, "/signin/verify", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/signin", resp.Header.Get("Location"))

	resp = ta.postForm(t, "/signin/verify", url.Values{"otp": {"123456"}}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignoutClearsSession(t *testing.T) {
	ta := newTestApp(t, &scriptedGateway{})

	state := session.Anonymous()
	state.SetUser(domain.SessionUser{ID: "user-123", Name: "Ada", Phone: "+15551234567"})
	token, err := ta.sessions.Codec().Encode(state)
	require.NoError(t, err)
	cookie := &http.Cookie{Name: cookieName, Value: token}

	resp := ta.get(t, "/signout", cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	cleared := respCookie(resp)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	resp = ta.get(t, "/", &http.Cookie{Name: cookieName, Value: cleared.Value})
	assert.NotContains(t, body(t, resp), "Welcome back")
}
