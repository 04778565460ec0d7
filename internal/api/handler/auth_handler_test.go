package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prospermbuma/acquisitions/internal/api/session"
	"github.com/prospermbuma/acquisitions/internal/core/domain"
	"github.com/prospermbuma/acquisitions/internal/core/ports"
	"github.com/prospermbuma/acquisitions/internal/security"
)

type stubAuthService struct {
	registerFn     func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	authenticateFn func(ctx context.Context, email, password string) (*domain.User, error)
	profileFn      func(ctx context.Context, id int64) (*domain.User, error)
	listFn         func(ctx context.Context, limit, offset int) ([]domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	return s.authenticateFn(ctx, email, password)
}

func (s *stubAuthService) Profile(ctx context.Context, id int64) (*domain.User, error) {
	return s.profileFn(ctx, id)
}

func (s *stubAuthService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return s.listFn(ctx, limit, offset)
}

type stubAudit struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (a *stubAudit) Record(event domain.AuthEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *stubAudit) types() []domain.AuthEventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuthEventType, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestHandler(svc ports.AuthService) (*AuthHandler, *security.TokenIssuer, *stubAudit) {
	return newTestHandlerWithAdmin(svc, false)
}

func newTestHandlerWithAdmin(svc ports.AuthService, allowAdmin bool) (*AuthHandler, *security.TokenIssuer, *stubAudit) {
	tokens := security.NewTokenIssuer("secret", time.Hour, zerolog.Nop())
	audit := &stubAudit{}
	h := NewAuthHandler(svc, tokens, session.NewManager(false, 0), audit, zerolog.Nop(), allowAdmin)
	return h, tokens, audit
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_SignUp_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Name != "Alice" || in.Email != "alice@x.com" || in.Role != domain.RoleUser {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: 1, Name: in.Name, Email: in.Email, Role: in.Role, PasswordHash: "hash"}, nil
		},
	}
	h, tokens, audit := newTestHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/v1/auth/sign-up", `{"name":" Alice ","email":"ALICE@x.com ","password":"secret1"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.SignUp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != "User registered" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["email"] != "alice@x.com" || user["role"] != "user" || user["id"] != float64(1) {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password must not be serialized")
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}

	cookie := sessionCookie(rec)
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly token cookie, got %+v", cookie)
	}
	claims, err := tokens.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("cookie token invalid: %v", err)
	}
	if claims.UserID != 1 || claims.Email != "alice@x.com" || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if got := audit.types(); len(got) != 1 || got[0] != domain.EventSignedUp {
		t.Fatalf("expected signed_up audit event, got %v", got)
	}
}

func TestAuthHandler_SignUp_ValidationErrors(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h, _, _ := newTestHandler(stub)

	cases := []struct {
		name string
		body string
		want []string
	}{
		{name: "empty body", body: `{}`, want: []string{"name is required", "email is required", "password is required"}},
		{name: "short name after trim", body: `{"name":"  A  ","email":"a@x.com","password":"secret1"}`, want: []string{"name must be at least 2 characters"}},
		{name: "bad email", body: `{"name":"Al","email":"not-an-email","password":"secret1"}`, want: []string{"email must be a valid email"}},
		{name: "short password", body: `{"name":"Al","email":"a@x.com","password":"123"}`, want: []string{"password must be at least 6 characters"}},
		{name: "long password", body: `{"name":"Al","email":"a@x.com","password":"` + strings.Repeat("p", 129) + `"}`, want: []string{"password must be at most 128 characters"}},
		{name: "unknown role", body: `{"name":"Al","email":"a@x.com","password":"secret1","role":"root"}`, want: []string{"role must be one of: user, admin"}},
		{name: "malformed json", body: `not-json`, want: []string{"request body must be a valid JSON object"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/auth/sign-up", tc.body), httptest.NewRecorder())

			err := h.SignUp(c)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if strings.Join(ve.Details, "|") != strings.Join(tc.want, "|") {
				t.Fatalf("expected %v, got %v", tc.want, ve.Details)
			}
		})
	}
}

func TestAuthHandler_SignUp_AdminRoleGate(t *testing.T) {
	e := newEcho()
	var registered []ports.RegisterInput
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			registered = append(registered, in)
			return &domain.User{ID: 9, Name: in.Name, Email: in.Email, Role: in.Role}, nil
		},
	}
	body := `{"name":"Mallory","email":"mallory@x.com","password":"secret1","role":"admin"}`

	h, _, audit := newTestHandler(stub)
	rec := httptest.NewRecorder()
	if err := h.SignUp(e.NewContext(jsonRequest(http.MethodPost, "/api/v1/auth/sign-up", body), rec)); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(registered) != 0 {
		t.Fatalf("account must not be created: %+v", registered)
	}
	if sessionCookie(rec) != nil {
		t.Fatalf("no cookie must be set")
	}
	if got := audit.types(); len(got) != 1 || got[0] != domain.EventSignUpRejected {
		t.Fatalf("expected sign_up_rejected audit event, got %v", got)
	}

	h, _, _ = newTestHandlerWithAdmin(stub, true)
	rec = httptest.NewRecorder()
	if err := h.SignUp(e.NewContext(jsonRequest(http.MethodPost, "/api/v1/auth/sign-up", body), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated || len(registered) != 1 || registered[0].Role != domain.RoleAdmin {
		t.Fatalf("expected admin account when enabled, got %d %+v", rec.Code, registered)
	}
}

func TestAuthHandler_SignUp_Duplicate(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}
	h, _, audit := newTestHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/auth/sign-up", `{"name":"Bob","email":"bob@x.com","password":"secret1"}`), rec)

	if err := h.SignUp(c); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if sessionCookie(rec) != nil {
		t.Fatalf("no cookie must be set on failure")
	}
	if got := audit.types(); len(got) != 1 || got[0] != domain.EventSignUpRejected {
		t.Fatalf("expected sign_up_rejected audit event, got %v", got)
	}
}

func TestAuthHandler_SignIn_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		authenticateFn: func(ctx context.Context, email, password string) (*domain.User, error) {
			if email != "alice@x.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &domain.User{ID: 7, Name: "Alice", Email: email, Role: domain.RoleAdmin}, nil
		},
	}
	h, _, audit := newTestHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/auth/sign-in", `{"email":" Alice@X.com","password":"secret1"}`), rec)

	if err := h.SignIn(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message != "User signed in successfully" || resp.User.ID != 7 || resp.User.Role != domain.RoleAdmin {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if sessionCookie(rec) == nil {
		t.Fatalf("expected token cookie")
	}
	if got := audit.types(); len(got) != 1 || got[0] != domain.EventSignedIn {
		t.Fatalf("expected signed_in audit event, got %v", got)
	}
}

func TestAuthHandler_SignIn_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		authenticateFn: func(ctx context.Context, email, password string) (*domain.User, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h, _, audit := newTestHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/auth/sign-in", `{"email":"alice@x.com","password":"bad"}`), rec)

	if err := h.SignIn(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if sessionCookie(rec) != nil {
		t.Fatalf("no cookie must be set on failure")
	}
	if got := audit.types(); len(got) != 1 || got[0] != domain.EventSignInFailed {
		t.Fatalf("expected sign_in_failed audit event, got %v", got)
	}
}

func TestAuthHandler_SignIn_Validation(t *testing.T) {
	e := newEcho()
	h, _, _ := newTestHandler(&stubAuthService{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/auth/sign-in", `{"email":"nope"}`), httptest.NewRecorder())

	var ve *ValidationError
	if err := h.SignIn(c); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Details) != 2 {
		t.Fatalf("expected two field errors, got %v", ve.Details)
	}
}

func TestAuthHandler_SignOut_WithoutCookie(t *testing.T) {
	e := newEcho()
	h, _, audit := newTestHandler(&stubAuthService{})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-out", nil), rec)

		if err := h.SignOut(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "User signed out successfully") {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
		cookie := sessionCookie(rec)
		if cookie == nil || cookie.Value != "" || cookie.MaxAge >= 0 {
			t.Fatalf("expected cleared cookie, got %+v", cookie)
		}
	}
	if got := audit.types(); len(got) != 0 {
		t.Fatalf("anonymous sign-out must not be audited, got %v", got)
	}
}

func TestAuthHandler_SignOut_WithSession(t *testing.T) {
	e := newEcho()
	h, tokens, audit := newTestHandler(&stubAuthService{})

	token, err := tokens.Sign(&domain.User{ID: 3, Email: "carol@x.com", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-out", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec := httptest.NewRecorder()

	if err := h.SignOut(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := audit.types(); len(got) != 1 || got[0] != domain.EventSignedOut {
		t.Fatalf("expected signed_out audit event, got %v", got)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		profileFn: func(ctx context.Context, id int64) (*domain.User, error) {
			if id == 404 {
				return nil, domain.ErrUserNotFound
			}
			return &domain.User{ID: id, Name: "Alice", Email: "alice@x.com", Role: domain.RoleUser, PasswordHash: "hash"}, nil
		},
	}
	h, _, _ := newTestHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), rec)
	c.Set(CtxUserID, int64(5))

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"email":"alice@x.com"`) || strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), httptest.NewRecorder())
	c.Set(CtxUserID, int64(404))
	if err := h.Me(c); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for deleted account, got %v", err)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), httptest.NewRecorder())
	var he *echo.HTTPError
	if err := h.Me(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %v", err)
	}
}
