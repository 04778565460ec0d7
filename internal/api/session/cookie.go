// Package session transports session tokens in HTTP cookies.
package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieName is the cookie that carries the session token.
const CookieName = "token"

// DefaultMaxAge applies when neither the manager nor the call sets one.
const DefaultMaxAge = 15 * time.Minute

// Options overrides per-call cookie attributes. HttpOnly, Secure and
// SameSite are owned by the Manager and cannot be overridden.
type Options struct {
	MaxAge time.Duration
	Path   string
	Domain string
}

// Manager writes session cookies with fixed security attributes: always
// HttpOnly, SameSite=Strict, and Secure when running in production.
type Manager struct {
	secure bool
	maxAge time.Duration
}

func NewManager(secure bool, maxAge time.Duration) *Manager {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Manager{secure: secure, maxAge: maxAge}
}

// Set writes name=value on the response.
func (m *Manager) Set(c echo.Context, name, value string, opts ...Options) {
	cookie := m.base(name, opts)
	cookie.Value = value
	cookie.Expires = time.Now().Add(time.Duration(cookie.MaxAge) * time.Second)
	c.SetCookie(cookie)
}

// Get returns the value of the named request cookie.
func (m *Manager) Get(c echo.Context, name string) (string, bool) {
	cookie, err := c.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Clear expires the named cookie. It is safe to call when the client sent
// no such cookie.
func (m *Manager) Clear(c echo.Context, name string, opts ...Options) {
	cookie := m.base(name, opts)
	cookie.Value = ""
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	c.SetCookie(cookie)
}

func (m *Manager) base(name string, opts []Options) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Path:     "/",
		MaxAge:   int(m.maxAge / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	}
	for _, o := range opts {
		if o.MaxAge > 0 {
			cookie.MaxAge = int(o.MaxAge / time.Second)
		}
		if o.Path != "" {
			cookie.Path = o.Path
		}
		if o.Domain != "" {
			cookie.Domain = o.Domain
		}
	}
	return cookie
}
