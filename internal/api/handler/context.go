package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/prospermbuma/acquisitions/internal/core/domain"
)

// Context keys populated by middleware.Auth.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// ctxUserID extracts the account id injected by the Auth middleware and
// fails fast when the middleware did not run.
func ctxUserID(c echo.Context) (int64, error) {
	id, _ := c.Get(CtxUserID).(int64)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// auditEvent builds an audit entry carrying the caller's network identity.
func auditEvent(c echo.Context, typ domain.AuthEventType, userID int64, email string) domain.AuthEvent {
	return domain.AuthEvent{
		Type:      typ,
		UserID:    userID,
		Email:     email,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
