package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prospermbuma/acquisitions/internal/api/session"
	"github.com/prospermbuma/acquisitions/internal/core/domain"
	"github.com/prospermbuma/acquisitions/internal/core/ports"
	"github.com/prospermbuma/acquisitions/internal/security"
)

// TokenService signs session tokens and reads them back.
type TokenService interface {
	Sign(user *domain.User) (string, error)
	Verify(token string) (*security.Claims, error)
}

type AuthHandler struct {
	authService ports.AuthService
	tokens      TokenService
	cookies     *session.Manager
	audit       ports.AuditRecorder
	log         zerolog.Logger
	// allowAdminSignUp permits role "admin" on public sign-up.
	allowAdminSignUp bool
}

func NewAuthHandler(
	authService ports.AuthService,
	tokens TokenService,
	cookies *session.Manager,
	audit ports.AuditRecorder,
	log zerolog.Logger,
	allowAdminSignUp bool,
) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		tokens:           tokens,
		cookies:          cookies,
		audit:            audit,
		log:              log,
		allowAdminSignUp: allowAdminSignUp,
	}
}

// SignUp creates a new account and starts a session for it.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/v1/auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return newValidationError("request body must be a valid JSON object")
	}
	req.normalize()
	if err := c.Validate(&req); err != nil {
		return err
	}
	if domain.Role(req.Role) == domain.RoleAdmin && !h.allowAdminSignUp {
		h.log.Warn().Str("email", req.Email).Str("ip", c.RealIP()).Msg("admin role requested on sign-up")
		h.audit.Record(auditEvent(c, domain.EventSignUpRejected, 0, req.Email))
		return domain.ErrForbidden
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		h.log.Error().Err(err).Str("email", req.Email).Msg("sign-up failed")
		if errors.Is(err, domain.ErrDuplicateEmail) {
			h.audit.Record(auditEvent(c, domain.EventSignUpRejected, 0, req.Email))
		}
		return err
	}

	if err := h.startSession(c, user); err != nil {
		return err
	}

	h.log.Info().Str("email", user.Email).Int64("user_id", user.ID).Msg("user registered")
	h.audit.Record(auditEvent(c, domain.EventSignedUp, user.ID, user.Email))

	return c.JSON(http.StatusCreated, authResponse{
		Message: "User registered",
		User:    toUserResponse(user),
	})
}

// SignIn authenticates with email and password and starts a session.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /api/v1/auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return newValidationError("request body must be a valid JSON object")
	}
	req.normalize()
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		h.log.Error().Err(err).Str("email", req.Email).Str("ip", c.RealIP()).Msg("sign-in failed")
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.audit.Record(auditEvent(c, domain.EventSignInFailed, 0, req.Email))
		}
		return err
	}

	if err := h.startSession(c, user); err != nil {
		return err
	}

	h.log.Info().Str("email", user.Email).Int64("user_id", user.ID).Msg("user signed in")
	h.audit.Record(auditEvent(c, domain.EventSignedIn, user.ID, user.Email))

	return c.JSON(http.StatusOK, authResponse{
		Message: "User signed in successfully",
		User:    toUserResponse(user),
	})
}

// SignOut clears the session cookie. It succeeds whether or not a session
// was present.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/v1/auth/sign-out [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	if token, ok := h.cookies.Get(c, session.CookieName); ok {
		if claims, err := h.tokens.Verify(token); err == nil {
			h.log.Info().Str("email", claims.Email).Int64("user_id", claims.UserID).Msg("user signed out")
			h.audit.Record(auditEvent(c, domain.EventSignedOut, claims.UserID, claims.Email))
		}
	}

	h.cookies.Clear(c, session.CookieName)
	return c.JSON(http.StatusOK, messageResponse{Message: "User signed out successfully"})
}

// Me returns the account behind the current session.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /api/v1/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Profile(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// The token outlived its account.
			return domain.ErrInvalidToken
		}
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{User: user.Public()})
}

func (h *AuthHandler) startSession(c echo.Context, user *domain.User) error {
	token, err := h.tokens.Sign(user)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("token signing failed")
		return err
	}
	h.cookies.Set(c, session.CookieName, token)
	return nil
}
