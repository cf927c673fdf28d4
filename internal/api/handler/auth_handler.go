package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crmdesk/crm-api/internal/api/metrics"
	"github.com/crmdesk/crm-api/internal/api/middleware"
	"github.com/crmdesk/crm-api/internal/core/domain"
	"github.com/crmdesk/crm-api/internal/core/ports"
	"github.com/crmdesk/crm-api/internal/core/schema"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// Register creates a new user account and signs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      schema.UserPayload  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req schema.UserPayload
	if err := c.Bind(&req); err != nil {
		return errInvalidBody()
	}

	fields, err := schema.ValidateInsertUser(req)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.authService.Register(ctx, fields)
	metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	session, _, err := h.authService.Login(ctx, fields.Username, fields.Password)
	if err != nil {
		return err
	}
	h.setCookie(c, session)

	return c.JSON(http.StatusCreated, authResponse{User: toUserResponse(user), Token: session.Token})
}

// Login authenticates a user and establishes a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      schema.LoginPayload  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      429   {object}  messageResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req schema.LoginPayload
	if err := c.Bind(&req); err != nil {
		return errInvalidBody()
	}
	if err := schema.Validate(req); err != nil {
		return err
	}

	session, user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	h.setCookie(c, session)

	return c.JSON(http.StatusOK, authResponse{User: toUserResponse(user), Token: session.Token})
}

// Logout ends the current session, if any, and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := middleware.SessionToken(c, h.cookie.Name); token != "" {
		if err := h.authService.Logout(c.Request().Context(), token); err != nil {
			return err
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// CurrentUser returns the signed-in user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  messageResponse
// @Router       /api/user [get]
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) setCookie(c echo.Context, session *domain.Session) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Name: u.Name}
}
