package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

// UserKey is the echo context key holding the authenticated *domain.User.
const UserKey = "user"

// SessionResolver maps a session token to its user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*domain.User, error)
}

// SessionToken returns the session token carried by the request: the session
// cookie when present, otherwise a bearer Authorization header.
func SessionToken(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireSession resolves the request's session and injects the user into the
// context. Requests without a live session stop here with
// domain.ErrUnauthenticated and never reach validation or persistence.
func RequireSession(auth SessionResolver, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := SessionToken(c, cookieName)
			if token == "" {
				return domain.ErrUnauthenticated
			}

			user, err := auth.ResolveSession(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return domain.ErrUnauthenticated
				}
				return err
			}

			c.Set(UserKey, user)
			return next(c)
		}
	}
}
