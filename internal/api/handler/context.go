package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/crmdesk/crm-api/internal/api/middleware"
	"github.com/crmdesk/crm-api/internal/core/domain"
)

// currentUser returns the user injected by middleware.RequireSession. Its
// absence means the route was registered outside the authenticated group.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(middleware.UserKey).(*domain.User)
	if !ok || user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}
