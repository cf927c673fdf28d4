package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// messageResponse is the body of every error and of logout.
type messageResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token,omitempty"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func errInvalidBody() error {
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
}
