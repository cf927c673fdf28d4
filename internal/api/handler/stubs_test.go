package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/crmdesk/crm-api/internal/api/middleware"
	"github.com/crmdesk/crm-api/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, fields domain.UserFields) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (*domain.Session, *domain.User, error)
	logoutFn   func(ctx context.Context, token string) error
	resolveFn  func(ctx context.Context, token string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, fields domain.UserFields) (*domain.User, error) {
	return s.registerFn(ctx, fields)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*domain.Session, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

func (s *stubAuthService) ResolveSession(ctx context.Context, token string) (*domain.User, error) {
	return s.resolveFn(ctx, token)
}

type stubCustomerService struct {
	createFn func(ctx context.Context, f domain.CustomerFields) (*domain.Customer, error)
	listFn   func(ctx context.Context) ([]*domain.Customer, error)
	getFn    func(ctx context.Context, id int64) (*domain.Customer, error)
	updateFn func(ctx context.Context, id int64, f domain.CustomerFields) (*domain.Customer, error)
	deleteFn func(ctx context.Context, id int64) error
	statsFn  func(ctx context.Context) (domain.CustomerStats, error)
}

func (s *stubCustomerService) CreateCustomer(ctx context.Context, f domain.CustomerFields) (*domain.Customer, error) {
	return s.createFn(ctx, f)
}

func (s *stubCustomerService) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	return s.listFn(ctx)
}

func (s *stubCustomerService) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.getFn(ctx, id)
}

func (s *stubCustomerService) UpdateCustomer(ctx context.Context, id int64, f domain.CustomerFields) (*domain.Customer, error) {
	return s.updateFn(ctx, id, f)
}

func (s *stubCustomerService) DeleteCustomer(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

func (s *stubCustomerService) Stats(ctx context.Context) (domain.CustomerStats, error) {
	return s.statsFn(ctx)
}

// newContext builds an echo context for a JSON request. A non-nil user is
// injected the way middleware.RequireSession does.
func newContext(method, target, body string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.UserKey, user)
	}
	return c, rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
