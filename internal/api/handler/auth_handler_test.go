package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crmdesk/crm-api/internal/core/domain"
)

var testCookie = CookieConfig{Name: "crm.sid", TTL: time.Hour}

func liveSession() *domain.Session {
	return &domain.Session{ID: "sid", UserID: 1, ExpiresAt: time.Now().Add(time.Hour), Token: "signed-token"}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	var loggedIn bool
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, f domain.UserFields) (*domain.User, error) {
			if f.Username != "alice" || f.Password != "secret" || f.Name != "Alice" {
				t.Fatalf("unexpected fields: %+v", f)
			}
			return &domain.User{ID: 1, Username: f.Username, Name: f.Name, PasswordHash: "hash"}, nil
		},
		loginFn: func(ctx context.Context, username, password string) (*domain.Session, *domain.User, error) {
			loggedIn = true
			return liveSession(), &domain.User{ID: 1, Username: username}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookie)

	c, rec := newContext(http.MethodPost, "/api/register", `{"username":"alice","password":"secret","name":"Alice"}`, nil)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if !loggedIn {
		t.Fatalf("registration must start a session")
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["username"] != "alice" || user["name"] != "Alice" {
		t.Fatalf("unexpected user: %v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password must not be serialised")
	}

	ck := findCookie(rec, "crm.sid")
	if ck == nil || ck.Value != "signed-token" || !ck.HttpOnly {
		t.Fatalf("session cookie not set: %+v", ck)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, f domain.UserFields) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub, testCookie)

	c, rec := newContext(http.MethodPost, "/api/register", `{"username":"alice","password":"secret"}`, nil)
	err := handler.Register(c)
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if findCookie(rec, "crm.sid") != nil {
		t.Fatalf("no session cookie on conflict")
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, f domain.UserFields) (*domain.User, error) {
			t.Fatalf("service must not be called for invalid input")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, testCookie)

	c, _ := newContext(http.MethodPost, "/api/register", `{"username":"","password":""}`, nil)
	err := handler.Register(c)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Fields["username"] == "" || ve.Fields["password"] == "" {
		t.Fatalf("expected username and password errors, got %v", ve.Fields)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, testCookie)

	c, _ := newContext(http.MethodPost, "/api/register", `{invalid`, nil)
	err := handler.Register(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*domain.Session, *domain.User, error) {
			if username != "alice" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return liveSession(), &domain.User{ID: 1, Username: "alice", Name: "Alice"}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookie)

	c, rec := newContext(http.MethodPost, "/api/login", `{"username":"alice","password":"secret"}`, nil)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "signed-token" || resp.User.Username != "alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if findCookie(rec, "crm.sid") == nil {
		t.Fatalf("session cookie not set")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*domain.Session, *domain.User, error) {
			return nil, nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub, testCookie)

	c, rec := newContext(http.MethodPost, "/api/login", `{"username":"alice","password":"wrong"}`, nil)
	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if findCookie(rec, "crm.sid") != nil {
		t.Fatalf("no cookie on failed login")
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, testCookie)

	c, _ := newContext(http.MethodPost, "/api/login", `{"username":"alice"}`, nil)
	var ve *domain.ValidationError
	if err := handler.Login(c); !errors.As(err, &ve) || ve.Fields["password"] == "" {
		t.Fatalf("expected password validation error, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	var revoked string
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, token string) error {
			revoked = token
			return nil
		},
	}
	handler := NewAuthHandler(stub, testCookie)

	c, rec := newContext(http.MethodPost, "/api/logout", "", nil)
	c.Request().AddCookie(&http.Cookie{Name: "crm.sid", Value: "signed-token"})
	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if revoked != "signed-token" {
		t.Fatalf("session not revoked, got %q", revoked)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	ck := findCookie(rec, "crm.sid")
	if ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", ck)
	}
}

func TestAuthHandler_Logout_WithoutSession(t *testing.T) {
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, token string) error {
			t.Fatalf("nothing to revoke")
			return nil
		},
	}
	handler := NewAuthHandler(stub, testCookie)

	c, rec := newContext(http.MethodPost, "/api/logout", "", nil)
	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_CurrentUser(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, testCookie)

	c, rec := newContext(http.MethodGet, "/api/user", "", &domain.User{ID: 3, Username: "bob", Name: "Bob"})
	if err := handler.CurrentUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var u userResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &u)
	if u.ID != 3 || u.Username != "bob" {
		t.Fatalf("unexpected user: %+v", u)
	}

	c, _ = newContext(http.MethodGet, "/api/user", "", nil)
	if err := handler.CurrentUser(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
