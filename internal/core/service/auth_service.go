package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/crmdesk/crm-api/internal/core/domain"
	"github.com/crmdesk/crm-api/internal/core/ports"
	"github.com/crmdesk/crm-api/internal/core/schema"
)

// dummyHash is compared against when the username is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("crm-dummy-password"), bcrypt.DefaultCost)

// AuthService implements registration, login and session resolution.
//
// A session lives in the SessionStore; the client only receives an HS256 token
// wrapping the session id, so a forged or altered cookie never reaches the store.
type AuthService struct {
	users      ports.UserRepository
	sessions   ports.SessionStore
	secret     []byte
	sessionTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionStore, secret string, sessionTTL time.Duration, logger zerolog.Logger) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, fields domain.UserFields) (*domain.User, error) {
	fields, err := schema.ValidateInsertUser(schema.UserPayload{
		Username: fields.Username,
		Password: fields.Password,
		Name:     fields.Name,
	})
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(fields.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     fields.Username,
		PasswordHash: string(hash),
		Name:         fields.Name,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, *domain.User, error) {
	if username == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			s.logger.Warn().Str("username", username).Msg("login failed: unknown user")
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.Warn().Str("username", username).Msg("login failed: bad password")
		return nil, nil, domain.ErrInvalidCredentials
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	// Expired tokens may still log out, so claim validation is skipped here.
	claims, err := s.parseToken(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	session, err := s.sessions.Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session.Expired(s.now()) || strconv.FormatInt(session.UserID, 10) != claims.Subject {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = s.sessions.Delete(ctx, session.ID)
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	now := s.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	token, err := s.generateToken(session, now)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	session.Token = token

	s.logger.Debug().Int64("user_id", user.ID).Str("session_id", session.ID).Msg("session started")
	return session, nil
}

func (s *AuthService) generateToken(session *domain.Session, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   strconv.FormatInt(session.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *AuthService) parseToken(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid || claims.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}
