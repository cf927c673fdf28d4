// Command server runs the CRM API.
//
// @title                       CRM API
// @version                     1.0
// @description                 Customer records behind session authentication.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmdesk/crm-api/internal/api"
	"github.com/crmdesk/crm-api/internal/api/handler"
	"github.com/crmdesk/crm-api/internal/core/service"
	"github.com/crmdesk/crm-api/internal/infrastructure/config"
	"github.com/crmdesk/crm-api/internal/infrastructure/storage"
	"github.com/crmdesk/crm-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "crm-api",
	})

	log.Info().Str("env", cfg.Env).Msg("starting crm api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	secret := cfg.Session.Secret
	if secret == "" {
		var err error
		if secret, err = randomSecret(); err != nil {
			return err
		}
		log.Warn().Msg("SESSION_SECRET not set; sessions will not survive a restart")
	}

	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("closing storage")
		}
	}()
	go backend.RunPruner(ctx)

	e := api.NewRouter(api.Deps{
		Auth:      service.NewAuthService(backend.Users, backend.Sessions, secret, cfg.Session.TTL, log),
		Customers: service.NewCustomerService(backend.Customers, log),
		Pingers:   backend.Pingers,
		Logger:    log,
		Cookie: handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			TTL:    cfg.Session.TTL,
		},
		AuthRatePerSecond: cfg.RateLimit.PerSecond,
		AuthRateBurst:     cfg.RateLimit.Burst,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
