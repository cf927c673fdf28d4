// Package api is the HTTP surface of the CRM: routing, middleware wiring and
// the single translation point from errors to responses.
package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/crmdesk/crm-api/docs"
	"github.com/crmdesk/crm-api/internal/api/handler"
	"github.com/crmdesk/crm-api/internal/api/metrics"
	"github.com/crmdesk/crm-api/internal/api/middleware"
	"github.com/crmdesk/crm-api/internal/core/ports"
	healthhandlers "github.com/crmdesk/crm-api/internal/infrastructure/http/handlers"
)

// Deps carries everything the router needs. Services are constructed by the
// caller so tests can swap any of them.
type Deps struct {
	Auth      ports.AuthService
	Customers ports.CustomerService
	// Pingers is probed by /health/ready, keyed by dependency name.
	Pingers map[string]ports.Pinger
	Logger  zerolog.Logger
	Cookie  handler.CookieConfig

	AuthRatePerSecond float64
	AuthRateBurst     int
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registry.MustRegister(metrics.Collectors()...)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "crm",
		Registerer: registry,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookie)
	customerHandler := handler.NewCustomerHandler(d.Customers)
	requireSession := middleware.RequireSession(d.Auth, d.Cookie.Name)
	rateLimit := middleware.RateLimit(d.AuthRatePerSecond, d.AuthRateBurst)

	// --- Auth routes ---
	g := e.Group("/api")
	g.POST("/register", authHandler.Register, rateLimit)
	g.POST("/login", authHandler.Login, rateLimit)
	g.POST("/logout", authHandler.Logout)
	g.GET("/user", authHandler.CurrentUser, requireSession)

	// --- Customer routes (session required) ---
	customers := g.Group("/customers", requireSession)
	customers.GET("", customerHandler.List)
	customers.POST("", customerHandler.Create)
	customers.GET("/stats", customerHandler.Stats)
	customers.GET("/:id", customerHandler.Get)
	customers.PUT("/:id", customerHandler.Update)
	customers.DELETE("/:id", customerHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := healthhandlers.NewHealthHandler()
	healthDepsHandler := healthhandlers.NewHealthDependenciesHandler(d.Pingers)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness

	// --- Operational ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: registry}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
