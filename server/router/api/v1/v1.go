package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kiralabs/kira/internal/profile"
	"github.com/kiralabs/kira/plugin/ai/metrics"
	"github.com/kiralabs/kira/server/internal/observability"
	ratelimit "github.com/kiralabs/kira/server/middleware"
	"github.com/kiralabs/kira/server/service/route"
)

// Router routes a message. *route.Service satisfies it.
type Router interface {
	Route(ctx context.Context, in *route.Inbound) (*route.Output, error)
}

type APIV1Service struct {
	Profile        *profile.Profile
	RouteService   Router
	MetricsService metrics.MetricsService

	// Lifetime, when set, adds process-lifetime counters to the metrics overview.
	Lifetime *observability.Metrics

	limiter *ratelimit.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, router Router, metricsService metrics.MetricsService) *APIV1Service {
	return &APIV1Service{
		Profile:        profile,
		RouteService:   router,
		MetricsService: metricsService,
		limiter:        ratelimit.NewRateLimiter(0, 0),
	}
}

// WithRateLimiter replaces the per-sender limiter. Nil disables limiting.
func (s *APIV1Service) WithRateLimiter(limiter *ratelimit.RateLimiter) *APIV1Service {
	s.limiter = limiter
	return s
}

// RegisterRoutes registers the HTTP API with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	apiGroup := echoServer.Group("/api/v1")
	apiGroup.Use(middleware.CORS())
	apiGroup.POST("/route", s.PostRoute)
	apiGroup.GET("/system/metrics/overview", s.GetMetricsOverview)
}

// NewEchoServer creates an Echo instance with the middleware every route shares.
func NewEchoServer(profile *profile.Profile) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		TargetHeader: echo.HeaderXRequestID,
	}))
	if profile != nil && profile.IsDev() {
		e.Debug = true
	}
	return e
}
