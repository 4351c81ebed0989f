package api

import (
	"log/slog"
	"net/http"
	"subhub/internal/api/handler"
	"subhub/internal/api/middleware"
	"subhub/internal/api/view"
	"subhub/internal/app/service"
	"subhub/internal/common/security"
	"subhub/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Dependencies struct {
	Logger         *slog.Logger
	Gate           *security.Gate
	AuthService    *service.AuthService
	RecordService  *service.RecordService
	RefreshService *service.RefreshService
	LoginLimiter   *middleware.LoginLimiter
	Views          *view.Renderer
	Metrics        *metrics.Collector
	Gatherer       prometheus.Gatherer

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	if deps.TrustProxyHeaders {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(chiMiddleware.Recoverer)

	auth := middleware.NewAuth(deps.Gate, deps.Metrics)

	handler.NewPageHandler(deps.RecordService, auth, deps.Views).RegisterRoutes(r)
	handler.NewAuthHandler(deps.AuthService, deps.LoginLimiter).RegisterRoutes(r)
	r.Route("/admin", handler.NewAdminHandler(deps.RecordService, auth, deps.Views).RegisterRoutes)
	r.Route("/refresh", handler.NewRefreshHandler(deps.RefreshService, auth).RegisterRoutes)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}
