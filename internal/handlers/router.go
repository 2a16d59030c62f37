package handlers

import (
	"net/http"
	"time"

	"redeploy/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type RouterDependencies struct {
	Handler        *Handler
	AuthMiddleware func(http.Handler) http.Handler
	Metrics        *metrics.Collector
	LoginLimiter   *IPRateLimiter
	CORSOrigins    []string
	RequestTimeout time.Duration
	Log            *zap.Logger
}

func NewRouter(deps RouterDependencies) http.Handler {
	h := deps.Handler

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Log))
	r.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		r.With(deps.LoginLimiter.Middleware).Post("/auth/login", h.LoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware)

			// справочники
			r.Get("/organizations", h.GetOrganizationsHandler)
			r.Post("/organizations", h.CreateOrganizationHandler)
			r.Get("/organizations/{id}", h.GetOrganizationHandler)
			r.Put("/organizations/{id}", h.UpdateOrganizationHandler)
			r.Delete("/organizations/{id}", h.DeleteOrganizationHandler)
			r.Get("/profiles", h.GetProfilesHandler)
			r.Post("/profiles", h.CreateProfileHandler)
			r.Get("/profiles/{id}", h.GetProfileHandler)
			r.Put("/profiles/{id}", h.UpdateProfileHandler)
			r.Delete("/profiles/{id}", h.DeleteProfileHandler)

			// агенты и заявки
			r.Get("/agents", h.GetAgentsHandler)
			r.Post("/agents", h.CreateAgentHandler)
			r.Get("/agents/{id}", h.GetAgentHandler)
			r.Put("/agents/{id}", h.UpdateAgentHandler)
			r.Get("/positions", h.GetPositionsHandler)
			r.Post("/positions", h.CreatePositionHandler)
			r.Get("/positions/{id}", h.GetPositionHandler)
			r.Put("/positions/{id}", h.UpdatePositionHandler)

			// подбор и назначения
			r.Post("/matching", h.SuggestMatchesHandler)
			r.Get("/matching/candidates", h.ManualCandidatesHandler)
			r.Get("/matches", h.GetMatchesHandler)
			r.Post("/matches", h.CreateMatchHandler)
			r.Delete("/matches/{id}", h.DeleteMatchHandler)

			r.Get("/dashboard", h.DashboardHandler)
		})
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr))
		})
	}
}
