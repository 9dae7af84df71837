// Package httpapi exposes the context engine over HTTP.
//
// Routes:
//
//	GET  /api/context/*         tenantless query; client_id and include_client in the query string
//	POST /api/rac               tenantless query; path, client_id and include_client in the body
//	GET  /api/rac/{client}      everything the tenant can address
//	POST /api/rac/{client}      tenant query with access policy and role remapping
//	GET  /api/file/{file_id}    unprocessed file, optional section query parameter
//	GET  /healthz               index status
//	GET  /metrics               Prometheus metrics, when a collector is configured
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/aiopener/rac/engine"
	"github.com/aiopener/rac/internal/metrics"
)

// Deps contains dependencies for the HTTP handlers.
type Deps struct {
	Engine *engine.Engine
	Logger zerolog.Logger
	// Metrics is optional; nil disables the metrics middleware and endpoint
	Metrics *metrics.Collector
	// MetricsPath defaults to /metrics
	MetricsPath string
	// RequestTimeout bounds each request; zero means 60s
	RequestTimeout time.Duration
}

// Handler serves the rac HTTP API.
type Handler struct {
	engine   *engine.Engine
	logger   zerolog.Logger
	validate *validator.Validate
}

// NewHandler creates the API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		engine:   deps.Engine,
		logger:   deps.Logger,
		validate: validator.New(),
	}
}

// NewRouter creates the HTTP router with middleware, API routes, health and
// metrics endpoints.
func NewRouter(deps Deps) chi.Router {
	h := NewHandler(deps)
	timeout := deps.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	metricsPath := deps.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newLoggingMiddleware(deps.Logger, metricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	if deps.Metrics != nil {
		r.Use(newMetricsMiddleware(deps.Metrics, metricsPath))
		r.Handle(metricsPath, deps.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errorBody{Code: engine.CodeNotFound, Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errorBody{
			Code:    CodeMethodNotAllowed,
			Message: r.Method + " not allowed",
		})
	})

	r.Get("/healthz", h.Health)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the /api routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/context/*", h.GetContext)
		r.Post("/rac", h.PostContext)
		r.Get("/rac/{client}", h.GetTenantIndex)
		r.Post("/rac/{client}", h.PostTenantContext)
		r.Get("/file/{file_id}", h.GetRawFile)
	})
}

// newLoggingMiddleware logs every request except health checks and metrics
// scrapes.
func newLoggingMiddleware(logger zerolog.Logger, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if skipInstrumentation(r.URL.Path, metricsPath) {
				return
			}
			ev := logger.Debug()
			if ww.Status() >= http.StatusInternalServerError {
				ev = logger.Error()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

func newMetricsMiddleware(m *metrics.Collector, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipInstrumentation(r.URL.Path, metricsPath) {
				next.ServeHTTP(w, r)
				return
			}
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// route patterns keep label cardinality bounded
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, ww.Status(), time.Since(start))
		})
	}
}

func skipInstrumentation(path, metricsPath string) bool {
	return strings.HasPrefix(path, "/healthz") || path == metricsPath
}
