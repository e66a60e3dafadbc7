package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/roach88/tradecal/internal/metrics"
	"github.com/roach88/tradecal/internal/registry"
)

// Server routes HTTP requests to calendars in a registry.
type Server struct {
	registry    *registry.Registry
	metrics     *metrics.Metrics
	logger      *slog.Logger
	corsOrigins []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics counts requests and serves /metrics from m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithCORSOrigins allows cross-origin GET requests from origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = append(s.corsOrigins, origins...)
	}
}

// New creates a Server over reg.
func New(reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.observe)

	router.HandleFunc(RouteHealth, s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		router.Handle(RouteMetrics, s.metrics.Handler()).Methods(http.MethodGet)
	}

	router.HandleFunc(RouteCalendars, s.handleCalendars).Methods(http.MethodGet)
	router.HandleFunc(RouteCalendar, s.handleCalendar).Methods(http.MethodGet)
	router.HandleFunc(RouteDay, s.handleDay).Methods(http.MethodGet)
	router.HandleFunc(RouteNext, s.handleNext).Methods(http.MethodGet)
	router.HandleFunc(RoutePrev, s.handlePrev).Methods(http.MethodGet)
	router.HandleFunc(RouteHolidays, s.handleHolidays).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, s.logger, http.StatusNotFound, ErrCodeNotFound, "no such route", r.URL.Path)
	})

	if len(s.corsOrigins) == 0 {
		return router
	}
	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet},
		ExposedHeaders: []string{"ETag"},
	})
	return c.Handler(router)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// observe logs each matched request and counts it by route template.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(route, rec.status)
		}
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
