// Package webserver serves editing sessions to browsers over REST and a
// websocket.
package webserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/psidex/topoedit/internal/metrics"
	"github.com/psidex/topoedit/internal/persona"
	"github.com/psidex/topoedit/internal/session"
)

const (
	DefaultClientBuffer = 256
	DefaultWriteTimeout = 10 * time.Second
)

var validate = validator.New()

type Server struct {
	logger   *slog.Logger
	registry *session.Registry
	catalog  *persona.Catalog
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader

	allowedOrigins []string
	clientBuffer   int
	writeTimeout   time.Duration
	staticDir      string
}

type Option func(*Server)

// WithMetrics counts websocket clients on m and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) { s.metrics, s.gatherer = m, gatherer }
}

func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithClientBuffer sets how many changes may queue for one websocket client
// before it is disconnected.
func WithClientBuffer(n int) Option {
	return func(s *Server) { s.clientBuffer = n }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) { s.writeTimeout = d }
}

// WithStaticDir serves the frontend from dir on /.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

func NewServer(logger *slog.Logger, registry *session.Registry, catalog *persona.Catalog, opts ...Option) *Server {
	s := &Server{
		logger:         logger,
		registry:       registry,
		catalog:        catalog,
		allowedOrigins: []string{"*"},
		clientBuffer:   DefaultClientBuffer,
		writeTimeout:   DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.healthz)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/ws", s.serveWs)

	r.Route("/api", func(r chi.Router) {
		r.Get("/personas", s.listPersonas)
		r.Get("/formats", s.listFormats)
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.listSessions)
			r.Post("/", s.createSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(s.sessionContext)
				r.Get("/", s.getSession)
				r.Delete("/", s.deleteSession)
				r.Post("/commands", s.applyCommand)
				r.Get("/export", s.export)
				r.Get("/validate", s.validateSession)
			})
		})
	})

	if s.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}
	return r
}
