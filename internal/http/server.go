package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"conciliador/internal/amqp"
	"conciliador/internal/log"
	"conciliador/internal/pipeline"
	"conciliador/internal/storage"
)

type (
	// RunExecutor runs the whole reconciliation synchronously.
	RunExecutor interface {
		Run(ctx context.Context, req pipeline.Request) (pipeline.RunResult, error)
	}

	// RunPublisher enqueues run requests for the worker.
	RunPublisher interface {
		PublishRunRequest(ctx context.Context, msg *amqp.RunRequestMessage) error
	}

	// RunReader looks up stored run records.
	RunReader interface {
		GetRun(ctx context.Context, id string) (*storage.Run, error)
	}

	// RunRecorder stores the pending record of an enqueued run and closes
	// it when the enqueue fails.
	RunRecorder interface {
		CreateRun(ctx context.Context, run storage.Run) error
		FinishRun(ctx context.Context, id string, ok bool, resultJSON, errText string) error
	}

	// Deps holds the collaborators of the server. Publisher and Runs may be
	// nil; their routes then answer 503. Without Recorder an enqueued run
	// is only visible once the worker picks it up.
	Deps struct {
		APIKey               string
		DefaultSpreadsheetID string
		AllowedOrigins       []string
		RequestsPerMinute    int
		Runner               RunExecutor
		Publisher            RunPublisher
		Runs                 RunReader
		Recorder             RunRecorder
		Logger               *log.Logger
	}
)

// Server wraps http.Server with the collaborators used by the handlers.
type Server struct {
	http.Server

	deps        Deps
	logger      *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		deps:        deps,
		logger:      logger,
		rateLimiter: newRateLimiter(deps.RequestsPerMinute),
		metrics:     &securityMetrics{},
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	origins := s.deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://script.google.com", "https://docs.google.com"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-KEY"},
		MaxAge:         300,
	}))
	r.Use(securityHeaders(s.metrics))

	r.Get("/", s.handleHealth)
	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimiter.middleware(s.metrics))
		r.Use(requireAPIKey(s.deps.APIKey, s.metrics))

		r.Post("/procesar-pagos", s.handleProcesarPagos)
		r.Post("/procesar-pagos/async", s.handleProcesarPagosAsync)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/metrics", s.handleMetrics)
	})

	return r
}

// Shutdown stops the rate limiter and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
