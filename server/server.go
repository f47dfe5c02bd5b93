package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/plan3/commonauth/auth"
	"github.com/plan3/commonauth/logger"
	"github.com/plan3/commonauth/observability"
	"github.com/plan3/commonauth/server/endpoint"
	"github.com/plan3/commonauth/server/middleware"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP host for auth plugins: a Gin engine behind a ServeMux,
// served over HTTP/1.1 and h2c, or HTTPS with h2 when TLS is configured,
// with an auth.Registry that plugins install their strategies into.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	config     Config
	log        *logger.Logger

	registry    *auth.Registry
	authMetrics *observability.AuthMetrics
	limiter     gin.HandlerFunc

	mu        sync.Mutex
	plugins   map[string]string
	listening atomic.Bool
	addr      atomic.Value
}

// New creates a Server. No middleware is applied yet; call ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	switch {
	case gin.Mode() == gin.TestMode:
	case zerolog.GlobalLevel() <= zerolog.DebugLevel:
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	handler := middleware.Chain(
		middleware.CORS(&cfg.CORS),
		middleware.BodySizeLimit(cfg.MaxBodySize),
	)(mux)
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h2c.NewHandler(handler, h2s),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}
	if cfg.TLS.IsEnabled() {
		httpServer.Handler = handler
		if err := http2.ConfigureServer(httpServer, h2s); err != nil {
			log.Warn("HTTP/2 over TLS disabled", logger.Fields(logger.FieldError, err.Error()))
		}
	}

	s := &Server{
		httpServer: httpServer,
		engine:   engine,
		mux:      mux,
		config:   cfg,
		log:      log.WithComponent("server"),
		registry: auth.NewRegistry(),
		plugins:  make(map[string]string),
	}

	metrics, err := observability.NewAuthMetrics(observability.Meter(observability.InstrumentationName))
	if err != nil {
		s.log.Warn("Auth metrics disabled", logger.Fields(logger.FieldError, err.Error()))
	}
	s.authMetrics = metrics

	if cfg.RateLimit.RequestsPerMinute > 0 {
		s.limiter = middleware.RateLimit(cfg.RateLimit)
	}
	return s
}

// GinEngine returns the underlying Gin engine for unauthenticated routes.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the root handler, including CORS, body limits and h2c.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Auth returns the registry plugins install strategies into.
func (s *Server) Auth() *auth.Registry {
	return s.registry
}

// Handle mounts an http.Handler at pattern on the root ServeMux, outside Gin.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", logger.Fields("pattern", pattern))
}

// Start binds the port and serves in a goroutine. It returns once the
// listener is bound.
func (s *Server) Start(ctx context.Context) error {
	tlsConfig, err := s.config.TLS.Build()
	if err != nil {
		return fmt.Errorf("server tls: %w", err)
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	if tlsConfig != nil {
		if s.httpServer.TLSConfig != nil {
			tlsConfig.NextProtos = s.httpServer.TLSConfig.NextProtos
		}
		listener = tls.NewListener(listener, tlsConfig)
	}
	s.addr.Store(listener.Addr().String())
	s.listening.Store(true)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Server error", logger.Fields(logger.FieldError, err.Error()))
		}
		s.listening.Store(false)
	}()

	s.log.Info("HTTP server started", logger.Fields(
		"addr", listener.Addr().String(),
		"tls", tlsConfig != nil,
		"strategies", s.registry.Names(),
	))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", logger.Fields(logger.FieldError, err.Error()))
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.listening.Store(false)
	s.log.Info("HTTP server shut down")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	if a, ok := s.addr.Load().(string); ok {
		return a
	}
	return s.httpServer.Addr
}

// ApplyMiddleware applies recovery, request IDs and request logging to the
// Gin engine. CORS and body limits run below Gin on every request.
func (s *Server) ApplyMiddleware() {
	s.engine.Use(middleware.Recovery(s.log))
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.GinRequestLogger(s.log))
}

// RegisterDefaultEndpoints registers the unauthenticated /health, /info,
// /metrics and /version endpoints.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/info", endpoint.Info(serviceName, s.Plugins))
	s.engine.GET("/metrics", endpoint.Metrics())
	s.engine.GET("/version", endpoint.Version())
}

// ApplyDefaults applies the middleware stack and registers default endpoints.
func (s *Server) ApplyDefaults(serviceName string, checker endpoint.HealthChecker) {
	s.ApplyMiddleware()
	s.RegisterDefaultEndpoints(serviceName, checker)
}
