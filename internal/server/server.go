// Package server exposes the integration handlers over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"biaw-integrations/internal/common/config"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/respond"
)

const rootMessage = "Server is running and ready to accept requests."

// Route binds one handler to a method and path.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Options configures a Server.
type Options struct {
	Config      *config.ServerConfig
	ServiceName string
	Routes      []Route
	// Ready is called by GET /ready. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger logger.Logger
}

type Server struct {
	config  *config.ServerConfig
	name    string
	ready   func(ctx context.Context) error
	logger  logger.Logger
	handler http.Handler
}

func New(opts Options) *Server {
	s := &Server{
		config: opts.Config,
		name:   opts.ServiceName,
		ready:  opts.Ready,
		logger: opts.Logger.WithFields(map[string]interface{}{"component": "http"}),
	}

	router := mux.NewRouter()
	router.Use(requestID(s.logger), instrument, recoverPanics)

	router.HandleFunc("/", s.root).Methods(http.MethodGet)
	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.HandleFunc("/ready", s.readiness).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	for _, rt := range opts.Routes {
		router.HandleFunc(rt.Path, rt.Handler).Methods(rt.Method)
		s.logger.Debug("Route registered", map[string]interface{}{"method": rt.Method, "path": rt.Path})
	}

	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(notFound)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{opts.Config.AllowedOrigin}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Stripe-Signature", "X-Request-ID"}),
		handlers.ExposedHeaders([]string{"X-Request-ID"}),
		handlers.AllowCredentials(),
	)
	s.handler = handlers.ProxyHeaders(cors(router))
	return s
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on the configured port until ctx is cancelled, then drains
// in-flight requests for up to the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.config.Port, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       config.GetDuration(s.config.ReadTimeout),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      config.GetDuration(s.config.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", map[string]interface{}{"addr": ln.Addr().String()})
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(s.config.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped", nil)
	return nil
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rootMessage))
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   s.name,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			logger.FromContext(r.Context(), s.logger).Warn("Readiness check failed", map[string]interface{}{"error": err})
			respond.JSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"status": "ready"})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusNotFound, map[string]interface{}{
		"message": "Route not found",
		"error":   fmt.Sprintf("%s %s is not handled by this service", r.Method, r.URL.Path),
	})
}
