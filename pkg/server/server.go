// Package server exposes the formatting pipeline over HTTP.
//
// # Endpoints
//
//	POST /v1/format   {"source": "...", "width": 80} → {"text": "...", "forms": 1, ...}
//	POST /v1/check    {"source": "...", "width": 80} → {"formatted": false, "first_diff": 2, ...}
//	GET  /v1/forms    the special-form table in use
//	GET  /healthz     liveness check with the build version
//
// Errors are returned as {"code": "...", "message": "...", "request_id": "..."}
// with status 400 for invalid input, 422 for trees that cannot be laid out,
// 504 for requests that outlive Config.RequestTimeout and 500 for
// everything else.
//
// Every response carries an X-Request-ID header. A request ID sent by the
// client is reused; otherwise a random UUID is generated.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	srv := server.New(runner, server.Config{Addr: ":8080", Logger: logger})
//	if err := srv.ListenAndServe(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/sexpfmt/pkg/pipeline"
)

const shutdownTimeout = 10 * time.Second

// DefaultRequestTimeout bounds a request when Config.RequestTimeout is zero.
const DefaultRequestTimeout = 30 * time.Second

// Config configures a Server.
type Config struct {
	// Addr is the listen address, for example ":8080".
	Addr string

	// MaxBodyBytes bounds the request body and the source it carries.
	// Zero means pipeline.DefaultMaxSourceBytes.
	MaxBodyBytes int64

	// RequestTimeout bounds the work done for one request. A layout still
	// running at the deadline is stopped and answered with 504.
	// Zero means DefaultRequestTimeout.
	RequestTimeout time.Duration

	// Defaults supplies the width, float patterns, form table and cache TTL
	// for requests that do not set them. It must not have been validated.
	Defaults pipeline.Options

	Logger *log.Logger
}

// Server serves the formatting API.
type Server struct {
	runner *pipeline.Runner
	cfg    Config
	router chi.Router
}

// New creates a server that formats with runner.
func New(runner *pipeline.Runner, cfg Config) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = pipeline.DefaultMaxSourceBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{runner: runner, cfg: cfg}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/format", s.handleFormat)
		r.Post("/check", s.handleCheck)
		r.Get("/forms", s.handleForms)
	})
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.cfg.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
