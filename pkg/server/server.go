// Package server wraps the embedded engine in a chi-routed HTTP front
// end. This layer, and everything under pkg/proxy and cmd/, is
// explicitly out of scope for the engine's own invariants — it exists
// only to give external collaborators (tests, the CLI, a load
// balancer) a way to drive the engine over the network. See
// SPEC_FULL.md §11.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"github.com/zynkdb/zynk/pkg/lsm"
	"github.com/zynkdb/zynk/pkg/server/handlers"
)

// Server is the HTTP front end for one Engine. The engine performs no
// locking of its own (spec §5); every request takes Server.mu shared
// for reads or exclusive for writes before touching the engine.
type Server struct {
	config  *Config
	engine  *lsm.Engine
	mu      sync.RWMutex
	router  *chi.Mux
	httpSrv *http.Server
	watch   *handlers.WatchManager
}

// New opens the engine at config.DataDir and builds the HTTP server
// around it.
func New(config *Config) (*Server, error) {
	engineCfg := lsm.Config{
		DataDir:          config.DataDir,
		MemtableMaxBytes: config.MemtableMaxBytes,
		BlockSize:        config.BlockSize,
		ActorID:          config.ActorID,
	}
	engine, err := lsm.Open(engineCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	srv := &Server{
		config: config,
		engine: engine,
		router: chi.NewRouter(),
		watch:  handlers.NewWatchManager(),
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return srv, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	if s.config.EnableLogging {
		s.router.Use(middleware.Logger)
	}
	if s.config.EnableCORS {
		s.router.Use(s.corsMiddleware)
	}

	s.router.Use(s.requestSizeLimitMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	h := handlers.New(s.engine, &s.mu, s.watch)

	s.router.Get("/_health", h.Health)
	s.router.Get("/watch/{key}", func(w http.ResponseWriter, r *http.Request) {
		s.watch.ServeHTTP(chi.URLParam(r, "key"))(w, r)
	})

	s.router.Route("/kv/{key}", func(r chi.Router) {
		r.Put("/", h.PutKey)
		r.Get("/", h.GetKey)
		r.Delete("/", h.DeleteKey)
	})

	s.router.Route("/gset/{key}", func(r chi.Router) {
		r.Post("/", h.GSetAdd)
		r.Get("/", h.GSetGet)
	})

	s.router.Route("/rga/{key}", func(r chi.Router) {
		r.Post("/", h.RgaInsert)
		r.Delete("/{actor}/{counter}", h.RgaDelete)
		r.Get("/", h.RgaGetVisible)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(s.config.AllowedOrigins) > 0 {
			origin = s.config.AllowedOrigins[0]
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
		next.ServeHTTP(w, r)
	})
}

// handler returns the router, optionally wrapped in gzhttp's
// transparent response compression.
func (s *Server) handler() http.Handler {
	if !s.config.EnableCompression {
		return s.router
	}
	return gzhttp.GzipHandler(s.router)
}

// Start runs the HTTP server until an OS signal requests shutdown.
func (s *Server) Start() error {
	s.httpSrv.Handler = s.handler()

	fmt.Printf("zynk server listening on http://%s:%d\n", s.config.Host, s.config.Port)
	fmt.Printf("data directory: %s\n", s.config.DataDir)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		fmt.Printf("\nreceived signal: %v\n", sig)
		return s.Shutdown()
	}
}

// Shutdown gracefully drains in-flight requests, closes the watch
// manager, then closes the engine.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		fmt.Printf("server shutdown error: %v\n", err)
	}
	if err := s.watch.Close(); err != nil {
		fmt.Printf("watch manager close error: %v\n", err)
	}
	if err := s.engine.Close(); err != nil {
		fmt.Printf("engine close error: %v\n", err)
		return err
	}
	return nil
}

// Engine returns the underlying engine, for tests and the CLI.
func (s *Server) Engine() *lsm.Engine {
	return s.engine
}
