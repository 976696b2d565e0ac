// Package server exposes the search engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mnohosten/paperfind/pkg/auth"
	"github.com/mnohosten/paperfind/pkg/compression"
	"github.com/mnohosten/paperfind/pkg/container"
	"github.com/mnohosten/paperfind/pkg/engine"
	gql "github.com/mnohosten/paperfind/pkg/graphql"
	"github.com/mnohosten/paperfind/pkg/server/handlers"
)

// Server is the HTTP server wrapping an open engine.
type Server struct {
	config    *Config
	eng       *engine.Engine
	router    *chi.Mux
	httpSrv   *http.Server
	tokens    *auth.TokenStore
	startTime time.Time
}

// New opens the engine described by config and prepares the server.
func New(config *Config) (*Server, error) {
	if config.EnableTLS {
		if config.TLSCertFile == "" || config.TLSKeyFile == "" {
			return nil, fmt.Errorf("TLS enabled but certificate or key file not specified")
		}
		if _, err := os.Stat(config.TLSCertFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS certificate file not found: %s", config.TLSCertFile)
		}
		if _, err := os.Stat(config.TLSKeyFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS key file not found: %s", config.TLSKeyFile)
		}
	}

	algo, err := compression.ParseAlgorithm(config.Compression)
	if err != nil {
		return nil, err
	}

	engCfg := engine.DefaultConfig(config.DataDir, config.CorpusPath)
	engCfg.Compression = algo
	if config.BarrelTargetSize > 0 {
		engCfg.BarrelTargetSize = config.BarrelTargetSize
	}
	if config.BarrelCacheSize > 0 {
		engCfg.BarrelCacheSize = config.BarrelCacheSize
	}

	eng, err := engine.Open(engCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	srv := &Server{
		config:    config,
		eng:       eng,
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}

	if config.TokenFile != "" {
		codec := container.NewCodec(compression.AlgorithmNone)
		tokens, err := auth.Load(codec, config.TokenFile)
		if err != nil {
			eng.Close()
			return nil, fmt.Errorf("failed to load token file: %w", err)
		}
		srv.tokens = tokens
	}

	srv.setupMiddleware()
	if err := srv.setupRoutes(); err != nil {
		eng.Close()
		return nil, err
	}

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

// setupMiddleware configures the middleware stack.
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

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() error {
	h := handlers.New(s.eng)

	s.router.Get("/search", h.Search)
	s.router.Get("/autocomplete", h.Autocomplete)
	s.router.Get("/suggest", h.Suggest)
	s.router.Get("/documents/{id}", h.GetDocument)
	s.router.Get("/ws/search", h.LiveSearch)

	if s.tokens != nil {
		s.router.With(s.tokens.Middleware).Post("/documents", h.AddDocument)
	} else {
		s.router.Post("/documents", h.AddDocument)
	}

	s.router.Get("/health", h.Health)
	s.router.Get("/stats", h.Stats)
	s.router.Get("/metrics", h.Metrics)

	if s.config.EnableGraphQL {
		gqlHandler, err := gql.NewHandler(s.eng)
		if err != nil {
			return fmt.Errorf("failed to setup GraphQL: %w", err)
		}
		s.router.Handle("/graphql", gqlHandler)
	}

	return nil
}

// corsMiddleware applies the configured CORS policy.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(s.config.AllowedMethods, ", "))
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(s.config.AllowedHeaders, ", "))
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// requestSizeLimitMiddleware bounds request body size.
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.MaxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
		}
		next.ServeHTTP(w, r)
	})
}

// Router exposes the router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until SIGINT/SIGTERM, then shuts down
// gracefully and closes the engine.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.config.EnableTLS {
			err = s.httpSrv.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			err = s.httpSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		s.eng.Close()
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.eng.Close()
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return s.eng.Close()
}
