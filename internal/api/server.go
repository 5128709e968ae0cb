package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/fleet-console/fleet-console-pro/internal/config"
	"github.com/fleet-console/fleet-console-pro/internal/configedit"
	"github.com/fleet-console/fleet-console-pro/internal/dispatch"
	"github.com/fleet-console/fleet-console-pro/internal/fleet"
	"github.com/fleet-console/fleet-console-pro/internal/notify"
	"github.com/fleet-console/fleet-console-pro/internal/remote"
	"github.com/fleet-console/fleet-console-pro/internal/selection"
	"github.com/fleet-console/fleet-console-pro/internal/settings"
	"github.com/fleet-console/fleet-console-pro/internal/stream"
	"github.com/fleet-console/fleet-console-pro/internal/validation"
)

// Deps are the console components the API surface exposes
type Deps struct {
	Fleet      *fleet.Store
	Streams    *stream.Mux
	Selection  *selection.Tracker
	Dispatcher *dispatch.Dispatcher
	Session    *configedit.SessionEditor
	Warmup     *configedit.WarmupEditor
	Settings   *settings.Store
	Notify     *notify.Center
	Backend    *remote.Client
}

// ConsoleServer serves the operator UI's REST API and WebSocket push
type ConsoleServer struct {
	config    *config.Config
	deps      Deps
	validator *validation.Validator
	router    chi.Router
	server    *http.Server
	hub       *Hub
}

// NewConsoleServer creates the console API server
func NewConsoleServer(cfg *config.Config, deps Deps) *ConsoleServer {
	s := &ConsoleServer{
		config:    cfg,
		deps:      deps,
		validator: validation.NewValidator(),
		router:    chi.NewRouter(),
		hub:       NewHub(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Hub returns the WebSocket push hub so components can broadcast into it
func (s *ConsoleServer) Hub() *Hub {
	return s.hub
}

// setupRoutes configures all routes
func (s *ConsoleServer) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		s.setupAPIRoutes(r)
	})
}

// ListenAndServe starts the server
func (s *ConsoleServer) ListenAndServe(addr string) error {
	s.server.Addr = addr
	go s.hub.Run()
	log.Info().Str("addr", addr).Msg("Starting console API server")
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections, drains in-flight requests and
// ends the push hub
func (s *ConsoleServer) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.hub.Stop()
	return err
}

// authMiddleware requires the configured activation key as a bearer
// token on mutating routes. With no key configured the console is open,
// which suits a local single-operator deployment.
func (s *ConsoleServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.config.Backend.ActivationKey
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.respondError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(key)) != 1 {
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
