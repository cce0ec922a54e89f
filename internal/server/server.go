// ABOUTME: HTTP API server: chi router, CORS, session middleware, and lifecycle.
// ABOUTME: Exposes the tracker actions as JSON endpoints under /api.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/harperreed/caltra/internal/auth"
	"github.com/harperreed/caltra/internal/logging"
	"github.com/harperreed/caltra/internal/tracker"
)

// Options configures the HTTP server.
type Options struct {
	CORSOrigins  []string
	CookieSecure bool
	Logger       *log.Logger
}

// Server serves the JSON API.
type Server struct {
	tracker *tracker.Service
	auth    *auth.Manager
	opts    Options
	log     *log.Logger
	router  chi.Router
}

// New builds a Server and its routes.
func New(svc *tracker.Service, am *auth.Manager, opts Options) *Server {
	s := &Server{
		tracker: svc,
		auth:    am,
		opts:    opts,
		log:     opts.Logger,
	}
	if s.log == nil {
		s.log = logging.Server()
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.auth.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/sign-in", s.handleSignIn)
			r.Post("/sign-out", s.handleSignOut)
			r.Get("/me", s.handleMe)
		})

		r.Get("/logs", s.handleListLogs)
		r.Post("/logs", s.handleAddLog)
		r.Patch("/logs/{id}", s.handleUpdateLog)
		r.Delete("/logs/{id}", s.handleDeleteLog)

		r.Get("/day", s.handleDay)

		r.Get("/goals", s.handleGetGoals)
		r.Put("/goals", s.handlePutGoals)

		r.Get("/foods", s.handleListFoods)
		r.Get("/foods/search", s.handleSearchFoods)
		r.Post("/foods", s.handleSaveFood)
		r.Delete("/foods/{id}", s.handleDeleteFood)

		r.Get("/history", s.handleHistory)

		r.Post("/analyze-food", s.handleAnalyzeFood)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API listening", "addr", addr, "origins", s.opts.CORSOrigins)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
