// Package server exposes one editor session over HTTP for a canvas
// frontend. The core itself is single-threaded; the server serializes all
// session access behind one mutex, so handlers never observe a
// half-applied operation.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/erdraft/erdraft/internal/library"
	"github.com/erdraft/erdraft/internal/server/middleware"
	"github.com/erdraft/erdraft/internal/session"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimit       int // requests per minute per client, 0 disables
}

// DefaultConfig returns a Config suited to a local editor backend.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            7335,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
	}
}

// Server is the session HTTP server. It owns the chi router and holds the
// editor session and the diagram library it serves.
type Server struct {
	cfg        Config
	router     chi.Router
	sess       *session.Session
	lib        *library.Store // nil when no library is attached
	logger     *slog.Logger
	httpServer *http.Server

	// The editor core is cooperative and single-threaded; mu makes the
	// HTTP surface honor that.
	mu sync.Mutex
}

// New creates a Server with all routes and middleware wired. Call
// ListenAndServe to start accepting connections.
func New(cfg Config, sess *session.Session, lib *library.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		sess:   sess,
		lib:    lib,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.RateLimit(s.cfg.RateLimit))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(chimw.Compress(5))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api/v1", func(r chi.Router) {
		// Diagram state
		r.Get("/diagram", s.handleGetDiagram)
		r.Put("/diagram/title", s.handleSetTitle)
		r.Put("/diagram/dialect", s.handleSetDialect)

		// Tables
		r.Post("/tables", s.handleAddTable)
		r.Put("/tables/{tableID}", s.handleUpdateTable)
		r.Delete("/tables/{tableID}", s.handleDeleteTable)
		r.Post("/tables/{tableID}/move", s.handleMoveTable)

		// Fields
		r.Post("/tables/{tableID}/fields", s.handleAddField)
		r.Put("/tables/{tableID}/fields/{fieldID}", s.handleUpdateField)
		r.Delete("/tables/{tableID}/fields/{fieldID}", s.handleDeleteField)
		r.Post("/tables/{tableID}/fields/{fieldID}/rename", s.handleRenameField)

		// Indexes
		r.Post("/tables/{tableID}/indexes", s.handleAddIndex)
		r.Put("/tables/{tableID}/indexes/{indexID}", s.handleUpdateIndex)
		r.Delete("/tables/{tableID}/indexes/{indexID}", s.handleDeleteIndex)

		// Relationships
		r.Post("/relationships", s.handleAddRelationship)
		r.Put("/relationships/{relID}", s.handleUpdateRelationship)
		r.Delete("/relationships/{relID}", s.handleDeleteRelationship)

		// Notes and areas
		r.Post("/notes", s.handleAddNote)
		r.Put("/notes/{noteID}", s.handleUpdateNote)
		r.Delete("/notes/{noteID}", s.handleDeleteNote)
		r.Post("/areas", s.handleAddArea)
		r.Put("/areas/{areaID}", s.handleUpdateArea)
		r.Delete("/areas/{areaID}", s.handleDeleteArea)

		// History
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)
		r.Get("/history", s.handleHistory)
		r.Post("/saved", s.handleMarkSaved)

		// Canvas: transform, events, scene
		r.Get("/transform", s.handleGetTransform)
		r.Put("/transform", s.handleSetTransform)
		r.Post("/transform/zoom", s.handleZoom)
		r.Post("/transform/reset", s.handleResetTransform)
		r.Post("/events/pointer", s.handlePointerEvent)
		r.Post("/events/escape", s.handleEscape)
		r.Get("/scene", s.handleScene)

		// Output
		r.Get("/sql", s.handleSQL)
		r.Get("/snapshot", s.handleExport)
		r.Post("/snapshot", s.handleImport)

		// Library
		if s.lib != nil {
			r.Get("/library", s.handleLibraryList)
			r.Post("/library/{name}", s.handleLibrarySave)
			r.Post("/library/{name}/load", s.handleLibraryLoad)
			r.Delete("/library/{name}", s.handleLibraryDelete)
		}
	})

	s.router = r
}

// Router returns the configured router, useful for tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ListenAndServe starts the server and blocks until SIGINT/SIGTERM, then
// shuts down gracefully within the configured timeout.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("session server listening", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
