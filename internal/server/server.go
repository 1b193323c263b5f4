// Package server exposes the dashboard API: lead upload and qualification,
// CRM sync, and the analytics summary endpoints the UI polls.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/outbound-cli/internal/analytics"
	"github.com/sells-group/outbound-cli/internal/config"
	"github.com/sells-group/outbound-cli/internal/crm"
	"github.com/sells-group/outbound-cli/internal/qualify"
	"github.com/sells-group/outbound-cli/pkg/hubspot"
)

// Server wires the dashboard API handlers. engine and hub may be nil when
// the corresponding credential is absent; the affected endpoints then answer
// with an explicit not-configured status instead of fabricated data.
type Server struct {
	cfg       *config.Config
	engine    *qualify.Engine
	syncer    *crm.Syncer
	hub       hubspot.Client
	analytics *analytics.Service
	router    chi.Router
}

// New assembles the API server from its collaborators.
func New(cfg *config.Config, engine *qualify.Engine, syncer *crm.Syncer, hub hubspot.Client, svc *analytics.Service) *Server {
	s := &Server{
		cfg:       cfg,
		engine:    engine,
		syncer:    syncer,
		hub:       hub,
		analytics: svc,
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

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/config/check", s.handleConfigCheck)

	r.Route("/leads", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/qualify", s.handleQualify)
	})

	r.Route("/crm", func(r chi.Router) {
		r.Post("/contacts", s.handleSyncContacts)
		r.Get("/campaigns", s.handleCampaigns)
		r.Get("/workflows", s.handleWorkflows)
	})

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/stream", s.handleStream)
	})

	return r
}

// requestLogger logs each request with its status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush passes through so the SSE handler can stream through the middleware.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
