// Package httpapi serves the standalone results API used by the web client.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nukewar/internal/app/results"
	"nukewar/internal/identity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const (
	requestTimeout = 30 * time.Second
	maxBodyBytes   = 64 << 10
)

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server handles HTTP requests.
type Server struct {
	recorder  *results.Recorder
	board     *results.Board
	verifier  *identity.Verifier
	db        Pinger
	logger    logrus.FieldLogger
	startTime time.Time
}

// NewServer creates a new API server. verifier and db may be nil; a nil or
// disabled verifier accepts unauthenticated writes.
func NewServer(recorder *results.Recorder, board *results.Board, verifier *identity.Verifier, db Pinger, logger logrus.FieldLogger) *Server {
	return &Server{
		recorder:  recorder,
		board:     board,
		verifier:  verifier,
		db:        db,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Routes sets up the HTTP routes and middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/game-result", s.handleGameResult)
		// Legacy mini-app routes.
		r.Post("/nuke", s.handleLegacyResult)
		r.Get("/nuke", s.handleQuery)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	}
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.logger.WithError(err).Warn("health check failed")
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
		}
	}
	writeJSON(w, status, body)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with proper headers.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, RequestID: middleware.GetReqID(r.Context())})
}
