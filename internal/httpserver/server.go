// internal/httpserver/server.go
//
// HTTP wiring for the gated hangman backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Session endpoints: GET /state, POST /play, POST /guess — the only
//     mutation paths into the controller.
//   - Ingress webhook: POST /webhook (logged, persisted, fixed ack).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled.
//   - The controller owns all game semantics; handlers only translate wire
//     shapes and map controller errors to JSON error bodies.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Rufusemmanuel/hangman/internal/game"
	"github.com/Rufusemmanuel/hangman/internal/session"
	"github.com/Rufusemmanuel/hangman/internal/words"
)

// Server bundles the router, the session controller, and the DB handle
// (webhook event log).
type Server struct {
	r    *chi.Mux
	ctrl *session.Controller
	db   *sql.DB
}

// New constructs a Server, installs middleware, and registers routes.
func New(ctrl *session.Controller, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), ctrl: ctrl, db: db}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(3 * time.Minute)) // play waits on chain confirmation
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"hangman-go","endpoints":["/health","/state","POST /play","POST /guess","POST /webhook"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(words.Stats())
	})

	// --- session surface ---
	s.r.Get("/state", s.handleState)
	s.r.Post("/play", s.handlePlay)
	s.r.Post("/guess", s.handleGuess)

	// --- ingress webhook ---
	s.mountWebhook()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ session ------------------------------------

// handleState returns the read-only snapshot of round, gate, and points.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.ctrl.Snapshot(r.Context()))
}

// playReq is the payload for POST /play. Difficulty is optional; an empty
// value keeps the previous tier.
type playReq struct {
	Difficulty string `json:"difficulty"`
}

// handlePlay runs the gated play workflow. The handler blocks until the gate
// resolves; failures map to JSON errors and the refreshed snapshot.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	var difficulty *game.Difficulty
	if req.Difficulty != "" {
		d, ok := game.ParseDifficulty(req.Difficulty)
		if !ok {
			http.Error(w, `{"error":"bad_difficulty"}`, http.StatusBadRequest)
			return
		}
		difficulty = &d
	}

	if err := s.ctrl.RequestPlay(r.Context(), difficulty); err != nil {
		w.WriteHeader(playErrorStatus(err))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": err.Error(),
			"state": s.ctrl.Snapshot(r.Context()),
		})
		return
	}
	_ = json.NewEncoder(w).Encode(s.ctrl.Snapshot(r.Context()))
}

// playErrorStatus maps controller failures onto HTTP statuses.
func playErrorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrWalletNotConnected),
		errors.Is(err, session.ErrWrongChain),
		errors.Is(err, session.ErrFeeUnavailable):
		return http.StatusPreconditionFailed
	default:
		return http.StatusBadGateway
	}
}

// guessReq is the payload for POST /guess.
type guessReq struct {
	Letter string `json:"letter"`
}

// handleGuess applies a single-letter guess and returns the new snapshot.
// Rejected guesses (no round, repeat letter, finished round) are flagged but
// still return the snapshot so clients can re-render.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	runes := []rune(req.Letter)
	if len(runes) != 1 {
		http.Error(w, `{"error":"single letter required"}`, http.StatusBadRequest)
		return
	}

	applied := s.ctrl.GuessLetter(r.Context(), runes[0])
	_ = json.NewEncoder(w).Encode(map[string]any{
		"applied": applied,
		"state":   s.ctrl.Snapshot(r.Context()),
	})
}
