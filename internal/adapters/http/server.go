package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unimarket/authctx"
	"github.com/unimarket/authctx/internal/logging"
	"github.com/unimarket/authctx/pkg/domain"
)

// SessionStore is the part of authctx.Store the HTTP surface drives.
type SessionStore interface {
	Snapshot() authctx.State
	Loading() bool
	SetUser(ctx context.Context, sess *domain.Session)
	UpdateUser(ctx context.Context, p domain.Patch)
	SetToken(ctx context.Context, token string)
	Logout(ctx context.Context)
	On(ev authctx.Event, fn func()) (unsubscribe func())
}

// Server exposes one context's session over HTTP.
type Server struct {
	Store    SessionStore
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer exposes the given registry on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates the HTTP handler for the store.
func NewHandler(store SessionStore, opts ...Option) http.Handler {
	s := &Server{Store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.GetSession)
		r.Put("/", s.PutSession)
		r.Patch("/", s.PatchSession)
		r.Delete("/", s.DeleteSession)
	})
	r.Put("/token", s.PutToken)
	r.Delete("/token", s.DeleteToken)
	r.Post("/logout", s.Logout)
	r.Get("/events", s.SubscribeEvents)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetSession handles GET /session. It answers 503 until the store finished restoring.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	if s.Store.Loading() {
		w.Header().Set("Retry-After", "1")
		http.Error(w, "session is still loading", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Store.Snapshot())
}

// PutSession handles PUT /session.
func (s *Server) PutSession(w http.ResponseWriter, r *http.Request) {
	var sess domain.Session
	if err := json.NewDecoder(r.Body).Decode(&sess); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if sess.ID == "" || sess.Email == "" {
		http.Error(w, "id and email are required", http.StatusBadRequest)
		return
	}

	s.Store.SetUser(r.Context(), &sess)
	s.writeJSON(w, http.StatusOK, s.Store.Snapshot())
}

// PatchSession handles PATCH /session. Patching while logged out changes nothing.
func (s *Server) PatchSession(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	patch, err := domain.PatchFromMap(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid patch: %v", err), http.StatusBadRequest)
		return
	}

	s.Store.UpdateUser(r.Context(), patch)
	s.writeJSON(w, http.StatusOK, s.Store.Snapshot())
}

// DeleteSession handles DELETE /session: a local logout without broadcast.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	s.Store.SetUser(r.Context(), nil)
	w.WriteHeader(http.StatusNoContent)
}

type tokenBody struct {
	Token string `json:"token"`
}

// PutToken handles PUT /token.
func (s *Server) PutToken(w http.ResponseWriter, r *http.Request) {
	var body tokenBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	s.Store.SetToken(r.Context(), body.Token)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteToken handles DELETE /token. The session stays in place.
func (s *Server) DeleteToken(w http.ResponseWriter, r *http.Request) {
	s.Store.SetToken(r.Context(), "")
	w.WriteHeader(http.StatusNoContent)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	s.Store.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles GET /events (SSE). The optional watch query
// parameter restricts the stream to a comma-separated list of events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	watched := []authctx.Event{authctx.EventRemoteLogout, authctx.EventClearSearchHistory}
	if q := r.URL.Query().Get("watch"); q != "" {
		watched = watched[:0]
		for _, name := range strings.Split(q, ",") {
			watched = append(watched, authctx.Event(strings.TrimSpace(name)))
		}
	}

	ch := make(chan authctx.Event, 10)
	for _, ev := range watched {
		ev := ev
		unsubscribe := s.Store.On(ev, func() {
			select {
			case ch <- ev:
			default:
				// Drop message if channel is full (slow client)
				s.logger.Warn("SSE: Client buffer full, dropping event", "event", ev)
			}
		})
		defer unsubscribe()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case ev := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev, ev)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
