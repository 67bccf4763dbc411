// Package server exposes the channel over HTTP: intents are POSTed, outbound
// messages stream back as server-sent events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kllc.dev/kllc/internal/channel"
	"kllc.dev/kllc/internal/engine"
)

// DefaultAddr is the listen address when none is configured
const DefaultAddr = "127.0.0.1:7878"

const maxBodySize = 1 << 20

// Server routes HTTP requests to a channel
type Server struct {
	channel *channel.Channel
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithMetrics mounts h at /metrics
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a server over ch
func New(ch *channel.Channel, opts ...Option) *Server {
	s := &Server{
		channel: ch,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/messages", s.postMessage)
	r.Get("/events", s.events)
	r.Get("/steps", s.steps)
	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var msg channel.Message
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&msg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("postMessage: invalid request body", "error", err)
		return
	}

	replies, err := s.channel.Submit(r.Context(), msg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, channel.ErrChannelBusy) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		s.logger.Warn("postMessage: submit failed", "command", msg.Command, "error", err)
		return
	}

	writeJSON(w, s.logger, replies)
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	msgs, cancel := s.channel.Subscribe()
	defer cancel()

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
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("SSE: failed to encode message", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Command, data)
			flusher.Flush()
		}
	}
}

// StepView is the JSON form of a step definition
type StepView struct {
	Index     int      `json:"index"`
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Kind      string   `json:"kind"`
	Required  bool     `json:"required"`
	Choices   []string `json:"choices,omitempty"`
	TagPrefix string   `json:"tagPrefix,omitempty"`
}

// StepViews converts the stepping sequence for display
func StepViews(steps []engine.Step) []StepView {
	views := make([]StepView, 0, len(steps))
	for i, step := range steps {
		view := StepView{
			Index:    i,
			ID:       step.ID(),
			Label:    step.Label(),
			Kind:     string(step.Kind()),
			Required: step.Required(),
		}
		switch s := step.(type) {
		case engine.ChoiceStep:
			view.Choices = s.Choices
		case engine.TagStep:
			view.TagPrefix = s.TagPrefix
		}
		views = append(views, view)
	}
	return views
}

func (s *Server) steps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, StepViews(s.channel.Steps()))
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}
