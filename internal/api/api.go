// Package api provides the HTTP surface for MedConnect.
//
// It exposes the Africa's Talking style USSD callback, the inbound SMS
// callback, and a health probe. Both conversation endpoints delegate to the
// orchestrator; the API layer only translates transport framing.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/brianmaseno/medtech/internal/messaging"
	"github.com/brianmaseno/medtech/internal/models"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Timeouts applied to the HTTP server.
const (
	ReadTimeout  = 15 * time.Second
	WriteTimeout = 30 * time.Second
	IdleTimeout  = 60 * time.Second
)

// ConversationService runs one turn of the conversation per inbound message.
type ConversationService interface {
	HandleTurn(ctx context.Context, principal, sessionKey string, surface models.Surface, raw string) (string, bool, error)
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server hosts the HTTP endpoints.
type Server struct {
	conversations ConversationService
	msgService    messaging.Service
	addr          string
	httpServer    *http.Server
}

// NewServer creates an API server. The listen address falls back to the
// API_ADDR environment variable and then DefaultAddr.
func NewServer(conversations ConversationService, msgService messaging.Service, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = os.Getenv("API_ADDR")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	slog.Debug("Server configuration resolved", "addr", cfg.Addr)
	return &Server{conversations: conversations, msgService: msgService, addr: cfg.Addr}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ussd", s.ussdHandler)
	mux.HandleFunc("/sms/callback", s.smsCallbackHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run starts the HTTP server and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", s.addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
		slog.Info("Server shut down")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server failed: %w", err)
	}
}
