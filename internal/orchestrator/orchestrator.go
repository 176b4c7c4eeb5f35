// Package orchestrator ties a transport turn to the conversation engine.
//
// Each inbound message becomes one turn: load the session, resolve the user
// profile, classify the input, run the state machine, then persist or clear
// the session depending on whether the result was terminal. Turns for the
// same session key are serialized so concurrent gateway retries cannot
// interleave half-applied transitions.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brianmaseno/medtech/internal/classify"
	"github.com/brianmaseno/medtech/internal/flow"
	"github.com/brianmaseno/medtech/internal/models"
	"github.com/brianmaseno/medtech/internal/session"
)

// welcomeSMS is sent once, the first time a phone number contacts the service.
const welcomeSMS = "Welcome to MedConnect AI! 🏥 Your health assistant is ready. Reply with 'menu' to see what I can do, or just describe your symptoms."

// UserStore resolves and touches user profiles.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, phone string) (models.UserProfile, bool, error)
	TouchUser(ctx context.Context, phone string) error
}

// NotificationGateway sends outbound messages that are not direct replies,
// such as the first-contact welcome.
type NotificationGateway interface {
	SendMessage(ctx context.Context, to, body string) error
}

// Opts holds configuration options for the Orchestrator.
type Opts struct {
	Gateway    NotificationGateway
	SessionTTL time.Duration
}

// Option defines a configuration option for the Orchestrator.
type Option func(*Opts)

// WithNotificationGateway wires an outbound channel for welcome messages.
func WithNotificationGateway(gw NotificationGateway) Option {
	return func(o *Opts) { o.Gateway = gw }
}

// WithSessionTTL overrides the idle session lifetime used by Housekeep.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.SessionTTL = ttl }
}

// Orchestrator runs conversation turns against a session store and the engine.
type Orchestrator struct {
	engine   *flow.Engine
	sessions session.Store
	users    UserStore
	gateway  NotificationGateway
	ttl      time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Orchestrator around the engine and its stores.
func New(engine *flow.Engine, sessions session.Store, users UserStore, opts ...Option) *Orchestrator {
	cfg := Opts{SessionTTL: session.DefaultTTL}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Orchestrator{
		engine:   engine,
		sessions: sessions,
		users:    users,
		gateway:  cfg.Gateway,
		ttl:      cfg.SessionTTL,
		locks:    make(map[string]*sync.Mutex),
	}
}

// HandleTurn processes one inbound message and returns the reply text plus
// whether the session ended. principal is the canonical phone number;
// sessionKey is the gateway session id for USSD or the phone number for SMS.
func (o *Orchestrator) HandleTurn(ctx context.Context, principal, sessionKey string, surface models.Surface, raw string) (string, bool, error) {
	if principal == "" {
		return "", false, models.ErrEmptyPrincipal
	}
	if sessionKey == "" {
		return "", false, models.ErrEmptySessionKey
	}

	lock := o.sessionLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.sessions.Get(ctx, sessionKey)
	if err != nil {
		return "", false, fmt.Errorf("failed to load session %s: %w", sessionKey, err)
	}
	sess.PrincipalID = principal
	sess.SessionKey = sessionKey
	sess.Surface = surface

	user, created, err := o.users.GetOrCreateUser(ctx, principal)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve user %s: %w", principal, err)
	}
	if created {
		o.sendWelcome(ctx, principal)
	}

	result := o.engine.Transition(ctx, sess, user, classify.Classify(raw))

	if result.Terminal {
		if err := o.sessions.Remove(ctx, sessionKey); err != nil {
			slog.Error("Orchestrator HandleTurn session removal failed", "error", err, "session_key", sessionKey)
		}
	} else {
		sess.State = result.NextState
		sess.Payload = result.Payload
		if err := o.sessions.Put(ctx, sess); err != nil {
			return "", false, fmt.Errorf("failed to persist session %s: %w", sessionKey, err)
		}
	}

	if err := o.users.TouchUser(ctx, principal); err != nil {
		slog.Warn("Orchestrator HandleTurn user touch failed", "error", err, "principal", principal)
	}

	slog.Debug("Orchestrator HandleTurn completed", "principal", principal, "surface", surface, "next_state", result.NextState, "terminal", result.Terminal)
	return result.Reply, result.Terminal, nil
}

// Housekeep evicts idle sessions past the configured TTL.
func (o *Orchestrator) Housekeep(ctx context.Context) {
	evicted, err := o.sessions.EvictOlderThan(ctx, o.ttl)
	if err != nil {
		slog.Error("Orchestrator Housekeep eviction failed", "error", err)
		return
	}
	if evicted > 0 {
		slog.Info("Orchestrator Housekeep evicted idle sessions", "count", evicted)
	}
}

// sendWelcome delivers the first-contact greeting; failures are logged only
// because the reply of the current turn is the message that matters.
func (o *Orchestrator) sendWelcome(ctx context.Context, principal string) {
	if o.gateway == nil {
		return
	}
	if err := o.gateway.SendMessage(ctx, principal, welcomeSMS); err != nil {
		slog.Warn("Orchestrator welcome message failed", "error", err, "principal", principal)
		return
	}
	slog.Info("Orchestrator sent welcome message", "principal", principal)
}

// sessionLock returns the per-key mutex, creating it on first use. Lock
// entries are never reclaimed; the key space is bounded by active phone
// numbers and USSD session ids within a TTL window.
func (o *Orchestrator) sessionLock(key string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[key] = lock
	}
	return lock
}
