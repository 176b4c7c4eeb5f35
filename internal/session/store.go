// Package session provides storage backends for conversation sessions.
//
// A session is keyed by its session key (the USSD session id, or the phone
// number itself for SMS). Backends must satisfy the same contract: Get never
// fails for unknown keys, Put is last-write-wins, Remove is idempotent, and
// idle sessions are evicted after a TTL.
package session

import (
	"context"
	"time"

	"github.com/brianmaseno/medtech/internal/models"
)

// DefaultTTL is the idle lifetime of a session before eviction.
const DefaultTTL = 30 * time.Minute

// Store is the session persistence abstraction consumed by the orchestrator.
type Store interface {
	// Get returns the stored session for key, or a fresh session in the
	// initial state with an empty payload when none exists. Unknown keys are
	// not an error.
	Get(ctx context.Context, key string) (models.Session, error)

	// Put overwrites the stored session and stamps LastTouchedAt with the
	// current time. Last-write-wins; there is no merge.
	Put(ctx context.Context, sess models.Session) error

	// Remove deletes the session for key. Removing a non-existent key is a
	// no-op.
	Remove(ctx context.Context, key string) error

	// EvictOlderThan removes every session whose LastTouchedAt predates
	// now-age and returns the number removed. Backends with native expiry may
	// report zero.
	EvictOlderThan(ctx context.Context, age time.Duration) (int, error)

	// Close releases backend resources.
	Close() error
}
