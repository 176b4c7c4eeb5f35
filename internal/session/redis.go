package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brianmaseno/medtech/internal/models"
)

// DefaultKeyPrefix namespaces session keys in Redis.
const DefaultKeyPrefix = "medconnect:session:"

// Opts holds configuration options for the Redis session store.
type Opts struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Option defines a configuration option for the Redis session store.
type Option func(*Opts)

// WithAddr sets the Redis server address (host:port).
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithPassword sets the Redis AUTH password.
func WithPassword(password string) Option {
	return func(o *Opts) { o.Password = password }
}

// WithDB selects the Redis logical database.
func WithDB(db int) Option {
	return func(o *Opts) { o.DB = db }
}

// WithKeyPrefix overrides the key namespace prefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *Opts) { o.KeyPrefix = prefix }
}

// WithTTL sets the per-write session expiry.
func WithTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.TTL = ttl }
}

// RedisStore persists sessions in Redis with native key expiry. Every Put
// refreshes the TTL, so an idle session disappears after the eviction window
// without any sweep.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts ...Option) (*RedisStore, error) {
	cfg := Opts{KeyPrefix: DefaultKeyPrefix, TTL: DefaultTTL}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address not set")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("RedisStore ping failed", "error", err, "addr", cfg.Addr)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("RedisStore connected", "addr", cfg.Addr, "db", cfg.DB, "ttl", cfg.TTL)
	return &RedisStore{client: client, prefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

// Get returns the stored session for key, or a fresh initial session.
func (s *RedisStore) Get(ctx context.Context, key string) (models.Session, error) {
	if key == "" {
		return models.Session{}, models.ErrEmptySessionKey
	}
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		slog.Debug("RedisStore Get miss, returning initial session", "key", key)
		return models.NewSession(key), nil
	}
	if err != nil {
		slog.Error("RedisStore Get failed", "error", err, "key", key)
		return models.Session{}, fmt.Errorf("failed to load session %s: %w", key, err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A corrupt record must not strand the user; start over.
		slog.Error("RedisStore Get unmarshal failed, resetting session", "error", err, "key", key)
		return models.NewSession(key), nil
	}
	slog.Debug("RedisStore Get found", "key", key, "state", sess.State)
	return sess, nil
}

// Put overwrites the stored session and refreshes its expiry.
func (s *RedisStore) Put(ctx context.Context, sess models.Session) error {
	if sess.SessionKey == "" {
		return models.ErrEmptySessionKey
	}
	if !sess.State.Valid() {
		return models.ErrInvalidState
	}
	sess.LastTouchedAt = time.Now()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", sess.SessionKey, err)
	}
	if err := s.client.Set(ctx, s.prefix+sess.SessionKey, data, s.ttl).Err(); err != nil {
		slog.Error("RedisStore Put failed", "error", err, "key", sess.SessionKey)
		return fmt.Errorf("failed to save session %s: %w", sess.SessionKey, err)
	}
	slog.Debug("RedisStore Put succeeded", "key", sess.SessionKey, "state", sess.State)
	return nil
}

// Remove deletes the session for key; unknown keys are a no-op.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		slog.Error("RedisStore Remove failed", "error", err, "key", key)
		return fmt.Errorf("failed to remove session %s: %w", key, err)
	}
	slog.Debug("RedisStore Remove succeeded", "key", key)
	return nil
}

// EvictOlderThan is a no-op: Redis expires keys natively via the per-write TTL.
func (s *RedisStore) EvictOlderThan(ctx context.Context, age time.Duration) (int, error) {
	return 0, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
