package numbering

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/joulek/Backend-mtr/internal/platform/db"
)

// Store performs the atomic increment-and-fetch a counter needs.
type Store interface {
	// Increment atomically adds one to the counter at key, creating it at 1, and returns the new value.
	Increment(ctx context.Context, key string) (int64, error)
	// Current returns the counter value, or 0 when the key does not exist yet.
	Current(ctx context.Context, key string) (int64, error)
}

// PostgresStore keeps counters in document_sequences.
type PostgresStore struct {
	db db.DBTX
}

// NewPostgresStore builds a counter store over a pool or transaction.
func NewPostgresStore(conn db.DBTX) *PostgresStore {
	return &PostgresStore{db: conn}
}

// Increment upserts the counter row in one statement so concurrent callers serialise on the row lock.
func (s *PostgresStore) Increment(ctx context.Context, key string) (int64, error) {
	var seq int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO document_sequences (scope, seq) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET seq = document_sequences.seq + 1, updated_at = NOW()
		RETURNING seq`, key).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return seq, nil
}

// Current reads the counter without changing it.
func (s *PostgresStore) Current(ctx context.Context, key string) (int64, error) {
	var seq int64
	err := s.db.QueryRow(ctx, `SELECT seq FROM document_sequences WHERE scope = $1`, key).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	return seq, nil
}

// RedisStore keeps counters as Redis integers under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore builds a counter store on Redis INCR.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "seq:"}
}

// Increment uses INCR, which creates missing keys at 0 before incrementing.
func (s *RedisStore) Increment(ctx context.Context, key string) (int64, error) {
	seq, err := s.client.Incr(ctx, s.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", key, err)
	}
	return seq, nil
}

// Current reads the counter without changing it.
func (s *RedisStore) Current(ctx context.Context, key string) (int64, error) {
	seq, err := s.client.Get(ctx, s.prefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	return seq, nil
}
