package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session hashes.
const DefaultRedisPrefix = "flowlens:session:"

// Hash fields besides the fixed keys.
const (
	fieldCreatedAt = "createdAt"
	fieldExpiresAt = "expiresAt"
)

// RedisStore keeps each session as a Redis hash whose fields are the fixed
// keys. Expiry is left to Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps a client. An empty prefix means DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	sess := &Session{
		ID:       id,
		MongoURI: fields[KeyMongoURI],
		DBName:   fields[KeyDBName],
	}
	if w := fields[KeyWorkflows]; w != "" {
		sess.Workflows = []byte(w)
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	sess.ExpiresAt, _ = time.Parse(time.RFC3339Nano, fields[fieldExpiresAt])
	if sess.IsExpired() {
		return nil, nil
	}
	return sess, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, sess *Session) error {
	key := s.key(sess.ID)
	values := map[string]any{
		KeyMongoURI:    sess.MongoURI,
		KeyDBName:      sess.DBName,
		KeyWorkflows:   string(sess.Workflows),
		fieldCreatedAt: sess.CreatedAt.Format(time.RFC3339Nano),
	}
	if !sess.ExpiresAt.IsZero() {
		values[fieldExpiresAt] = sess.ExpiresAt.Format(time.RFC3339Nano)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		if !sess.ExpiresAt.IsZero() {
			pipe.ExpireAt(ctx, key, sess.ExpiresAt)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Cleanup implements Store. Redis expires hashes itself.
func (s *RedisStore) Cleanup(ctx context.Context) error { return nil }

// Close implements Store. The client belongs to the caller.
func (s *RedisStore) Close() error { return nil }

var _ Store = (*RedisStore)(nil)
