package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is an optional cross-process conversation cache, fronting
// the same Store API but persisting each person's transcript to Redis so
// multiple engine processes executing related sub-diagrams can share
// memory for the same person_id.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing Redis client. Keys are namespaced under
// prefix (e.g. "dipeo:conversation:") and expire after ttl of inactivity;
// ttl of zero means no expiration.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) key(personID string) string {
	return r.prefix + personID
}

// Append adds a message to a person's transcript, read-modify-write under
// the Redis key (acceptable for the expected concurrency: one PersonJob
// handler instance writes per person at a time).
func (r *RedisStore) Append(ctx context.Context, personID string, msg Message) error {
	mem, err := r.load(ctx, personID)
	if err != nil {
		return err
	}
	mem.Messages = append(mem.Messages, msg)
	mem.LastUpdated = msg.Timestamp
	return r.save(ctx, personID, mem)
}

// History returns the transcript for personID from Redis, applying the
// same selection policies as Store.History.
func (r *RedisStore) History(ctx context.Context, personID string, policy SelectionPolicy, atMost int) ([]Message, error) {
	mem, err := r.load(ctx, personID)
	if err != nil {
		return nil, err
	}
	switch policy {
	case SelectNone:
		return nil, nil
	case SelectLastN:
		if atMost <= 0 || atMost >= len(mem.Messages) {
			return mem.Messages, nil
		}
		return mem.Messages[len(mem.Messages)-atMost:], nil
	default:
		return mem.Messages, nil
	}
}

// Clear removes a person's cached transcript.
func (r *RedisStore) Clear(ctx context.Context, personID string) error {
	return r.client.Del(ctx, r.key(personID)).Err()
}

func (r *RedisStore) load(ctx context.Context, personID string) (*Memory, error) {
	raw, err := r.client.Get(ctx, r.key(personID)).Bytes()
	if err == redis.Nil {
		return &Memory{PersonID: personID, Context: make(map[string]interface{})}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: redis load %s: %w", personID, err)
	}
	var mem Memory
	if err := json.Unmarshal(raw, &mem); err != nil {
		return nil, fmt.Errorf("conversation: redis decode %s: %w", personID, err)
	}
	return &mem, nil
}

func (r *RedisStore) save(ctx context.Context, personID string, mem *Memory) error {
	raw, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("conversation: redis encode %s: %w", personID, err)
	}
	if err := r.client.Set(ctx, r.key(personID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("conversation: redis save %s: %w", personID, err)
	}
	return nil
}
