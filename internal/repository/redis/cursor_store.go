package redis

import (
	"context"
	"errors"
	"time"

	"training-passport/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Key holding the timestamp of the last new-assignment sweep.
const lastAssignmentCheckKey = "notify:last_assignment_check"

// redisCursorStore implements repository.CursorStore on a single Redis key.
type redisCursorStore struct {
	client *redis.Client
}

// NewRedisCursorStore creates a cursor store backed by the given Redis client.
func NewRedisCursorStore(client *redis.Client) repository.CursorStore {
	return &redisCursorStore{client: client}
}

// Get returns the stored cursor. ok is false on the very first sweep, when the
// key has never been written.
func (s *redisCursorStore) Get(ctx context.Context) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, lastAssignmentCheckKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}

	cursor, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		// A corrupt cursor is treated like a missing one; the next sweep will
		// notify everything since "the beginning" and then rewrite it.
		return time.Time{}, false, nil
	}
	return cursor, true, nil
}

// Set persists the cursor. The value never expires.
func (s *redisCursorStore) Set(ctx context.Context, cursor time.Time) error {
	return s.client.Set(ctx, lastAssignmentCheckKey, cursor.UTC().Format(time.RFC3339Nano), 0).Err()
}

// Connect creates a Redis client and verifies connectivity with a ping.
func Connect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
