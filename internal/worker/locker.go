package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "genrtl:job-lock:"

// Deletes the key only if it still holds the caller's token, so an expired
// lock that was re-acquired elsewhere is never released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisJobLocker is a SET NX lock with a TTL. The TTL bounds how long a
// crashed holder blocks the job and must exceed the longest expected run.
type RedisJobLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisJobLocker(client *redis.Client, ttl time.Duration) *RedisJobLocker {
	return &RedisJobLocker{client: client, ttl: ttl}
}

func (l *RedisJobLocker) Acquire(ctx context.Context, jobID int64) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey(jobID), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("setnx job lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *RedisJobLocker) Release(ctx context.Context, jobID int64, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKey(jobID)}, token).Err(); err != nil {
		return fmt.Errorf("release job lock: %w", err)
	}
	return nil
}

func lockKey(jobID int64) string {
	return fmt.Sprintf("%s%d", lockKeyPrefix, jobID)
}
