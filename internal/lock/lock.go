package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock stayed held by someone else for
// the whole wait window.
var ErrNotAcquired = errors.New("lock: not acquired")

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// Locker is a Redis SETNX lock shared by all instances of the service.
type Locker struct {
	Client *redis.Client
	// Retry is the pause between acquisition attempts.
	Retry time.Duration
	// Wait bounds how long Do waits for a held lock.
	Wait time.Duration
}

// Do runs fn while holding key. The lock expires after ttl even if the holder
// dies. Waiting stops after Wait with ErrNotAcquired; fn itself runs with the
// caller's context.
func (l Locker) Do(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.Client == nil {
		return errors.New("lock: redis client not configured")
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	retry := l.Retry
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	wait := l.Wait
	if wait <= 0 {
		wait = time.Second
	}

	token := uuid.NewString()
	deadline := time.Now().Add(wait)
	for {
		ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return ErrNotAcquired
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	defer l.release(key, token)
	return fn(ctx)
}

func (l Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.Client.Del(ctx, key).Err()
		}
	}
}
