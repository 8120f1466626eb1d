package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockBusy is returned when another caller held the reference lock for
// the whole wait period.
var ErrLockBusy = errors.New("mirror lock busy")

const retryInterval = 50 * time.Millisecond

type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Wait   time.Duration
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, ttl, wait time.Duration, log *logger.Logger) *Redis {
	return &Redis{
		Client: client,
		TTL:    ttl,
		Wait:   wait,
		Logger: log,
	}
}

func lockKey(kind models.EventType, referenceID string) string {
	return fmt.Sprintf("mirror_lock:%s:%s", kind, referenceID)
}

func (r *Redis) ttl() time.Duration {
	if r.TTL <= 0 {
		return 10 * time.Second
	}
	return r.TTL
}

// IsReferenceLocked reports whether a mirror write for the reference is in flight.
func (r *Redis) IsReferenceLocked(ctx context.Context, kind models.EventType, referenceID string) (bool, error) {
	_, err := r.Client.Get(ctx, lockKey(kind, referenceID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LockReference takes the lock once, without waiting.
func (r *Redis) LockReference(ctx context.Context, kind models.EventType, referenceID, owner string) (bool, error) {
	return r.Client.SetNX(ctx, lockKey(kind, referenceID), owner, r.ttl()).Result()
}

// unlockScript deletes the key only while it still holds the caller's
// owner token, in one round trip.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// UnlockReference releases the lock only if owner still holds it.
func (r *Redis) UnlockReference(ctx context.Context, kind models.EventType, referenceID, owner string) error {
	err := unlockScript.Run(ctx, r.Client, []string{lockKey(kind, referenceID)}, owner).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

// Acquire polls for the reference lock until it is taken, Wait elapses or
// ctx is done. The returned release func is safe to call once.
func (r *Redis) Acquire(ctx context.Context, kind models.EventType, referenceID string) (func(), error) {
	owner := uuid.New().String()
	deadline := time.Now().Add(r.Wait)

	for {
		ok, err := r.LockReference(ctx, kind, referenceID, owner)
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", lockKey(kind, referenceID), err)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	r.Logger.Debug("REDIS", fmt.Sprintf("Locked %s", lockKey(kind, referenceID)))

	release := func() {
		// the caller's ctx may already be cancelled
		if err := r.UnlockReference(context.Background(), kind, referenceID, owner); err != nil {
			r.Logger.Warn("REDIS", fmt.Sprintf("Failed to unlock %s: %v", lockKey(kind, referenceID), err))
		}
	}
	return release, nil
}
