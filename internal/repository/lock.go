package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

const lockKeyPrefix = "lock:game:"

const (
	lockRetryInitialInterval = 20 * time.Millisecond
	lockRetryMaxInterval     = 250 * time.Millisecond
)

// releaseScript deletes the lock only while it still holds our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Unlock releases a lock taken by Locker.Lock.
type Unlock func(ctx context.Context) error

// Locker serializes moves on one game. Lock waits until the lock is free or the
// wait budget runs out, in which case apperror.ErrGameLocked is returned.
type Locker interface {
	Lock(ctx context.Context, gameID string) (Unlock, error)
}

type valkeyLocker struct {
	client  valkey.Client
	release *valkey.Lua

	ttl  time.Duration
	wait time.Duration
}

func NewLocker(client valkey.Client, ttl, wait time.Duration) Locker {
	return &valkeyLocker{
		client:  client,
		release: valkey.NewLuaScript(releaseScript),
		ttl:     ttl,
		wait:    wait,
	}
}

func (that *valkeyLocker) Lock(ctx context.Context, gameID string) (Unlock, error) {
	key := lockKey(gameID)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, that.wait)
	defer cancel()

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.InitialInterval = lockRetryInitialInterval
	retryBackoff.MaxInterval = lockRetryMaxInterval
	retryBackoff.MaxElapsedTime = 0

	for {
		cmd := that.client.B().Set().Key(key).Value(token).Nx().Ex(that.ttl).Build()
		err := that.client.Do(ctx, cmd).Error()
		if err == nil {
			break
		}

		if !valkey.IsValkeyNil(err) {
			// the SET may have landed before the reply was lost
			_ = that.unlock(key, token)(context.WithoutCancel(ctx))

			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s", apperror.ErrGameLocked, gameID)
			}

			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		timer := time.NewTimer(retryBackoff.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s", apperror.ErrGameLocked, gameID)
		case <-timer.C:
		}
	}

	return that.unlock(key, token), nil
}

func (that *valkeyLocker) unlock(key, token string) Unlock {
	return func(ctx context.Context) error {
		err := that.release.Exec(ctx, that.client, []string{key}, []string{token}).Error()
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to release lock: %w", err)
		}

		return nil
	}
}

func lockKey(gameID string) string {
	return lockKeyPrefix + gameID
}
