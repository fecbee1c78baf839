package repository

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/testing/suite"
)

func lockers(t *testing.T, wait time.Duration) map[string]func(t *testing.T) (context.Context, Locker) {
	t.Helper()

	return map[string]func(t *testing.T) (context.Context, Locker){
		"valkey": func(t *testing.T) (context.Context, Locker) {
			ctx, st := suite.New(t)
			return ctx, NewLocker(st.Valkey, 5*time.Second, wait)
		},
		"memory": func(t *testing.T) (context.Context, Locker) {
			return t.Context(), NewMemoryLocker(wait)
		},
	}
}

func TestLocker_Busy(t *testing.T) {
	for name, newLocker := range lockers(t, 100*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			ctx, locker := newLocker(t)

			// Given: a held lock
			unlock, err := locker.Lock(ctx, "123")
			require.NoError(t, err)

			// When: the same game is locked again
			_, err = locker.Lock(ctx, "123")

			// Then: the wait runs out with ErrGameLocked
			require.ErrorIs(t, err, apperror.ErrGameLocked)

			// And: another game is unaffected
			unlockOther, err := locker.Lock(ctx, "456")
			require.NoError(t, err)
			require.NoError(t, unlockOther(ctx))

			// And: after release the lock can be taken again
			require.NoError(t, unlock(ctx))

			unlock, err = locker.Lock(ctx, "123")
			require.NoError(t, err)
			require.NoError(t, unlock(ctx))
		})
	}
}

func TestLocker_WaitsForRelease(t *testing.T) {
	for name, newLocker := range lockers(t, 2*time.Second) {
		t.Run(name, func(t *testing.T) {
			ctx, locker := newLocker(t)

			unlock, err := locker.Lock(ctx, "123")
			require.NoError(t, err)

			go func() {
				time.Sleep(50 * time.Millisecond)
				_ = unlock(ctx)
			}()

			// When: a second caller waits within its budget
			second, err := locker.Lock(ctx, "123")

			// Then: it gets the lock once the first holder releases
			require.NoError(t, err)
			require.NoError(t, second(ctx))
		})
	}
}

func TestLocker_MutualExclusion(t *testing.T) {
	for name, newLocker := range lockers(t, 5*time.Second) {
		t.Run(name, func(t *testing.T) {
			ctx, locker := newLocker(t)

			var (
				holders    atomic.Int32
				maxHolders atomic.Int32
				wg         sync.WaitGroup
			)

			for range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()

					unlock, err := locker.Lock(ctx, "123")
					if !assert.NoError(t, err) {
						return
					}

					current := holders.Add(1)
					for {
						seen := maxHolders.Load()
						if current <= seen || maxHolders.CompareAndSwap(seen, current) {
							break
						}
					}

					time.Sleep(5 * time.Millisecond)
					holders.Add(-1)

					assert.NoError(t, unlock(ctx))
				}()
			}

			wg.Wait()

			assert.Equal(t, int32(1), maxHolders.Load())
		})
	}
}

func TestValkeyLocker_ReleaseKeepsForeignLock(t *testing.T) {
	ctx, st := suite.New(t)
	locker := NewLocker(st.Valkey, 5*time.Second, 50*time.Millisecond)

	// Given: a lock whose key was taken over by another holder after expiry
	unlock, err := locker.Lock(ctx, "123")
	require.NoError(t, err)
	require.NoError(t, st.Storage.Set(ctx, "lock:game:123", "someone-else", time.Minute).Err())

	// When: the original holder releases
	require.NoError(t, unlock(ctx))

	// Then: the foreign lock survives
	value, err := st.Storage.Get(ctx, "lock:game:123").Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", value)
}

func TestMemoryLocker_ForgetsReleasedGames(t *testing.T) {
	ctx := t.Context()
	locker := NewMemoryLocker(20 * time.Millisecond).(*memoryLocker)

	// Given: many games locked and released
	for i := range 1000 {
		unlock, err := locker.Lock(ctx, strconv.Itoa(i))
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	}

	// And: a waiter that gave up on a busy game
	unlock, err := locker.Lock(ctx, "busy")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "busy")
	require.ErrorIs(t, err, apperror.ErrGameLocked)

	locker.mu.Lock()
	assert.Len(t, locker.slots, 1)
	locker.mu.Unlock()

	// When: the last holder releases
	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx))

	// Then: no slot is retained
	locker.mu.Lock()
	assert.Empty(t, locker.slots)
	locker.mu.Unlock()
}

// lateReplyClient stores SET commands but answers only after the caller's deadline.
type lateReplyClient struct {
	valkey.Client
}

func (that *lateReplyClient) Do(ctx context.Context, cmd valkey.Completed) valkey.ValkeyResult {
	if cmd.Commands()[0] != "SET" {
		return that.Client.Do(ctx, cmd)
	}

	_ = that.Client.Do(context.WithoutCancel(ctx), cmd)
	<-ctx.Done()

	return that.Client.Do(ctx, that.Client.B().Ping().Build())
}

func TestValkeyLocker_DeadlineAfterSet(t *testing.T) {
	ctx, st := suite.New(t)
	locker := NewLocker(&lateReplyClient{Client: st.Valkey}, 5*time.Second, 50*time.Millisecond)

	// When: the lock is taken on the server but the reply misses the wait budget
	_, err := locker.Lock(ctx, "123")

	// Then: the caller sees ErrGameLocked and the key is not left behind
	require.ErrorIs(t, err, apperror.ErrGameLocked)

	exists, err := st.Storage.Exists(ctx, "lock:game:123").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
