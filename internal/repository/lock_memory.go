package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

// lockSlot is held by whoever managed to send into ch. refs counts holders and waiters.
type lockSlot struct {
	ch   chan struct{}
	refs int
}

type memoryLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot

	wait time.Duration
}

// NewMemoryLocker - per-process locker. Each game gets a one-slot channel while someone
// holds or waits for its lock.
func NewMemoryLocker(wait time.Duration) Locker {
	return &memoryLocker{
		slots: make(map[string]*lockSlot),
		wait:  wait,
	}
}

func (that *memoryLocker) Lock(ctx context.Context, gameID string) (Unlock, error) {
	slot := that.acquire(gameID)

	ctx, cancel := context.WithTimeout(ctx, that.wait)
	defer cancel()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		that.release(gameID, slot)
		return nil, fmt.Errorf("%w: %s", apperror.ErrGameLocked, gameID)
	}

	var once sync.Once

	return func(context.Context) error {
		once.Do(func() {
			<-slot.ch
			that.release(gameID, slot)
		})

		return nil
	}, nil
}

func (that *memoryLocker) acquire(gameID string) *lockSlot {
	that.mu.Lock()
	defer that.mu.Unlock()

	slot, ok := that.slots[gameID]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		that.slots[gameID] = slot
	}

	slot.refs++

	return slot
}

func (that *memoryLocker) release(gameID string, slot *lockSlot) {
	that.mu.Lock()
	defer that.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(that.slots, gameID)
	}
}
