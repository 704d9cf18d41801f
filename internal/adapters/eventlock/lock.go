// Package eventlock provides an in-process implementation of the per-event
// lock used to serialize capacity decisions. One API instance per database is
// assumed; cross-instance deployments would swap this for an advisory lock.
package eventlock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"gatherly/internal/domain"
)

type keyedLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*semaphore.Weighted
}

// New returns an EventLocker backed by one weighted semaphore per event.
func New() domain.EventLocker {
	return &keyedLocker{locks: make(map[uuid.UUID]*semaphore.Weighted)}
}

func (l *keyedLocker) Lock(ctx context.Context, eventID uuid.UUID) (func(), error) {
	l.mu.Lock()
	sem, ok := l.locks[eventID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.locks[eventID] = sem
	}
	l.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: event lock: %v", domain.ErrTransientStorage, err)
	}
	return func() { sem.Release(1) }, nil
}
