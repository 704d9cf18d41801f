package domain

import (
	"context"

	"github.com/google/uuid"
)

// TxManager is the scoped-transaction port. WithinTx runs fn inside a storage
// transaction: if fn returns an error the transaction is rolled back,
// otherwise it is committed. Repository calls made with the ctx passed to fn
// join the transaction. Nested WithinTx calls join the outer transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventLocker serializes the capacity-sensitive sections per event. Two
// operations on different events proceed in parallel; two on the same event
// are serialized. Lock blocks until the lock is held or ctx is done; in the
// latter case it returns an error wrapping ErrTransientStorage. The returned
// release function must be called on every exit path.
type EventLocker interface {
	Lock(ctx context.Context, eventID uuid.UUID) (release func(), err error)
}
