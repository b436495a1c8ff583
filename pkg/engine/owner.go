package engine

import (
	"context"
	"sync/atomic"
)

// OwnerID identifies the execution context allowed to mutate a DataEngine.
type OwnerID uint64

type ownerKey struct{}

var lastOwnerID atomic.Uint64

func newOwnerID() OwnerID {
	return OwnerID(lastOwnerID.Add(1))
}

// WithOwner marks ctx as running on the context identified by id.
func WithOwner(ctx context.Context, id OwnerID) context.Context {
	return context.WithValue(ctx, ownerKey{}, id)
}

func ownerOf(ctx context.Context) (OwnerID, bool) {
	id, ok := ctx.Value(ownerKey{}).(OwnerID)
	return id, ok
}
