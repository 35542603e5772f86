// Package storage provides the key/value persistence medium for the order collection.
//
// Values are opaque byte blobs; callers own the encoding. Implementations are
// synchronous: when Set returns, the value is committed.
package storage

import (
	"context"
	"errors"
)

// Well-known keys used by the order store.
const (
	KeyOrders = "orders"
	KeyCartID = "current-cart-order-id"
)

// ErrQuotaExceeded is returned by Set when a write would exceed the backend capacity.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is an interface for key/value storage operations.
// It abstracts the underlying medium, allowing for different implementations
// (e.g., in-memory, bolt file, database).
type Store interface {
	// Get retrieves the value stored under key.
	// The boolean reports whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the value stored under key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases the resources held by the backend.
	Close() error
}
