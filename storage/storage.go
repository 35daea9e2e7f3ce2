package storage

import (
	"context"
	"errors"
)

const (
	// KeyToken holds the raw bearer string issued at login.
	KeyToken = "token"
	// KeyCurrentUser holds the serialized identity snapshot.
	KeyCurrentUser = "currentUser"
)

// ErrUnavailable wraps transport failures from a storage backend.
var ErrUnavailable = errors.New("storage unavailable")

// Store is a durable string key-value surface with last-writer-wins
// semantics. Implementations must make a single Apply atomic with respect
// to concurrent Read calls: either all of its writes are visible or none.
type Store interface {
	// Read returns the present keys among those requested. Absent keys
	// are simply missing from the result, not an error.
	Read(ctx context.Context, keys ...string) (map[string]string, error)
	// Apply sets and deletes keys as one atomic unit.
	Apply(ctx context.Context, set map[string]string, del []string) error
}
