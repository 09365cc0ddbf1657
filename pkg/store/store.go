package store

import "github.com/pkg/errors"

// ErrNotFound is returned by Get when no value exists for a key. It is not
// an error condition for callers that treat missing state as empty state.
var ErrNotFound = errors.New("key not found")

// Store is a minimal key-value store: one serialized value per key. It
// backs the conversation manager's persistence with no durability
// acknowledgment and no schema versioning.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
