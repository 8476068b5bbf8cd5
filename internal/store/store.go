// Versioned storage of HTTP response snapshots.
package store

import (
	"errors"
	"net/http"
)

// ErrNotFound is returned by Handle.Get when no snapshot exists for a key.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is an HTTP response captured at write time: status, headers and
// body bytes. It is immutable once stored.
type Snapshot struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Store is a collection of cache generations, one per version string.
// Implementations must be safe for concurrent use.
type Store interface {
	// Open returns the handle for the given version, creating the
	// generation if it does not exist yet. Opening the same version twice
	// yields the same logical store.
	Open(version string) (Handle, error)
	// Versions enumerates all generations currently present.
	Versions() ([]string, error)
	// Delete removes a generation and all its snapshots. Deleting an
	// absent version is a no-op.
	Delete(version string) error
	// Close releases the underlying storage.
	Close() error
}

// Handle is a view of a single generation.
type Handle interface {
	Version() string
	// Put stores a snapshot under the key, overwriting any existing entry.
	Put(key string, snap Snapshot) error
	// Get returns the snapshot for the key, or ErrNotFound.
	Get(key string) (Snapshot, error)
}

// Key builds the store key for a request: method plus absolute URL.
func Key(method, url string) string {
	return method + " " + url
}
