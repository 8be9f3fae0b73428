// Package kvstore is the small key/value persistence layer under the vault
// and the transaction ledger. Each Put replaces a key's value atomically, so
// readers observe either the previous value or the new one.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// ErrInvalidKey is returned for keys outside [a-z0-9_-]{1,64}.
var ErrInvalidKey = errors.New("invalid key")

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Store is a durable key/value map. Implementations are safe for concurrent
// use; concurrent writers to one key resolve last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile    = "file"
	BackendSQLite  = "sqlite"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Open returns the backend named by backend rooted at path.
// For the file backend path is a directory; for sqlite and leveldb it is the
// database location. The memory backend ignores path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path)
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendLevelDB:
		return OpenLevelDB(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}
