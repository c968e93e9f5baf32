// Package tokenstore persists the console's bearer token under the key
// "token", the only state the console keeps between runs.
package tokenstore

import (
	"context"
	"strings"

	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
)

// Key is the storage key the token lives under
const Key = "token"

// Store is a TokenStore that holds resources
type Store interface {
	ports.TokenStore
	Close() error
}

// Open picks a backend from the URL scheme: "memory:" for an in-process
// store, "redis://" / "rediss://" for Redis, anything else is handed to the
// SQL drivers (libSQL for libsql:// and wss://, local SQLite otherwise).
func Open(ctx context.Context, storeURL string) (Store, error) {
	switch {
	case storeURL == "" || storeURL == "memory:":
		return NewMemory(), nil
	case strings.HasPrefix(storeURL, "redis://"), strings.HasPrefix(storeURL, "rediss://"):
		return NewRedisStore(ctx, storeURL)
	default:
		return NewSQLiteStore(ctx, storeURL)
	}
}
