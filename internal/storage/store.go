// Package storage provides the durable key/value stores that hold the
// session values surviving restarts.
package storage

import (
	"context"
	"errors"
	"fmt"

	"taskgate/internal/config"
)

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("storage: store is closed")

// Store is a durable string key/value store
type Store interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error
	// Close releases the store
	Close() error
}

// Open creates the store selected by cfg.Storage.Driver
func Open(cfg *config.Config, paths *config.Paths) (Store, error) {
	path := cfg.StorePath(paths)

	switch cfg.Storage.Driver {
	case config.StorageDriverFile, "":
		return NewFileStore(path)
	case config.StorageDriverSQLite:
		return NewSQLiteStore(path)
	case config.StorageDriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Storage.Driver)
	}
}
