// Package store provides data persistence interfaces and implementations.
//
// The journal persists through a small key/value Storage modelled on browser
// local storage: every key holds one opaque value, and writers always replace
// the whole value. Repositories on top of it encode the trade collection and
// the checklist as JSON under their own keys.
package store

import (
	"context"
	"fmt"

	"trading-journal/internal/config"
	apperrors "trading-journal/internal/errors"
)

// Storage defines the interface for local key/value persistence.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases underlying resources.
	Close() error
}

// Recoverer is implemented by storages whose whole backing document can
// become unreadable. Recover moves the unreadable data aside, leaves the
// storage empty and returns where the old data went.
type Recoverer interface {
	Recover(ctx context.Context) (backup string, err error)
}

// Open builds the Storage selected by the [storage] configuration.
func Open(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStorage(cfg.Path)
	case config.BackendSQLite:
		return NewSQLiteStorage(cfg.Path)
	case config.BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", apperrors.ErrConfigInvalid, cfg.Backend)
	}
}
