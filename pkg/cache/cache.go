// Package cache stores rendered notices between runs.
//
// ClearlyDefined renders the same coordinate list to the same notice, so a
// repository whose dependencies have not changed can skip the round trip.
// Caching is opt-in; [NullCache] is the default.
//
// Backends:
//   - [NullCache]: stores nothing
//   - [FileCache]: JSON entries under the user cache directory, for the CLI
//   - [MemoryCache]: bounded LRU, for the long-running service
//   - [RedisCache]: shared across service replicas
//
// The package also carries the retry helper used by the HTTP clients.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// A ttl of zero means the entry does not expire.
type Cache interface {
	// Get returns the stored value. The boolean is false on a miss or after
	// expiry; err is reserved for backend failures.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options selects and configures a backend for [Open].
type Options struct {
	Backend string
	// Dir is the FileCache directory.
	Dir string
	// Size is the MemoryCache entry limit.
	Size int
	// RedisAddr, RedisPassword and RedisDB configure RedisCache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}
