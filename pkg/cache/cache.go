// Package cache provides the byte caches and key scheme used to memoize
// metadata resolution, workflow lists, layouts and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: one JSON file per key under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the API server
//   - [NullCache]: stores nothing, for tests or when caching is disabled
//
// # Keys
//
// A [Keyer] derives keys from the inputs that determine a value. Connection
// strings are hashed so credentials never appear in keys. [ScopedKeyer]
// prefixes every key, which keeps sessions or tenants apart in one store.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional time to live.
//
// Get reports a miss with ok=false and a nil error. A ttl of zero means the
// entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Time to live per kind of cached value.
const (
	// TTLWorkflows bounds how stale a cached workflow list may get.
	TTLWorkflows = 10 * time.Minute
	// TTLResolution bounds cached catalog lookups.
	TTLResolution = time.Hour
	// TTLLayout and TTLArtifact cover pure computations keyed by content
	// hash, so they only expire to bound storage.
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
