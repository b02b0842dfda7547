package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/session"
)

// CacheDir returns the directory for file-backed state: dir when set,
// else $XDG_CACHE_HOME/flowlens or ~/.cache/flowlens.
func CacheDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Open creates the configured pipeline cache.
func (c CacheConfig) Open(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case BackendNull:
		return cache.NewNullCache(), nil
	case BackendRedis:
		// Redis may still be starting next to the server
		var rc *cache.RedisCache
		err := cache.RetryWithBackoff(ctx, func() (err error) {
			rc, err = cache.NewRedisCache(ctx, cache.RedisOptions{Addr: c.RedisAddr, Prefix: c.RedisPrefix})
			return err
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		dir, err := CacheDir(c.Dir)
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(filepath.Join(dir, "pipeline"))
	}
}

// Open creates the configured session store. The returned close function
// releases the store and any connection it owns.
func (s SessionConfig) Open(ctx context.Context) (session.Store, func() error, error) {
	switch s.Backend {
	case BackendMemory:
		st := session.NewMemoryStore()
		return st, st.Close, nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, errors.Wrap(errors.ErrCodeTransport, err, "connect to redis at %s", s.RedisAddr)
		}
		return session.NewRedisStore(client, ""), client.Close, nil
	default:
		dir, err := CacheDir(s.Dir)
		if err != nil {
			return nil, nil, err
		}
		st, err := session.NewFileStore(filepath.Join(dir, "sessions"))
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}
}
