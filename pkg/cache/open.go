package cache

import (
	"context"
	"fmt"
)

// Open constructs the backend named by opts.Backend. An empty backend is
// treated as "none".
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("file cache requires a directory")
		}
		return NewFileCache(opts.Dir)
	case BackendMemory:
		return NewMemoryCache(opts.Size)
	case BackendRedis:
		return NewRedisCache(ctx, RedisConfig{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
	}
	return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
}
