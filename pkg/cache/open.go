package cache

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Options selects and configures a cache backend.
type Options struct {
	Backend string // one of the Backend* names; empty means BackendFile

	Dir string // BackendFile

	RedisURL    string // BackendRedis
	RedisPrefix string

	MongoURI      string // BackendMongo
	MongoDatabase string
}

// Open creates the backend described by opts.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("file cache: no directory")
		}
		return nonNil(NewFileCache(opts.Dir))
	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis cache: no url")
		}
		return nonNil(NewRedisCache(ctx, opts.RedisURL, opts.RedisPrefix))
	case BackendMongo:
		if opts.MongoURI == "" || opts.MongoDatabase == "" {
			return nil, fmt.Errorf("mongo cache: uri and database are required")
		}
		return nonNil(NewMongoCache(ctx, opts.MongoURI, opts.MongoDatabase))
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// nonNil keeps a failed constructor's typed nil pointer out of the Cache
// interface.
func nonNil[C Cache](c C, err error) (Cache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NullCache is the BackendNone store: every Get misses and writes are
// dropped. It has nothing to clear.
type NullCache struct{}

// NewNullCache returns the store used when caching is turned off.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }

var _ Cache = NullCache{}
