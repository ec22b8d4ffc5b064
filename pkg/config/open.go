package config

import (
	"context"

	"github.com/matzehuels/viewgrid/pkg/cache"
	verrors "github.com/matzehuels/viewgrid/pkg/errors"
	"github.com/matzehuels/viewgrid/pkg/groupstore"
)

// OpenCache connects the configured image cache. noCache forces the null
// cache.
func (c *Config) OpenCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.Cache.RedisAddr)
		if err != nil {
			return nil, verrors.Wrap(verrors.ErrCodeStore, err, "connect redis cache at %s", c.Cache.RedisAddr)
		}
		return rc, nil
	default:
		dir, err := c.CacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, verrors.Wrap(verrors.ErrCodeStore, err, "open file cache %s", dir)
		}
		return fc, nil
	}
}

// OpenStore connects the configured view group store.
func (c *Config) OpenStore(ctx context.Context) (groupstore.Store, error) {
	switch c.Store.Backend {
	case BackendNone:
		return groupstore.Null{}, nil
	case BackendRedis:
		s, err := groupstore.NewRedis(ctx, c.Store.RedisAddr, c.Store.RedisKey)
		if err != nil {
			return nil, verrors.Wrap(verrors.ErrCodeStore, err, "connect redis store at %s", c.Store.RedisAddr)
		}
		return s, nil
	case BackendMongo:
		s, err := groupstore.NewMongo(ctx, c.Store.MongoURI, c.Store.MongoDatabase, c.Store.MongoCollection)
		if err != nil {
			return nil, verrors.Wrap(verrors.ErrCodeStore, err, "connect mongo store")
		}
		return s, nil
	default:
		path, err := c.StorePath()
		if err != nil {
			return nil, verrors.Wrap(verrors.ErrCodeStore, err, "resolve group store path")
		}
		return groupstore.NewFile(path), nil
	}
}
