package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disbotter/disbotter/internal/config"
	"github.com/disbotter/disbotter/pkg/adapters/file"
	"github.com/disbotter/disbotter/pkg/adapters/memory"
	"github.com/disbotter/disbotter/pkg/adapters/redis"
	"github.com/disbotter/disbotter/pkg/persistence/middleware"
	"github.com/disbotter/disbotter/pkg/ports"
)

// DefaultNamespace prefixes compile locks when Redis has no prefix set.
const DefaultNamespace = "disbotter:"

// Cache is the program store and locker the compile service runs with.
type Cache struct {
	Store  ports.ProgramStore
	Locker ports.Locker
	// Backend names the storage in use: redis, file or memory.
	Backend string

	close func() error
}

// Close releases the backend connection, if any.
func (c *Cache) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// NewCache selects the cache backend: Redis when an address is configured,
// a directory when server.cache_dir is set, memory otherwise. Keys are
// scoped under namespace, and programs are encrypted when server.cache_key
// is set.
func NewCache(ctx context.Context, cfg *config.Config, logger *slog.Logger, namespace string) (*Cache, error) {
	active, fallback, err := cfg.Server.CacheKeys()
	if err != nil {
		return nil, err
	}
	c, err := openCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	mws := []middleware.Middleware{middleware.NewNamespaceMiddleware(namespace)}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		mws = append(mws, enc)
		logger.Debug("Cache encryption enabled", "fallback_keys", len(fallback))
	}
	c.Store = middleware.Chain(c.Store, mws...)
	return c, nil
}

func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Cache, error) {
	if cfg.Redis.Enabled() {
		ttl, err := cfg.Redis.TTLDuration()
		if err != nil {
			return nil, err
		}
		opts := []redis.Option{redis.WithTTL(ttl)}
		namespace := DefaultNamespace
		if cfg.Redis.Prefix != "" {
			namespace = cfg.Redis.Prefix
			opts = append(opts, redis.WithPrefix(namespace+"program:"))
		}

		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Debug("Using Redis cache", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB, "ttl", ttl)
		return &Cache{
			Store:   store,
			Locker:  redis.NewLocker(store.Client(), namespace),
			Backend: "redis",
			close:   store.Close,
		}, nil
	}

	if cfg.Server.CacheDir != "" {
		logger.Debug("Using file cache", "dir", cfg.Server.CacheDir)
		return &Cache{
			Store:   file.NewStore(cfg.Server.CacheDir),
			Locker:  memory.NewLocker(),
			Backend: "file",
		}, nil
	}

	return &Cache{
		Store:   memory.NewStore(),
		Locker:  memory.NewLocker(),
		Backend: "memory",
	}, nil
}
