package catalog

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const CacheKey = "payroll:component-catalog"

// Loader fetches the raw catalog records. Satisfied by backend.Client.
type Loader interface {
	FetchComponents(ctx context.Context) ([]map[string]any, error)
}

// Cache holds the known payroll components, lazily populated and shared
// read-only across editing sessions. Concurrent loads collapse into one
// upstream call via singleflight; Redis keeps warm restarts cheap.
type Cache struct {
	loader Loader
	rdb    *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	logger *zap.Logger

	mu    sync.RWMutex
	defs  map[string]ComponentDefinition
	ready bool
}

func NewCache(loader Loader, rdb *redis.Client, logger *zap.Logger) *Cache {
	l := zap.L().Named("catalog.cache")
	if logger != nil {
		l = logger.Named("catalog.cache")
	}
	return &Cache{
		loader: loader,
		rdb:    rdb,
		ttl:    1 * time.Hour,
		logger: l,
	}
}

// NewStatic builds a pre-populated, ready cache. Used by tests and warmed
// standalone tooling.
func NewStatic(defs []ComponentDefinition) *Cache {
	c := &Cache{logger: zap.NewNop()}
	c.install(defs)
	return c
}

// Load populates the cache if it is not ready yet. Safe to call from any
// number of sessions; only one upstream fetch is ever in flight.
func (c *Cache) Load(ctx context.Context) error {
	if c.Ready() {
		return nil
	}

	if c.rdb != nil {
		if cached, err := c.rdb.Get(ctx, CacheKey).Result(); err == nil {
			var defs []ComponentDefinition
			if json.Unmarshal([]byte(cached), &defs) == nil && len(defs) > 0 {
				c.install(defs)
				return nil
			}
		}
	}

	_, err, _ := c.sf.Do(CacheKey, func() (interface{}, error) {
		records, err := c.loader.FetchComponents(ctx)
		if err != nil {
			return nil, err
		}

		defs := AdaptComponents(records, c.logger)
		c.install(defs)

		if c.rdb != nil {
			if payload, err := json.Marshal(defs); err == nil {
				c.rdb.Set(ctx, CacheKey, payload, c.ttl)
			}
		}

		c.logger.Info("component catalog loaded", zap.Int("components", len(defs)))
		return nil, nil
	})

	return err
}

// Ready reports whether the catalog finished loading. Sessions filter
// optimistically until this flips to true.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

func (c *Cache) Lookup(code string) (ComponentDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.defs[code]
	return def, ok
}

func (c *Cache) All() []ComponentDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make([]ComponentDefinition, 0, len(c.defs))
	for _, def := range c.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Code < defs[j].Code })
	return defs
}

// Invalidate drops the in-memory generation and the Redis copy. The next
// Load fetches a fresh catalog from the payroll core.
func (c *Cache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.defs = nil
	c.ready = false
	c.mu.Unlock()

	if c.rdb != nil {
		c.rdb.Del(ctx, CacheKey)
	}

	c.logger.Info("component catalog invalidated")
}

func (c *Cache) install(defs []ComponentDefinition) {
	indexed := make(map[string]ComponentDefinition, len(defs))
	for _, def := range defs {
		indexed[def.Code] = def
	}

	c.mu.Lock()
	c.defs = indexed
	c.ready = true
	c.mu.Unlock()
}
