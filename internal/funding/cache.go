package funding

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"ccm/internal/apperr"
	"ccm/internal/metrics"
	"ccm/internal/sample"
)

// DefaultCacheSize bounds the shared efficiency cache.
const DefaultCacheSize = 256

// Cache holds pool efficiencies (DALYs per dollar) keyed by pool, parameter
// hash, simulation count and seed. Concurrent fills for one key run once.
type Cache struct {
	entries *lru.Cache[cacheKey, sample.Sparse]
	flight  singleflight.Group
}

type cacheKey struct {
	pool   string
	params string
	n      int
	seed   uint64
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s:%s:%d:%d", k.pool, k.params, k.n, k.seed)
}

func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[cacheKey, sample.Sparse](size)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to create pool cache")
	}
	return &Cache{entries: entries}, nil
}

var (
	sharedMu sync.Mutex
	shared   *Cache
)

// Shared returns the process-wide cache, creating it with DefaultCacheSize on
// first use.
func Shared() *Cache {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared, _ = NewCache(DefaultCacheSize)
	}
	return shared
}

// ConfigureCache replaces the shared cache with one of the given size.
func ConfigureCache(size int) error {
	c, err := NewCache(size)
	if err != nil {
		return err
	}
	sharedMu.Lock()
	shared = c
	sharedMu.Unlock()
	return nil
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

// getOrCompute returns the cached efficiency for key or fills it with
// compute. Callers receive their own copy.
func (c *Cache) getOrCompute(key cacheKey, compute func() (sample.Sparse, error)) (sample.Sparse, error) {
	if eff, ok := c.entries.Get(key); ok {
		metrics.CacheHit()
		return eff.Copy(), nil
	}
	metrics.CacheMiss()

	v, err, _ := c.flight.Do(key.String(), func() (interface{}, error) {
		if eff, ok := c.entries.Get(key); ok {
			return eff, nil
		}
		eff, err := compute()
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, eff)
		return eff, nil
	})
	if err != nil {
		return sample.Sparse{}, err
	}
	return v.(sample.Sparse).Copy(), nil
}
