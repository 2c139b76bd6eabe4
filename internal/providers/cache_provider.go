package providers

import (
	"ponudaplus/internal/structures"
	"strings"
	"unsafe"

	"github.com/coocood/freecache"
)

const documentKeyPrefix = "doc:"

// freecache refuses entries larger than 1/1024 of the cache.
const freecacheEntryRatio = 1024

type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Del(key string)
}

// DocumentCacheKey is the cache key of one stored document.
func DocumentCacheKey(collectionID, documentID string) string {
	return documentKeyPrefix + collectionID + ":" + documentID
}

// cacheKeyCollection returns the collection part of a document key, or "other".
func cacheKeyCollection(key string) string {
	rest, ok := strings.CutPrefix(key, documentKeyPrefix)
	if !ok {
		return "other"
	}
	collection, _, ok := strings.Cut(rest, ":")
	if !ok || collection == "" {
		return "other"
	}
	return collection
}

type CacheProvider struct {
	cache    *freecache.Cache
	ttl      int
	maxEntry int
	logger   Logger
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Cache disabled")
		return &noopCache{}
	}

	sizeBytes := conf.Cache.Size * 1024 * 1024
	ttl := max(int(conf.Cache.TTL.Seconds()), 1)
	maxEntry := sizeBytes / freecacheEntryRatio

	logger.Infof(TypeApp, "Document cache initialized: %dMB, TTL=%ds, largest document %dKB", conf.Cache.Size, ttl, maxEntry/1024)

	return &CacheProvider{
		cache:    freecache.NewCache(sizeBytes),
		ttl:      ttl,
		maxEntry: maxEntry,
		logger:   logger,
	}
}

// unsafeStringToBytes converts string to []byte without allocation.
// Safe when the result is only read (not modified), which is the case
// for freecache, which copies keys internally.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(unsafeStringToBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set stores a serialized document. Documents too large for the cache are skipped
// and an older copy under the same key is dropped.
func (c *CacheProvider) Set(key string, value []byte) {
	if len(key)+len(value) > c.maxEntry {
		c.cache.Del(unsafeStringToBytes(key))
		c.logger.Debugf(TypeApp, "Document %s is %d bytes, too large to cache", key, len(value))
		return
	}
	if err := c.cache.Set(unsafeStringToBytes(key), value, c.ttl); err != nil {
		c.logger.Debugf(TypeApp, "Caching %s failed: %v", key, err)
	}
}

func (c *CacheProvider) Del(key string) {
	c.cache.Del(unsafeStringToBytes(key))
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
func (n *noopCache) Del(_ string)                {}
