package store

import (
	"bytes"
	"context"
	"ponudaplus/internal/models"
	"ponudaplus/internal/providers"

	json "github.com/goccy/go-json"
)

// CachedStore serves repeated Get calls from the shared freecache. Writes drop the
// cached copy. Documents changed by other clients of the backend stay stale until
// the TTL runs out, so readers that need the current state use WithFreshReads.
type CachedStore struct {
	inner DocumentStore
	cache providers.CacheProviderInterface
}

func NewCachedStore(inner DocumentStore, cache providers.CacheProviderInterface) *CachedStore {
	return &CachedStore{inner: inner, cache: cache}
}

type freshReadsKey struct{}

// WithFreshReads marks ctx so that CachedStore reads through to the backend.
// The fresh copy still refreshes the cache.
func WithFreshReads(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshReadsKey{}, true)
}

func freshReads(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshReadsKey{}).(bool)
	return fresh
}

func cacheKey(collectionID, documentID string) string {
	return providers.DocumentCacheKey(collectionID, documentID)
}

func (c *CachedStore) List(ctx context.Context, collectionID string, opts ListOptions) ([]models.Document, error) {
	return c.inner.List(ctx, collectionID, opts)
}

func (c *CachedStore) Get(ctx context.Context, collectionID, documentID string) (models.Document, error) {
	key := cacheKey(collectionID, documentID)
	if freshReads(ctx) {
		c.cache.Del(key)
	} else if raw, ok := c.cache.Get(key); ok {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var doc models.Document
		if err := dec.Decode(&doc); err == nil {
			return doc, nil
		}
		c.cache.Del(key)
	}

	doc, err := c.inner.Get(ctx, collectionID, documentID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(doc); err == nil {
		c.cache.Set(key, raw)
	}
	return doc, nil
}

func (c *CachedStore) Create(ctx context.Context, collectionID, documentID string, fields models.Document) (models.Document, error) {
	doc, err := c.inner.Create(ctx, collectionID, documentID, fields)
	if err == nil {
		documentID = doc.ID()
	}
	if documentID != "" {
		c.cache.Del(cacheKey(collectionID, documentID))
	}
	return doc, err
}

func (c *CachedStore) Update(ctx context.Context, collectionID, documentID string, fields models.Document) (models.Document, error) {
	defer c.cache.Del(cacheKey(collectionID, documentID))
	return c.inner.Update(ctx, collectionID, documentID, fields)
}

func (c *CachedStore) Delete(ctx context.Context, collectionID, documentID string) error {
	defer c.cache.Del(cacheKey(collectionID, documentID))
	return c.inner.Delete(ctx, collectionID, documentID)
}
