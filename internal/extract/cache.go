package extract

import (
	"context"
	"crypto/md5"
	"fmt"

	"github.com/glimpse-app/glimpse/internal/logger"
	"github.com/glimpse-app/glimpse/pkg/models"
)

const defaultCacheEntries = 1000

// Cache is a bounded map from transcript-content hash to extracted items.
// When full, an arbitrary existing entry is evicted before insert (map
// iteration order, not LRU). Not safe for concurrent use; callers serialize.
type Cache struct {
	entries    map[string][]models.ActionItem
	maxEntries int
}

// NewCache creates a cache holding at most maxEntries results.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	return &Cache{
		entries:    make(map[string][]models.ActionItem, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns the cached items for a transcript hash.
func (c *Cache) Get(hash string) ([]models.ActionItem, bool) {
	items, ok := c.entries[hash]
	return items, ok
}

// Set stores items for a transcript hash, evicting an arbitrary entry first
// when at capacity.
func (c *Cache) Set(hash string, items []models.ActionItem) {
	if _, exists := c.entries[hash]; !exists && len(c.entries) >= c.maxEntries {
		for key := range c.entries {
			delete(c.entries, key)
			break
		}
	}
	c.entries[hash] = items
}

// Contains reports whether a transcript hash has been processed.
func (c *Cache) Contains(hash string) bool {
	_, ok := c.entries[hash]
	return ok
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.entries = make(map[string][]models.ActionItem, c.maxEntries)
}

// HashTranscript returns the cache key for transcript content.
func HashTranscript(transcript string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(transcript)))
}

// ExtractCached extracts action items with caching: a cache hit returns the
// stored result without touching the backend, even if a different backend
// would now produce different output.
func (e *Extractor) ExtractCached(ctx context.Context, transcript string, source models.ActionItemSource, sourceID string, cache *Cache) ([]models.ActionItem, error) {
	hash := HashTranscript(transcript)

	if cached, ok := cache.Get(hash); ok {
		logger.L().Debug("Returning cached action items for transcript", "hash", hash)
		return cached, nil
	}

	items, err := e.Extract(ctx, transcript, source, sourceID)
	if err != nil {
		return nil, err
	}

	cache.Set(hash, items)
	return items, nil
}
