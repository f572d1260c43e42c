package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"feature-rollout/models"
)

// RepoCacheFeature - features by name. Every eviction bumps the generation,
// a fill started before an eviction is dropped.
type RepoCacheFeature struct {
	cache *expirable.LRU[string, models.Feature]

	mu         sync.Mutex
	generation uint64
}

func NewRepoCacheFeature(cache *expirable.LRU[string, models.Feature]) *RepoCacheFeature {
	return &RepoCacheFeature{cache: cache}
}

// NewLRU - features by name, evicted after ttl
func NewLRU(size int, ttl time.Duration) *expirable.LRU[string, models.Feature] {
	return expirable.NewLRU[string, models.Feature](size, nil, ttl)
}

// Generation - take it before reading the row that will fill the cache
func (r *RepoCacheFeature) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

func (r *RepoCacheFeature) AddFeature(feature models.Feature) bool {
	return r.cache.Add(feature.Name, feature)
}

// AddFeatureIfCurrent caches the feature unless something was evicted after generation was taken
func (r *RepoCacheFeature) AddFeatureIfCurrent(feature models.Feature, generation uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != generation {
		return false
	}
	r.cache.Add(feature.Name, feature)
	return true
}

func (r *RepoCacheFeature) RemoveFeature(featureName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	return r.cache.Remove(featureName)
}

func (r *RepoCacheFeature) GetFeatureByName(featureName string) (models.Feature, bool) {
	return r.cache.Get(featureName)
}

func (r *RepoCacheFeature) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.cache.Purge()
}
