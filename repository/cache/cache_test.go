package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feature-rollout/models"
	"feature-rollout/repository/cache"
)

func TestRepoCacheFeature(t *testing.T) {
	t.Parallel()
	c := cache.NewRepoCacheFeature(cache.NewLRU(2, time.Minute))

	search := models.NewFeature("search")
	c.AddFeature(search)

	got, ok := c.GetFeatureByName("search")
	require.True(t, ok)
	assert.Equal(t, search.ID, got.ID)

	assert.True(t, c.RemoveFeature("search"))
	assert.False(t, c.RemoveFeature("search"))
	_, ok = c.GetFeatureByName("search")
	assert.False(t, ok)

	for _, name := range []string{"a", "b", "c"} {
		c.AddFeature(models.NewFeature(name))
	}
	_, ok = c.GetFeatureByName("a")
	assert.False(t, ok, "oldest entry evicted by size")

	c.Purge()
	_, ok = c.GetFeatureByName("c")
	assert.False(t, ok)
}

func TestRepoCacheFeatureExpires(t *testing.T) {
	t.Parallel()
	c := cache.NewRepoCacheFeature(cache.NewLRU(10, 20*time.Millisecond))
	c.AddFeature(models.NewFeature("short-lived"))

	assert.Eventually(t, func() bool {
		_, ok := c.GetFeatureByName("short-lived")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestRepoCacheFeatureDropsFillAfterEviction(t *testing.T) {
	t.Parallel()
	c := cache.NewRepoCacheFeature(cache.NewLRU(10, time.Minute))

	stale := models.NewFeature("counters")
	generation := c.Generation()
	// a writer commits and evicts while the reader still holds the old row
	c.RemoveFeature(stale.Name)
	assert.False(t, c.AddFeatureIfCurrent(stale, generation))
	_, ok := c.GetFeatureByName(stale.Name)
	assert.False(t, ok)

	generation = c.Generation()
	c.Purge()
	assert.False(t, c.AddFeatureIfCurrent(stale, generation))

	generation = c.Generation()
	assert.True(t, c.AddFeatureIfCurrent(stale, generation))
	got, ok := c.GetFeatureByName(stale.Name)
	require.True(t, ok)
	assert.Equal(t, stale.ID, got.ID)
}
