package storages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecogroup/ecgsite/db/kvdb/impls/memory"
)

func TestCatalogueCache(t *testing.T) {
	ctx := context.Background()
	files := newMemStore("avk-gaz.pdf")
	kv := memory.New()
	cache := &CatalogueCache{KV: kv, Files: files, Key: "ecg_catalogues"}

	list, err := cache.Get(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "AVK Gaz", list[0].Name)

	raw, found, err := kv.Get(ctx, "ecg_catalogues")
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, raw, "AVK Gaz")

	// served from the cache until invalidated
	files.objects[BucketCatalogues+"/tis.pdf"] = "%PDF"
	list, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	cache.Invalidate(ctx)
	list, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCatalogueCacheDiscardsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, "k", "{not json", 0))
	cache := &CatalogueCache{KV: kv, Key: "k"}
	list, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, SampleCatalogues(), list)
}
