package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Getters(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("store.collection", "detroit"))
	require.NoError(t, store.Set("store.batch_size", int64(100)))
	require.NoError(t, store.Set("convert.pretty", true))
	require.NoError(t, store.Set("analysis.reference_lat", 42.331429))

	assert.Equal(t, "detroit", store.GetString("store.collection"))
	assert.Equal(t, 100, store.GetInt("store.batch_size"))
	assert.True(t, store.GetBool("convert.pretty"))
	assert.InDelta(t, 42.331429, store.GetFloat("analysis.reference_lat"), 1e-9)
	assert.InDelta(t, 100, store.GetFloat("store.batch_size"), 1e-9)
	assert.Equal(t, 42, store.GetInt("analysis.reference_lat"))

	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("store.collection"))
	assert.False(t, store.GetBool("store.collection"))
	assert.Zero(t, store.GetFloat("store.collection"))
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("k", "v"))
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, "v", store.GetString("k"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("store.batch_size", n)
			_ = store.GetInt("store.batch_size")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("store.batch_size")
	assert.True(t, ok)
}
