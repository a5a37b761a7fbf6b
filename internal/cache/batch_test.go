package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecache/filecache/internal/keyenc"
)

func TestGetMultipleReducesKeys(t *testing.T) {
	store := newTestStore(t)
	store.Set("a", []byte("1"), Permanent)
	store.Set("b", []byte("2"), Permanent)

	keys := []string{"a", "missing", "b", "other"}
	found := store.GetMultiple(&keys)

	require.Len(t, found, 2)
	assert.Equal(t, []byte("1"), found["a"].Data)
	assert.Equal(t, []byte("2"), found["b"].Data)
	assert.Equal(t, []string{"missing", "other"}, keys)
}

func TestGetMultipleAllHits(t *testing.T) {
	store := newTestStore(t, withOptions(func(o *Options) { o.ReadConcurrency = 2 }))
	keys := []string{"k1", "k2", "k3", "k4", "k5"}
	for _, key := range keys {
		store.Set(key, []byte(key), Permanent)
	}

	found := store.GetMultiple(&keys)
	assert.Len(t, found, 5)
	assert.Empty(t, keys)
}

func TestGetMultipleEmptyInput(t *testing.T) {
	store := newTestStore(t)
	assert.Empty(t, store.GetMultiple(nil))

	var keys []string
	assert.Empty(t, store.GetMultiple(&keys))
	assert.Empty(t, keys)
}

func TestGetMultipleReportsNothingOnFailure(t *testing.T) {
	store := newTestStore(t, withOptions(func(o *Options) {
		o.Encoder = mappedEncoder{tokens: map[string]string{"broken": "blocker/x"}}
	}))
	store.Set("a", []byte("1"), Permanent)
	// A regular file used as a directory makes the lookup fail outright.
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "blocker"), []byte("x"), 0o600))

	keys := []string{"a", "broken"}
	found := store.GetMultiple(&keys)

	assert.Empty(t, found)
	assert.Equal(t, []string{"a", "broken"}, keys)
}

func TestGetMultipleUsesEncoder(t *testing.T) {
	cached, err := keyenc.NewCached(keyenc.URL{}, 100)
	require.NoError(t, err)
	t.Cleanup(cached.Close)
	store := newTestStore(t, withOptions(func(o *Options) { o.Encoder = cached }))
	store.Set("node:1", []byte("n"), Permanent)

	keys := []string{"node:1"}
	found := store.GetMultiple(&keys)
	require.Contains(t, found, "node:1")
	assert.Equal(t, "node@1", found["node:1"].Key)
}
