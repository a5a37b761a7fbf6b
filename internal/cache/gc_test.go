package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGarbageCollectionReclaimsExpired(t *testing.T) {
	clock := newClock()
	store := newTestStore(t, withClock(clock))

	store.Set("old", []byte("1"), clock.now.Add(-time.Second).Unix())
	store.Set("fresh", []byte("2"), clock.now.Add(time.Hour).Unix())
	store.Set("kept", []byte("3"), Permanent)

	store.GarbageCollection()

	assert.NoFileExists(t, store.pathFor("old"))
	assert.NoFileExists(t, store.pathFor("old")+MarkerSuffix)
	assert.FileExists(t, store.pathFor("fresh"))
	assert.FileExists(t, store.pathFor("fresh")+MarkerSuffix)

	for _, key := range []string{"fresh", "kept"} {
		_, ok := store.Get(key)
		assert.True(t, ok, key)
	}
	_, ok := store.Get("old")
	assert.False(t, ok)
}

func TestTemporaryEntriesLiveUntilGarbageCollection(t *testing.T) {
	clock := newClock()
	store := newTestStore(t, withClock(clock))
	store.Set("tmp", []byte("v"), Temporary)

	raw, err := os.ReadFile(store.pathFor("tmp") + MarkerSuffix)
	require.NoError(t, err)
	assert.Equal(t, "-1", string(raw))

	clock.Advance(24 * time.Hour)
	_, ok := store.Get("tmp")
	assert.True(t, ok, "temporary entries are not expired by time")

	store.GarbageCollection()
	_, ok = store.Get("tmp")
	assert.False(t, ok)
	assert.NoFileExists(t, store.pathFor("tmp"))
}

func TestGarbageCollectionRemovesOrphanMarkers(t *testing.T) {
	clock := newClock()
	store := newTestStore(t, withClock(clock))
	store.Set("gone", []byte("v"), clock.now.Add(time.Minute).Unix())
	require.NoError(t, os.Remove(store.pathFor("gone")))

	clock.Advance(2 * time.Minute)
	store.GarbageCollection()

	assert.NoFileExists(t, store.pathFor("gone")+MarkerSuffix)
	assert.True(t, store.IsEmpty())
}

func TestGarbageCollectionRemovesUnexpiredOrphanMarkers(t *testing.T) {
	clock := newClock()
	store := newTestStore(t, withClock(clock))
	store.Set("orphan", []byte("v"), clock.now.Add(time.Hour).Unix())
	store.Set("live", []byte("v"), clock.now.Add(time.Hour).Unix())
	require.NoError(t, os.Remove(store.pathFor("orphan")))

	store.GarbageCollection()

	assert.NoFileExists(t, store.pathFor("orphan")+MarkerSuffix)
	assert.FileExists(t, store.pathFor("live")+MarkerSuffix)
	_, ok := store.Get("live")
	assert.True(t, ok)
}

func TestGarbageCollectionTreatsUnreadableMarkerAsExpired(t *testing.T) {
	store := newTestStore(t)
	store.Set("k", []byte("v"), Permanent)
	require.NoError(t, os.WriteFile(store.pathFor("k")+MarkerSuffix, []byte("not a number"), 0o600))

	store.GarbageCollection()

	assert.NoFileExists(t, store.pathFor("k"))
	assert.NoFileExists(t, store.pathFor("k")+MarkerSuffix)
}

func TestGarbageCollectionSkipsDirectories(t *testing.T) {
	store := newTestStore(t)
	odd := filepath.Join(store.Dir(), "odd"+MarkerSuffix)
	require.NoError(t, os.Mkdir(odd, 0o755))

	store.GarbageCollection()
	assert.DirExists(t, odd)
}

func TestGarbageCollectionMissingDirectory(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.RemoveAll(store.Dir()))

	assert.NotPanics(t, store.GarbageCollection)
	assert.NoDirExists(t, store.Dir())
	assert.True(t, store.IsEmpty())
}

func TestParseMarker(t *testing.T) {
	v, err := parseMarker([]byte("1700000000\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), v)

	v, err = parseMarker([]byte("-1"))
	require.NoError(t, err)
	assert.Equal(t, Temporary, v)

	_, err = parseMarker(nil)
	assert.Error(t, err)
}
