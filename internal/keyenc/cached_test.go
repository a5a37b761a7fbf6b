package keyenc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEncoder struct {
	URL
	calls int
}

func (c *countingEncoder) Encode(key string) string {
	c.calls++
	return c.URL.Encode(key)
}

func TestCachedMatchesUnderlying(t *testing.T) {
	cached, err := NewCached(URL{}, 100)
	require.NoError(t, err)
	t.Cleanup(cached.Close)

	keys := []string{"user:1", "menu/main", "", "..", strings.Repeat("z", 300)}
	for _, key := range keys {
		assert.Equal(t, Encode(key), cached.Encode(key))
		assert.Equal(t, Encode(key), cached.Encode(key))
	}
	assert.Equal(t, EncodePrefix("user:"), cached.EncodePrefix("user:"))
}

func TestCachedServesRepeatsFromMemo(t *testing.T) {
	next := &countingEncoder{}
	cached, err := NewCached(next, 100)
	require.NoError(t, err)
	t.Cleanup(cached.Close)

	first := cached.Encode("user:1")
	// ristretto applies sets asynchronously.
	cached.rc.Wait()
	second := cached.Encode("user:1")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
}

func TestNewCachedRejectsBadArguments(t *testing.T) {
	_, err := NewCached(nil, 10)
	assert.Error(t, err)
	_, err = NewCached(URL{}, 0)
	assert.Error(t, err)
}
