package cache

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/filecache/filecache/internal/keyenc"
	"github.com/filecache/filecache/internal/storage"
)

// testClock is a request clock tests can move.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

type option func(*Options)

func withClock(c *testClock) option {
	return func(o *Options) { o.Now = c.Now }
}

func withOptions(fn func(*Options)) option {
	return option(fn)
}

// newTestStore returns a Store over a fresh namespace directory.
func newTestStore(t *testing.T, opts ...option) *Store {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "cache_test")
	ns := storage.NewNamespace("test", dir, storage.OSPreparer{})
	require.NoError(t, ns.Ensure())

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	o := Options{Namespace: ns, Logger: logger}
	for _, opt := range opts {
		opt(&o)
	}
	store, err := New(o)
	require.NoError(t, err)
	return store
}

// siblingStore opens a second Store over the same directory, the way another
// process would.
func siblingStore(t *testing.T, s *Store) *Store {
	t.Helper()
	other, err := New(Options{
		Namespace: s.ns,
		Codec:     s.codec,
		Now:       s.now,
		Logger:    s.logger,
	})
	require.NoError(t, err)
	return other
}

func (s *Store) pathFor(key string) string {
	return s.primaryPath(keyenc.Encode(key))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mappedEncoder pins selected keys to hand-picked tokens.
type mappedEncoder struct {
	keyenc.URL
	tokens map[string]string
}

func (m mappedEncoder) Encode(key string) string {
	if token, ok := m.tokens[key]; ok {
		return token
	}
	return m.URL.Encode(key)
}

func corruptFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte{0xc1, 0xc1, 0xc1}, 0o600))
}
