package keyenc

import (
	"errors"

	"github.com/dgraph-io/ristretto/v2"
)

// Cached 使用进程内 ristretto 缓存记住 Encode 结果。token 只由 key 决定，
// 缓存结果不会过期失效。
type Cached struct {
	next Encoder
	rc   *ristretto.Cache[string, string]
}

// NewCached 包装 next，最多缓存 size 个 token。
func NewCached(next Encoder, size int64) (*Cached, error) {
	if next == nil {
		return nil, errors.New("encoder required")
	}
	if size <= 0 {
		return nil, errors.New("memo size must be positive")
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters:        size * 10,
		MaxCost:            size,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, rc: rc}, nil
}

// Encode 实现 Encoder。
func (c *Cached) Encode(key string) string {
	if token, ok := c.rc.Get(key); ok {
		return token
	}
	token := c.next.Encode(key)
	c.rc.Set(key, token, 1)
	return token
}

// EncodePrefix 实现 Encoder。前缀扫描很少发生，不经过缓存。
func (c *Cached) EncodePrefix(prefix string) string {
	return c.next.EncodePrefix(prefix)
}

// Literal 实现 Encoder。
func (c *Cached) Literal(token string) string {
	return c.next.Literal(token)
}

// Close 释放 ristretto 的后台 goroutine。
func (c *Cached) Close() {
	c.rc.Close()
}
