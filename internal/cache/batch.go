package cache

import (
	"errors"

	"golang.org/x/sync/errgroup"
)

// GetMultiple 查询 *keys 中的全部 key，按 key 返回命中结果。返回后 *keys 只保留
// 未命中的 key，调用方可只向后端补取这些数据。任何非未命中的失败都会使整批
// 结果为空，且 *keys 保持不变。
func (s *Store) GetMultiple(keys *[]string) map[string]*Entry {
	found := make(map[string]*Entry)
	if keys == nil || len(*keys) == 0 {
		return found
	}

	entries, err := s.lookupAll(*keys)
	if err != nil {
		s.metrics.add(s.ns.Bin, opGet, resultError, len(*keys))
		s.log(opGetMultiple).WithError(err).Debug("cache batch read failed")
		return found
	}

	misses := make([]string, 0, len(*keys))
	for i, key := range *keys {
		if entries[i] == nil {
			misses = append(misses, key)
			continue
		}
		found[key] = entries[i]
	}
	s.metrics.add(s.ns.Bin, opGet, resultHit, len(*keys)-len(misses))
	s.metrics.add(s.ns.Bin, opGet, resultMiss, len(misses))

	*keys = misses
	return found
}

// lookupAll 以受限并发读取 keys，未命中的位置保持 nil。
func (s *Store) lookupAll(keys []string) ([]*Entry, error) {
	entries := make([]*Entry, len(keys))

	var g errgroup.Group
	g.SetLimit(s.readConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			entry, err := s.lookup(key)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return nil
				}
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
