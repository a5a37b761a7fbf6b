package cache

import "sync"

// entryLock 在进程内串行化同一 token 的写入，跨进程由 flock 保证。
type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *Store) lockEntry(token string) func() {
	s.mu.Lock()
	lock := s.locks[token]
	if lock == nil {
		lock = &entryLock{}
		s.locks[token] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, token)
		}
		s.mu.Unlock()
	}
}
