package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// GarbageCollection 删除过期标记早于当前时间的条目，以及主文件已不存在的
// 孤立标记。Temporary 条目总会被回收；目录不存在时直接返回。
func (s *Store) GarbageCollection() {
	reclaimed, err := s.collectGarbage()
	if err != nil {
		s.metrics.observe(s.ns.Bin, opGC, resultError)
		s.log(opGC).WithError(err).Debug("garbage collection failed")
		return
	}
	s.metrics.observe(s.ns.Bin, opGC, resultOK)
	s.metrics.reclaimedEntries(s.ns.Bin, reclaimed)
	if reclaimed > 0 {
		s.log(opGC).WithFields(logrus.Fields{"reclaimed": reclaimed}).Debug("expired entries removed")
	}
}

func (s *Store) collectGarbage() (int, error) {
	entries, err := os.ReadDir(s.ns.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	now := s.now().Unix()
	reclaimed := 0
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !strings.HasSuffix(name, MarkerSuffix) {
			continue
		}
		marker := filepath.Join(s.ns.Dir, name)
		primary := strings.TrimSuffix(marker, MarkerSuffix)
		if _, err := os.Lstat(primary); errors.Is(err, fs.ErrNotExist) {
			// Set 先写主文件再写标记，孤立标记不会属于进行中的写入。
			if err := removeFile(marker); err != nil {
				s.log(opGC).WithError(err).Debug("orphan marker not removed")
			}
			continue
		}
		expire, ok := readMarker(marker)
		if !ok || expire >= now {
			continue
		}
		// 其他进程可能同时回收同一条目，两次删除都容忍文件已不存在。
		if err := removeFile(marker); err != nil {
			s.log(opGC).WithError(err).Debug("marker not removed")
		}
		if err := removeFile(primary); err != nil {
			s.log(opGC).WithError(err).Debug("expired entry not removed")
			continue
		}
		reclaimed++
	}
	return reclaimed, nil
}

// readMarker 读取标记中的过期时间。标记消失或无法读取时 ok 为 false；
// 加共享锁重读后仍无法解析的标记视为已过期。
func readMarker(path string) (expire int64, ok bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	if v, err := parseMarker(raw); err == nil {
		return v, true
	}
	// 无锁读取解析失败通常意味着写入尚未完成。
	raw, err = readShared(path)
	if err != nil {
		return 0, false
	}
	if v, err := parseMarker(raw); err == nil {
		return v, true
	}
	return Temporary, true
}

func parseMarker(raw []byte) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
}
