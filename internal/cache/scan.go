package cache

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DeletePrefix 删除 token 以编码后 prefix 开头的全部主文件，按文件名做字面量
// 前缀比较。遗留的过期标记交给 GarbageCollection 回收。
func (s *Store) DeletePrefix(prefix string) {
	want := s.keys.EncodePrefix(prefix)

	entries, err := os.ReadDir(s.ns.Dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log(opDeletePrefix).WithError(err).Debug("cache scan failed")
		}
		return
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !s.isPrimary(name) {
			continue
		}
		token := s.keys.Literal(strings.TrimSuffix(name, s.codec.Suffix()))
		if !strings.HasPrefix(token, want) {
			continue
		}
		if err := removeFile(filepath.Join(s.ns.Dir, name)); err != nil {
			s.log(opDeletePrefix).WithError(err).Debug("cache delete skipped")
			continue
		}
		removed++
	}
	s.metrics.add(s.ns.Bin, opDeletePrefix, resultOK, removed)
	s.log(opDeletePrefix).WithFields(logrus.Fields{
		"prefix":  prefix,
		"removed": removed,
	}).Debug("cache prefix deleted")
}

func (s *Store) isPrimary(name string) bool {
	return !strings.HasSuffix(name, MarkerSuffix) && strings.HasSuffix(name, s.codec.Suffix())
}

// Flush 清空 bin，并保留一个空目录。
func (s *Store) Flush() {
	if err := s.flush(); err != nil {
		s.metrics.observe(s.ns.Bin, opFlush, resultError)
		s.log(opFlush).WithError(err).Debug("cache flush failed")
		return
	}
	s.metrics.observe(s.ns.Bin, opFlush, resultOK)
}

func (s *Store) flush() error {
	dir := s.ns.Dir
	// 先整体改名移走，bin 立即变空；删除旧目录期间的新写入落在新目录。
	trash := filepath.Join(filepath.Dir(dir), "."+filepath.Base(dir)+".flush-"+uuid.NewString())

	moved := false
	switch err := os.Rename(dir, trash); {
	case err == nil:
		moved = true
	case errors.Is(err, fs.ErrNotExist):
	default:
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}

	ensureErr := s.ns.Ensure()
	if moved {
		if err := os.RemoveAll(trash); err != nil {
			s.log(opFlush).WithFields(logrus.Fields{
				"path":  trash,
				"error": err.Error(),
			}).Warn("flushed directory not fully removed")
		}
	}
	return ensureErr
}

// IsEmpty 先执行垃圾回收，再判断 bin 目录中是否还有任何文件。
func (s *Store) IsEmpty() bool {
	s.GarbageCollection()

	f, err := os.Open(s.ns.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true
		}
		s.log(opIsEmpty).WithError(err).Debug("cache directory unreadable")
		return false
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if err != nil && !errors.Is(err, io.EOF) {
		s.log(opIsEmpty).WithError(err).Debug("cache directory unreadable")
		return false
	}
	return len(names) == 0
}
