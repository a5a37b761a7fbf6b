package cache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/filecache/filecache/internal/codec"
	"github.com/filecache/filecache/internal/keyenc"
	"github.com/filecache/filecache/internal/logging"
	"github.com/filecache/filecache/internal/storage"
)

// ErrNotFound 是内部使用的未命中错误，公开方法以 ok=false 体现。
var ErrNotFound = errors.New("cache entry not found")

// MarkerSuffix 追加在主文件名之后，构成过期标记文件名。
const MarkerSuffix = ".expire"

// Entry 是解码后的缓存记录。
type Entry = codec.Entry

// Set 可接受的特殊过期值。
const (
	Permanent = codec.Permanent
	Temporary = codec.Temporary
)

const (
	defaultFileMode        os.FileMode = 0o640
	defaultReadConcurrency             = 8
)

// Options 为 Store 注入 bin 目录与协作组件，只有 Namespace 必填。
type Options struct {
	Namespace *storage.Namespace
	// Codec 默认为 codec.Plain。
	Codec   codec.Codec
	Encoder keyenc.Encoder
	// Now 是请求级时钟，用于写入时间与过期判断。
	Now             func() time.Time
	FileMode        os.FileMode
	ReadConcurrency int
	Logger          logrus.FieldLogger
	Metrics         *Metrics
}

// Store 在单个 bin 目录上提供 get/set/delete。
type Store struct {
	ns              *storage.Namespace
	codec           codec.Codec
	keys            keyenc.Encoder
	now             func() time.Time
	fileMode        os.FileMode
	readConcurrency int
	logger          logrus.FieldLogger
	metrics         *Metrics

	mu    sync.Mutex
	locks map[string]*entryLock
}

// New 构建 Store。要求 bin 目录已存在；目录消失后由 Flush 与 Set 通过
// Namespace 重建。
func New(opts Options) (*Store, error) {
	if opts.Namespace == nil {
		return nil, errors.New("namespace required")
	}
	if opts.Namespace.Dir == "" {
		return nil, errors.New("namespace directory required")
	}
	s := &Store{
		ns:              opts.Namespace,
		codec:           opts.Codec,
		keys:            opts.Encoder,
		now:             opts.Now,
		fileMode:        opts.FileMode,
		readConcurrency: opts.ReadConcurrency,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		locks:           make(map[string]*entryLock),
	}
	if s.codec == nil {
		s.codec = codec.Plain{}
	}
	if s.keys == nil {
		s.keys = keyenc.URL{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.fileMode == 0 {
		s.fileMode = defaultFileMode
	}
	if s.readConcurrency <= 0 {
		s.readConcurrency = defaultReadConcurrency
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	return s, nil
}

// Bin 返回 bin 名称。
func (s *Store) Bin() string { return s.ns.Bin }

// Dir 返回 bin 目录。
func (s *Store) Dir() string { return s.ns.Dir }

// Get 返回 key 对应的条目；不存在、已过期或损坏均视为未命中。
func (s *Store) Get(key string) (*Entry, bool) {
	entry, err := s.lookup(key)
	switch {
	case err == nil:
		s.metrics.observe(s.ns.Bin, opGet, resultHit)
		return entry, true
	case errors.Is(err, ErrNotFound):
		s.metrics.observe(s.ns.Bin, opGet, resultMiss)
	default:
		s.metrics.observe(s.ns.Bin, opGet, resultError)
		s.log(opGet).WithError(err).Debug("cache read failed")
	}
	return nil, false
}

func (s *Store) lookup(key string) (*Entry, error) {
	path := s.primaryPath(s.keys.Encode(key))

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	entry, err := s.codec.Decode(raw)
	if err != nil {
		// 多半是写入进行中，加共享锁等待其完成。
		entry, err = s.lookupLocked(path)
		if err != nil {
			return nil, err
		}
	}
	if entry.Expired(s.now().Unix()) {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (s *Store) lookupLocked(path string) (*Entry, error) {
	raw, err := readShared(path)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		// 写入方已创建文件但尚未拿到锁。
		return nil, ErrNotFound
	}
	entry, err := s.codec.Decode(raw)
	if err != nil {
		s.metrics.observe(s.ns.Bin, opGet, resultCorrupt)
		s.log(opGet).WithFields(logrus.Fields{
			"path":  path,
			"error": err.Error(),
		}).Info("removing corrupt cache entry")
		if rmErr := removeFile(path); rmErr != nil {
			s.log(opGet).WithError(rmErr).Debug("corrupt entry not removed")
		}
		return nil, ErrNotFound
	}
	return entry, nil
}

// Set 将 data 写入 key。expire 取 Permanent、Temporary 或 Unix 时间戳；
// 失败只记录日志，不返回错误。
func (s *Store) Set(key string, data []byte, expire int64) {
	if err := s.set(key, data, expire); err != nil {
		s.metrics.observe(s.ns.Bin, opSet, resultError)
		s.log(opSet).WithError(err).Debug("cache write skipped")
		return
	}
	s.metrics.observe(s.ns.Bin, opSet, resultOK)
}

func (s *Store) set(key string, data []byte, expire int64) error {
	token := s.keys.Encode(key)
	raw, err := s.codec.Encode(&Entry{
		Key:     token,
		Created: s.now().Unix(),
		Expire:  expire,
		Data:    data,
	})
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	unlock := s.lockEntry(token)
	defer unlock()

	path := s.primaryPath(token)
	if err := s.writeLocked(path, raw); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		// 目录已被其他进程 flush 移走。
		if err := s.ns.Ensure(); err != nil {
			return err
		}
		if err := s.writeLocked(path, raw); err != nil {
			return err
		}
	}

	marker := path + MarkerSuffix
	if expire == Permanent {
		return removeFile(marker)
	}
	return s.writeLocked(marker, []byte(strconv.FormatInt(expire, 10)))
}

// writeLocked 在排他锁内覆盖 path 的内容，加锁读取方只会看到完整的新旧内容之一。
func (s *Store) writeLocked(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, s.fileMode)
	if err != nil {
		return err
	}
	if err := lockExclusive(f); err != nil {
		f.Close()
		return fmt.Errorf("lock %s: %w", path, err)
	}

	err = f.Truncate(0)
	if err == nil {
		_, err = f.Write(data)
	}
	if err == nil {
		err = f.Chmod(s.fileMode)
	}
	// 关闭文件即释放锁。
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// readShared 在共享锁内读取 path。
func readShared(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()

	if err := lockShared(f); err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	raw, err := io.ReadAll(f)
	if unlockErr := unlockFile(f); err == nil && unlockErr != nil {
		err = fmt.Errorf("unlock %s: %w", path, unlockErr)
	}
	return raw, err
}

// Delete 删除一个或多个 key。
func (s *Store) Delete(keys ...string) {
	s.DeleteMultiple(keys)
}

// DeleteMultiple 删除每个 key 的主文件与过期标记，key 不存在时忽略。
func (s *Store) DeleteMultiple(keys []string) {
	for _, key := range keys {
		token := s.keys.Encode(key)
		unlock := s.lockEntry(token)
		path := s.primaryPath(token)
		for _, p := range []string{path, path + MarkerSuffix} {
			if err := removeFile(p); err != nil {
				s.log(opDelete).WithError(err).Debug("cache delete skipped")
			}
		}
		unlock()
	}
	s.metrics.add(s.ns.Bin, opDelete, resultOK, len(keys))
}

func (s *Store) primaryPath(token string) string {
	return filepath.Join(s.ns.Dir, token+s.codec.Suffix())
}

func (s *Store) log(op string) logrus.FieldLogger {
	return s.logger.WithFields(logging.StoreFields(s.ns.Bin, op))
}

// removeFile 删除 path，文件本就不存在时视为成功。
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
