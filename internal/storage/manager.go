package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBin 的目录名不带前缀。
	DefaultBin = "cache"

	binPrefix = "cache_"
	rootName  = "filecache"
	// fallbackBase 在私有与公共路径都不存在时使用。
	fallbackBase = "files"
)

// Locations 是解析存储根目录所需的宿主输入。
type Locations struct {
	// StorageDir 设置后优先于其他输入。
	StorageDir  string
	PrivatePath string
	PublicPath  string
}

// Manager 只解析一次存储根目录，并在其下分配各 bin 的 Namespace。
type Manager struct {
	loc    Locations
	prep   Preparer
	logger logrus.FieldLogger

	once sync.Once
	root string
	err  error
}

// NewManager 构建 Manager，首次调用 Root 或 Namespace 前不会访问磁盘。
func NewManager(loc Locations, prep Preparer, logger logrus.FieldLogger) *Manager {
	if prep == nil {
		prep = OSPreparer{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{loc: loc, prep: prep, logger: logger}
}

// Root 返回存储根目录，首次调用时创建并加固；结果（包括失败）只计算一次。
func (m *Manager) Root() (string, error) {
	m.once.Do(func() {
		m.root, m.err = m.resolveRoot()
	})
	return m.root, m.err
}

func (m *Manager) resolveRoot() (string, error) {
	root, private, err := ResolveRoot(m.loc)
	if err != nil {
		return "", err
	}
	if err := m.prep.Prepare(root); err != nil {
		return "", err
	}
	// 不在私有目录下的根目录可能被 Web 服务器直接访问。
	exposed := private == "" || root != filepath.Join(private, rootName)
	if exposed {
		if err := m.prep.Harden(root); err != nil {
			m.logger.WithFields(logrus.Fields{
				"action": "harden_root",
				"path":   root,
			}).Warn(err.Error())
		}
	}
	m.logger.WithFields(logrus.Fields{
		"action":  "resolve_root",
		"path":    root,
		"exposed": exposed,
	}).Debug("storage root ready")
	return root, nil
}

// ResolveRoot 只计算存储根目录而不访问它，同时返回磁盘上存在的私有路径（绝对路径）。
func ResolveRoot(loc Locations) (root, private string, err error) {
	if dir := existingDir(loc.PrivatePath); dir != "" {
		private = dir
	}
	if loc.StorageDir != "" {
		root, err = filepath.Abs(loc.StorageDir)
		if err != nil {
			return "", "", fmt.Errorf("resolve storage dir: %w", err)
		}
		return root, private, nil
	}

	base := private
	if base == "" {
		base = existingDir(loc.PublicPath)
	}
	if base == "" {
		base = fallbackBase
	}
	root, err = filepath.Abs(filepath.Join(base, rootName))
	if err != nil {
		return "", "", fmt.Errorf("resolve storage root: %w", err)
	}
	return root, private, nil
}

// existingDir 在 path 是已存在目录时返回其绝对、去除符号链接的形式。
func existingDir(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return ""
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return ""
	}
	return resolved
}

// DirName 返回 bin 在磁盘上的目录名。
func DirName(bin string) string {
	if bin == DefaultBin {
		return bin
	}
	return binPrefix + bin
}

// ValidateBin 拒绝无法映射为根目录下单个子目录的 bin 名称。
func ValidateBin(bin string) error {
	switch {
	case bin == "":
		return errors.New("bin name required")
	case bin == "." || bin == "..":
		return fmt.Errorf("invalid bin name %q", bin)
	case strings.ContainsAny(bin, `/\`), strings.ContainsRune(bin, 0):
		return fmt.Errorf("bin name %q must not contain path separators", bin)
	}
	return nil
}

// Namespace 解析并创建 bin 对应的目录。
func (m *Manager) Namespace(bin string) (*Namespace, error) {
	if err := ValidateBin(bin); err != nil {
		return nil, err
	}
	root, err := m.Root()
	if err != nil {
		return nil, err
	}
	ns := NewNamespace(bin, filepath.Join(root, DirName(bin)), m.prep)
	if err := ns.Ensure(); err != nil {
		return nil, err
	}
	return ns, nil
}

// Namespace 表示一个 bin 的目录。
type Namespace struct {
	Bin string
	Dir string

	prep Preparer
}

// NewNamespace 将 bin 绑定到指定目录。
func NewNamespace(bin, dir string, prep Preparer) *Namespace {
	if prep == nil {
		prep = OSPreparer{}
	}
	return &Namespace{Bin: bin, Dir: dir, prep: prep}
}

// Ensure 在目录缺失时创建它。
func (n *Namespace) Ensure() error {
	return n.prep.Prepare(n.Dir)
}
