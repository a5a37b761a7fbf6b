package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Preparer 负责目录创建与加固。
type Preparer interface {
	// Prepare 在 dir 缺失时创建它；其他进程并发创建成功不视为错误。
	Prepare(dir string) error
	// Harden 保护可能被 Web 服务器访问到的根目录。
	Harden(dir string) error
}

const htaccessName = ".htaccess"

const htaccessBody = `# Deny all requests from Apache 2.4+.
<IfModule mod_authz_core.c>
  Require all denied
</IfModule>

# Deny all requests from Apache 2.0-2.2.
<IfModule !mod_authz_core.c>
  Deny from all
</IfModule>

Options -Indexes -ExecCGI -Includes
`

// OSPreparer 在本地文件系统上准备目录。
type OSPreparer struct {
	DirMode  os.FileMode
	HTAccess bool
}

// Prepare 实现 Preparer。
func (p OSPreparer) Prepare(dir string) error {
	mode := p.mode()
	if err := os.MkdirAll(dir, mode); err != nil {
		// mkdir 竞争失败时，只要目录已存在即可。
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			return nil
		}
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.Chmod(dir, mode); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("chmod %s: %w", dir, err)
	}
	return nil
}

// Harden 实现 Preparer，在 dir 中写入拒绝全部访问的 .htaccess。
func (p OSPreparer) Harden(dir string) error {
	if !p.HTAccess {
		return nil
	}
	path := filepath.Join(dir, htaccessName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(htaccessBody), 0o444); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (p OSPreparer) mode() os.FileMode {
	if p.DirMode == 0 {
		return 0o750
	}
	return p.DirMode
}
