package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/filecache/filecache/internal/codec"
	"github.com/filecache/filecache/internal/storage"
)

const maxMode = FileMode(0o777)

// Validate 针对语义级别做进一步校验，防止非法配置进入缓存引擎。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.FileMode == 0 || g.FileMode > maxMode {
		return newFieldError("Global.FileMode", "必须在 0001-0777")
	}
	if g.DirMode == 0 || g.DirMode > maxMode {
		return newFieldError("Global.DirMode", "必须在 0001-0777")
	}
	if g.DirMode&0o700 != 0o700 {
		return newFieldError("Global.DirMode", "属主必须拥有 rwx 权限")
	}
	if g.KeyCacheSize < 0 {
		return newFieldError("Global.KeyCacheSize", "不能为负数")
	}
	if g.ReadConcurrency < 0 {
		return newFieldError("Global.ReadConcurrency", "不能为负数")
	}

	seenNames := map[string]struct{}{}
	for i := range c.Bins {
		bin := &c.Bins[i]
		if err := storage.ValidateBin(bin.Name); err != nil {
			return fmt.Errorf("%s: %w", binField(bin.Name, "Name"), err)
		}
		if _, exists := seenNames[bin.Name]; exists {
			return newFieldError(binField(bin.Name, "Name"), "重复")
		}
		seenNames[bin.Name] = struct{}{}

		if _, err := codec.ByName(bin.Codec); err != nil {
			return newFieldError(binField(bin.Name, "Codec"), "仅支持 "+strings.Join(codec.Names(), "/"))
		}
		if bin.DefaultTTL.DurationValue() < 0 {
			return newFieldError(binField(bin.Name, "DefaultTTL"), "不能为负数")
		}
	}

	return nil
}
