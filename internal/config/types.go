package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/filecache/filecache/internal/storage"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// FileMode 接受 "0640"/"640" 这类八进制字符串或整数写法。
type FileMode os.FileMode

// UnmarshalText 按八进制解析权限位。
func (m *FileMode) UnmarshalText(text []byte) error {
	parsed, err := parseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Perm 返回 os.FileMode 形式的权限位。
func (m FileMode) Perm() os.FileMode {
	return os.FileMode(m)
}

func parseMode(raw string) (FileMode, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0o"), "0O")
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseUint(raw, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file mode: %s", raw)
	}
	return FileMode(value), nil
}

// GlobalConfig 描述进程级参数，所有 bin 共享同一个存储根目录。
type GlobalConfig struct {
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	StorageDir      string   `mapstructure:"StorageDir"`
	PrivatePath     string   `mapstructure:"PrivatePath"`
	PublicPath      string   `mapstructure:"PublicPath"`
	HTAccess        bool     `mapstructure:"HTAccess"`
	FileMode        FileMode `mapstructure:"FileMode"`
	DirMode         FileMode `mapstructure:"DirMode"`
	KeyCacheSize    int64    `mapstructure:"KeyCacheSize"`
	ReadConcurrency int      `mapstructure:"ReadConcurrency"`
	MetricsTextfile string   `mapstructure:"MetricsTextfile"`
}

// BinConfig 决定单个缓存 bin 的编码方式与默认过期时间。
type BinConfig struct {
	Name       string   `mapstructure:"Name"`
	Codec      string   `mapstructure:"Codec"`
	DefaultTTL Duration `mapstructure:"DefaultTTL"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Bins   []BinConfig  `mapstructure:"Bin"`
}

// Locations 将配置转换为存储根目录的解析输入。
func (g GlobalConfig) Locations() storage.Locations {
	return storage.Locations{
		StorageDir:  g.StorageDir,
		PrivatePath: g.PrivatePath,
		PublicPath:  g.PublicPath,
	}
}

// Bin 返回指定 bin 的配置；未声明的 bin 使用 plain 编码且永不过期。
func (c *Config) Bin(name string) BinConfig {
	for _, bin := range c.Bins {
		if bin.Name == name {
			return bin
		}
	}
	return BinConfig{Name: name, Codec: defaultCodec}
}

// BinNames 返回配置中声明的全部 bin 名称。
func (c *Config) BinNames() []string {
	if len(c.Bins) == 0 {
		return nil
	}
	names := make([]string, len(c.Bins))
	for i, bin := range c.Bins {
		names[i] = bin.Name
	}
	return names
}
