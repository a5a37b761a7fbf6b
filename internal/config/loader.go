package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	defaultCodec           = "plain"
	defaultFileMode        = FileMode(0o640)
	defaultDirMode         = FileMode(0o750)
	defaultKeyCacheSize    = 10000
	defaultReadConcurrency = 8
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	hooks := mapstructure.ComposeDecodeHookFunc(durationDecodeHook(), fileModeDecodeHook())
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hooks)); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	for i := range cfg.Bins {
		applyBinDefaults(&cfg.Bins[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 相对路径以配置文件所在目录为基准，避免依赖启动时的工作目录。
	base := filepath.Dir(path)
	cfg.Global.StorageDir = resolveRelative(base, cfg.Global.StorageDir)
	cfg.Global.PrivatePath = resolveRelative(base, cfg.Global.PrivatePath)
	cfg.Global.PublicPath = resolveRelative(base, cfg.Global.PublicPath)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("StorageDir", "")
	v.SetDefault("PrivatePath", "")
	v.SetDefault("PublicPath", "")
	v.SetDefault("HTAccess", true)
	v.SetDefault("FileMode", "0640")
	v.SetDefault("DirMode", "0750")
	v.SetDefault("KeyCacheSize", defaultKeyCacheSize)
	v.SetDefault("ReadConcurrency", defaultReadConcurrency)
	v.SetDefault("MetricsTextfile", "")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.FileMode == 0 {
		g.FileMode = defaultFileMode
	}
	if g.DirMode == 0 {
		g.DirMode = defaultDirMode
	}
	if g.ReadConcurrency == 0 {
		g.ReadConcurrency = defaultReadConcurrency
	}
}

func applyBinDefaults(b *BinConfig) {
	b.Name = strings.TrimSpace(b.Name)
	b.Codec = strings.ToLower(strings.TrimSpace(b.Codec))
	if b.Codec == "" {
		b.Codec = defaultCodec
	}
}

func resolveRelative(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}

// fileModeDecodeHook 让字符串按八进制解析；整数按字面值使用（TOML 的 0o640 即为整数）。
func fileModeDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(FileMode(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return parseMode(v)
		case int:
			return FileMode(v), nil
		case int64:
			return FileMode(v), nil
		case os.FileMode:
			return FileMode(v), nil
		case FileMode:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 FileMode 类型: %T", v)
		}
	}
}
