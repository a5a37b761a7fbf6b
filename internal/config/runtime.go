package config

import (
	"time"

	"github.com/filecache/filecache/internal/codec"
)

// BinRuntime 将 bin 配置解析为运行时可直接使用的编码器与过期策略。
type BinRuntime struct {
	Config BinConfig
	Codec  codec.Codec
}

// BuildBinRuntime 根据 bin 配置选择编码器（假定 Validate 已经通过）。
func BuildBinRuntime(cfg BinConfig) (BinRuntime, error) {
	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		return BinRuntime{}, newFieldError(binField(cfg.Name, "Codec"), err.Error())
	}
	return BinRuntime{Config: cfg, Codec: c}, nil
}

// ExpireAt 计算写入时的过期时间戳：ttl>0 取 now+ttl，否则沿用 bin 默认 TTL，
// 两者皆为 0 时返回永久。
func (r BinRuntime) ExpireAt(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		ttl = r.Config.DefaultTTL.DurationValue()
	}
	if ttl <= 0 {
		return codec.Permanent
	}
	return now.Add(ttl).Unix()
}
