package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/filecache/filecache/internal/cache"
	"github.com/filecache/filecache/internal/config"
	"github.com/filecache/filecache/internal/keyenc"
	"github.com/filecache/filecache/internal/logging"
	"github.com/filecache/filecache/internal/storage"
)

// environment 持有一次 CLI 调用共享的配置、日志、存储根目录与指标。
// 同一次调用内的所有操作使用同一个 now，保证过期判断一致。
type environment struct {
	cfg         *config.Config
	configPath  string
	logger      *logrus.Logger
	manager     *storage.Manager
	encoder     keyenc.Encoder
	memo        *keyenc.Cached
	registry    *prometheus.Registry
	metrics     *cache.Metrics
	metricsPath string
	now         time.Time
}

// newEnvironment 遵循“配置 → 日志 → 指标 → 存储根目录”的顺序初始化；
// 存储目录在第一次打开 bin 时才会创建。
func newEnvironment(opts cliOptions) (*environment, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics, err := cache.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("注册指标失败: %w", err)
	}

	env := &environment{
		cfg:         cfg,
		configPath:  opts.configPath,
		logger:      logger,
		encoder:     keyenc.URL{},
		registry:    registry,
		metrics:     metrics,
		metricsPath: opts.metricsPath,
		now:         time.Now(),
	}
	if env.metricsPath == "" {
		env.metricsPath = cfg.Global.MetricsTextfile
	}
	if size := cfg.Global.KeyCacheSize; size > 0 {
		memo, err := keyenc.NewCached(keyenc.URL{}, size)
		if err != nil {
			return nil, fmt.Errorf("初始化 key 缓存失败: %w", err)
		}
		env.memo = memo
		env.encoder = memo
	}

	env.manager = storage.NewManager(cfg.Global.Locations(), storage.OSPreparer{
		DirMode:  cfg.Global.DirMode.Perm(),
		HTAccess: cfg.Global.HTAccess,
	}, logger)
	return env, nil
}

// openStore 打开 bin 对应的缓存实例，编码方式由配置决定。
func (e *environment) openStore(bin string) (*cache.Store, config.BinRuntime, error) {
	rt, err := config.BuildBinRuntime(e.cfg.Bin(bin))
	if err != nil {
		return nil, config.BinRuntime{}, err
	}
	ns, err := e.manager.Namespace(bin)
	if err != nil {
		return nil, config.BinRuntime{}, fmt.Errorf("准备 bin 目录失败: %w", err)
	}
	store, err := cache.New(cache.Options{
		Namespace:       ns,
		Codec:           rt.Codec,
		Encoder:         e.encoder,
		Now:             e.clock,
		FileMode:        e.cfg.Global.FileMode.Perm(),
		ReadConcurrency: e.cfg.Global.ReadConcurrency,
		Logger:          e.logger,
		Metrics:         e.metrics,
	})
	if err != nil {
		return nil, config.BinRuntime{}, err
	}
	return store, rt, nil
}

func (e *environment) clock() time.Time {
	return e.now
}

func (e *environment) writeMetrics() error {
	if e.metricsPath == "" {
		return nil
	}
	return prometheus.WriteToTextfile(e.metricsPath, e.registry)
}

func (e *environment) close() {
	if e.memo != nil {
		e.memo.Close()
	}
}
