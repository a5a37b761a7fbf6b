package cache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	opGet          = "get"
	opGetMultiple  = "get_multiple"
	opSet          = "set"
	opDelete       = "delete"
	opDeletePrefix = "delete_prefix"
	opFlush        = "flush"
	opGC           = "gc"
	opIsEmpty      = "is_empty"

	resultHit     = "hit"
	resultMiss    = "miss"
	resultCorrupt = "corrupt"
	resultOK      = "ok"
	resultError   = "error"
)

// Metrics 统计缓存操作次数，可在进程内所有 Store 之间共享；nil 时不记录。
type Metrics struct {
	ops       *prometheus.CounterVec
	reclaimed *prometheus.CounterVec
}

// NewMetrics 将指标注册到 reg，同一 registry 重复注册时复用已有 collector。
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filecache",
		Name:      "operations_total",
		Help:      "Cache store operations by bin, operation and result.",
	}, []string{"bin", "op", "result"})
	reclaimed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "filecache",
		Name:      "gc_reclaimed_total",
		Help:      "Expired entries removed by garbage collection.",
	}, []string{"bin"})

	var err error
	if ops, err = register(reg, ops); err != nil {
		return nil, err
	}
	if reclaimed, err = register(reg, reclaimed); err != nil {
		return nil, err
	}
	return &Metrics{ops: ops, reclaimed: reclaimed}, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) observe(bin, op, result string) {
	m.add(bin, op, result, 1)
}

func (m *Metrics) add(bin, op, result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ops.WithLabelValues(bin, op, result).Add(float64(n))
}

func (m *Metrics) reclaimedEntries(bin string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reclaimed.WithLabelValues(bin).Add(float64(n))
}
