// Package cachemetrics 将 xlru 缓存事件导出为 Prometheus 指标。
package cachemetrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/omeyang/xshortlink/pkg/util/xlru"
)

// Prometheus 实现 [xlru.Metrics]。所有 Prometheus 指标类型都是并发安全的，
// 方法不阻塞，可以在缓存锁内调用。
type Prometheus struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	evicts  *prometheus.CounterVec
	entries prometheus.Gauge
}

// New 创建指标并注册到 reg（nil 使用 prometheus.DefaultRegisterer）。
// 指标名形如 <namespace>_<subsystem>_hits_total。
func New(reg prometheus.Registerer, namespace, subsystem string) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prometheus{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hits_total",
			Help:      "Cache lookups that found a live entry.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "misses_total",
			Help:      "Cache lookups that found nothing or an expired entry.",
		}),
		evicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "evictions_total",
			Help:      "Entries removed by the cache, by reason.",
		}, []string{"reason"}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "entries",
			Help:      "Resident entries, including expired ones not yet observed.",
		}),
	}

	var errs []error
	for _, c := range []prometheus.Collector{p.hits, p.misses, p.evicts, p.entries} {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("cachemetrics: register: %w", errors.Join(errs...))
	}

	// 预先创建所有原因的序列，未发生淘汰时也能看到 0。
	for _, r := range []xlru.EvictReason{xlru.EvictCapacity, xlru.EvictExpired} {
		p.evicts.WithLabelValues(r.String())
	}
	return p, nil
}

func (p *Prometheus) Hit()  { p.hits.Inc() }
func (p *Prometheus) Miss() { p.misses.Inc() }

func (p *Prometheus) Evict(r xlru.EvictReason) {
	p.evicts.WithLabelValues(r.String()).Inc()
}

func (p *Prometheus) Size(entries int) {
	p.entries.Set(float64(entries))
}

var _ xlru.Metrics = (*Prometheus)(nil)
