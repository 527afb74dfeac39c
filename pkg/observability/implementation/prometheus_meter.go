package implementation

import (
	"errors"
	"time"

	"github.com/jt828/ollyllm-go/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
)

type prometheusMeter struct {
	registry *prometheus.Registry
}

func NewPrometheusMeter() observability.Meter {
	return &prometheusMeter{
		registry: prometheus.NewRegistry(),
	}
}

func NewPrometheusMeterWithRegistry(reg *prometheus.Registry) observability.Meter {
	return &prometheusMeter{registry: reg}
}

func (m *prometheusMeter) Registry() *prometheus.Registry {
	return m.registry
}

func PromRegistry(m observability.Meter) *prometheus.Registry {
	if pm, ok := m.(*prometheusMeter); ok {
		return pm.Registry()
	}
	return nil
}

// -------------------- Counter --------------------

type promCounter struct {
	vec *prometheus.CounterVec
}

func (m *prometheusMeter) Counter(name string, opts ...observability.MetricOpt) observability.Counter {
	opt := firstOpt(opts)
	labelKeys := opt.LabelKeys

	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        name,
			Help:        opt.Help,
			ConstLabels: toPromConstLabels(opt.ConstLabels),
		},
		labelKeys,
	)

	return &promCounter{vec: register(m.registry, vec)}
}

func (c *promCounter) Inc(v float64, labels ...observability.Label) {
	if len(labels) == 0 {
		c.vec.WithLabelValues().Add(v)
		return
	}
	c.vec.With(toPromLabelsMap(labels)).Add(v)
}

// -------------------- Histogram --------------------

type promHistogram struct {
	vec *prometheus.HistogramVec
}

func (m *prometheusMeter) Histogram(name string, opts ...observability.MetricOpt) observability.Histogram {
	opt := firstOpt(opts)
	labelKeys := opt.LabelKeys

	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        name,
			Help:        opt.Help,
			Buckets:     opt.Buckets,
			ConstLabels: toPromConstLabels(opt.ConstLabels),
		},
		labelKeys,
	)

	return &promHistogram{vec: register(m.registry, vec)}
}

func (h *promHistogram) Observe(v float64, labels ...observability.Label) {
	if len(labels) == 0 {
		h.vec.WithLabelValues().Observe(v)
		return
	}
	h.vec.With(toPromLabelsMap(labels)).Observe(v)
}

// -------------------- Gauge --------------------

type promGauge struct {
	vec *prometheus.GaugeVec
}

func (m *prometheusMeter) Gauge(name string, opts ...observability.MetricOpt) observability.Gauge {
	opt := firstOpt(opts)
	labelKeys := opt.LabelKeys

	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        name,
			Help:        opt.Help,
			ConstLabels: toPromConstLabels(opt.ConstLabels),
		},
		labelKeys,
	)

	return &promGauge{vec: register(m.registry, vec)}
}

func (g *promGauge) Set(v float64, labels ...observability.Label) {
	if len(labels) == 0 {
		g.vec.WithLabelValues().Set(v)
		return
	}
	g.vec.With(toPromLabelsMap(labels)).Set(v)
}

func (g *promGauge) Add(v float64, labels ...observability.Label) {
	if len(labels) == 0 {
		g.vec.WithLabelValues().Add(v)
		return
	}
	g.vec.With(toPromLabelsMap(labels)).Add(v)
}

// -------------------- Timer --------------------

type promTimer struct {
	histogram *prometheus.HistogramVec
}

func (m *prometheusMeter) Timer(name string, opts ...observability.MetricOpt) observability.Timer {
	opt := firstOpt(opts)
	labelKeys := opt.LabelKeys

	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        name,
			Help:        opt.Help,
			Buckets:     opt.Buckets,
			ConstLabels: toPromConstLabels(opt.ConstLabels),
		},
		labelKeys,
	)

	return &promTimer{histogram: register(m.registry, vec)}
}

func (t *promTimer) Start(labels ...observability.Label) func() {
	start := time.Now()
	return func() {
		t.histogram.With(toPromLabelsMap(labels)).Observe(time.Since(start).Seconds())
	}
}

// -------------------- Helpers --------------------

// register returns the collector already registered under the same name when
// there is one, so meters shared between sessions hand out the same vector.
func register[C prometheus.Collector](reg *prometheus.Registry, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func firstOpt(opts []observability.MetricOpt) observability.MetricOpt {
	if len(opts) == 0 {
		return observability.MetricOpt{}
	}
	return opts[0]
}

func toPromLabelsMap(labels []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		m[l.Key] = l.Value
	}
	return m
}

func toPromConstLabels(labels []observability.Label) prometheus.Labels {
	return toPromLabelsMap(labels)
}
