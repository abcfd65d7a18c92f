package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics инкапсулирует Prometheus-метрики конвейера генерации
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	runs          prometheus.Counter
	cacheHits     prometheus.Counter
	carved        prometheus.Counter
	solid         prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "terrain",
			Name:      "stage_duration_seconds",
			Help:      "Длительность стадий генерации.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terrain",
			Name:      "runs_total",
			Help:      "Общее число прогонов генерации.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terrain",
			Name:      "cache_hits_total",
			Help:      "Прогонов, обслуженных из кеша сеток.",
		}),
		carved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terrain",
			Name:      "voxels_carved_total",
			Help:      "Вокселей, удалённых пещерами и входами.",
		}),
		solid: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "terrain",
			Name:      "solid_voxels",
			Help:      "Заполненных вокселей в последней сетке.",
		}),
	}

	reg.MustRegister(m.stageDuration, m.runs, m.cacheHits, m.carved, m.solid)
	return m
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) observeRun(res *Result) {
	if m == nil {
		return
	}
	m.runs.Inc()
	if res.Cached {
		m.cacheHits.Inc()
	}
	if carved := res.Carved(); carved > 0 {
		m.carved.Add(float64(carved))
	}
	m.solid.Set(float64(res.SolidFinal))
}
