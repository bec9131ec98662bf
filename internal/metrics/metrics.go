package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voxelcore/internal/profiling"
)

// Metrics holds the engine's Prometheus collectors. Each instance owns its registry so
// several engines (and tests) can coexist in one process.
type Metrics struct {
	reg *prometheus.Registry

	ChunksBuilt    prometheus.Counter
	EmptyChunks    prometheus.Counter
	BuildErrors    prometheus.Counter
	BorderChanges  *prometheus.CounterVec
	Requeued       prometheus.Counter
	Triangles      prometheus.Histogram
	BuildDuration  prometheus.Histogram
	LightPasses    prometheus.Histogram
	QueueLength    prometheus.Gauge
	LoadedChunks   prometheus.Gauge
	ActiveEmitters prometheus.Gauge
}

// New creates and registers the collectors, plus the profiling summary.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		ChunksBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelcore",
			Name:      "chunks_built_total",
			Help:      "Chunk builds completed (buffer, light and mesh).",
		}),
		EmptyChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelcore",
			Name:      "chunks_empty_total",
			Help:      "Chunk builds that produced no geometry.",
		}),
		BuildErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelcore",
			Name:      "chunk_build_errors_total",
			Help:      "Chunk builds that failed.",
		}),
		BorderChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxelcore",
			Name:      "light_border_changes_total",
			Help:      "Published light border planes that changed, by face.",
		}, []string{"face"}),
		Requeued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelcore",
			Name:      "chunks_requeued_total",
			Help:      "Neighbor rebuilds scheduled because a border changed.",
		}),
		Triangles: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelcore",
			Name:      "chunk_triangles",
			Help:      "Triangles emitted per chunk mesh.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelcore",
			Name:      "chunk_build_duration_seconds",
			Help:      "Wall time of one chunk build.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		LightPasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelcore",
			Name:      "light_relaxation_passes",
			Help:      "Relaxation sweeps until the light field stopped changing.",
			Buckets:   prometheus.LinearBuckets(1, 2, 9),
		}),
		QueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelcore",
			Name:      "build_queue_length",
			Help:      "Jobs waiting in the build queue.",
		}),
		LoadedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelcore",
			Name:      "chunks_loaded",
			Help:      "Chunk buffers resident in the store.",
		}),
		ActiveEmitters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelcore",
			Name:      "dynamic_emitters",
			Help:      "Dynamic lights and beacons registered in the lighting store.",
		}),
	}
	m.reg.MustRegister(
		m.ChunksBuilt, m.EmptyChunks, m.BuildErrors, m.BorderChanges, m.Requeued,
		m.Triangles, m.BuildDuration, m.LightPasses, m.QueueLength, m.LoadedChunks,
		m.ActiveEmitters, profiling.Collector(),
	)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
