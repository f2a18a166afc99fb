package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics instruments the chunk pipeline: what was packed versus
// deduplicated, what moved, and how jobs ended. Registered on a
// private registry so tests can build as many instances as they like
// without colliding in the default one.
type Metrics struct {
	registry *prometheus.Registry

	ChunksPacked       prometheus.Counter
	ChunksDeduplicated prometheus.Counter
	BytesPacked        prometheus.Counter
	ChunksTransferred  prometheus.Counter
	BytesTransferred   prometheus.Counter
	ChunksDeadLettered prometheus.Counter
	FilesCompleted     prometheus.Counter
	FilesFailed        prometheus.Counter
	JobDuration        prometheus.Histogram
	UniverseLookups    *prometheus.CounterVec
	TokensIssued       prometheus.Counter
	StreamsServed      prometheus.Counter
}

// NewMetrics builds and registers the metric set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ChunksPacked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbit_chunks_packed_total",
			Help: "Chunks written into orbitpak containers",
		}),
		ChunksDeduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbit_chunks_deduplicated_total",
			Help: "Chunks skipped because the universe index already held them",
		}),
		BytesPacked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbit_bytes_packed_total",
			Help: "Payload bytes appended to containers",
		}),
		ChunksTransferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbit_chunks_transferred_total",
			Help: "Chunks dispatched to a destination and acknowledged",
		}),
		BytesTransferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbit_bytes_transferred_total",
			Help: "Payload bytes delivered to destinations",
		}),
		ChunksDeadLettered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbit_chunks_dead_lettered_total",
			Help: "Chunks that exhausted retries or failed permanently",
		}),
		FilesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbit_files_completed_total",
			Help: "Files transferred and verified clean",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbit_files_failed_total",
			Help: "Files that failed transfer or verification",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orbit_job_duration_seconds",
			Help:    "End-to-end duration of transfer jobs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
		}),
		UniverseLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orbit_universe_lookups_total",
			Help: "Universe index lookups by outcome",
		}, []string{"outcome"}), // hit | miss
		TokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbit_capability_tokens_issued_total",
			Help: "Capability tokens signed by the control plane",
		}),
		StreamsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orbit_p2p_streams_served_total",
			Help: "read_stream requests served by the data plane",
		}),
	}
	reg.MustRegister(
		m.ChunksPacked, m.ChunksDeduplicated, m.BytesPacked,
		m.ChunksTransferred, m.BytesTransferred, m.ChunksDeadLettered,
		m.FilesCompleted, m.FilesFailed, m.JobDuration,
		m.UniverseLookups, m.TokensIssued, m.StreamsServed,
	)
	return m
}

// RecordChunkPacked counts one chunk newly written to a container.
func (m *Metrics) RecordChunkPacked(bytes int) {
	m.ChunksPacked.Inc()
	m.BytesPacked.Add(float64(bytes))
	m.UniverseLookups.WithLabelValues("miss").Inc()
}

// RecordChunkDeduplicated counts one chunk the index already held.
func (m *Metrics) RecordChunkDeduplicated() {
	m.ChunksDeduplicated.Inc()
	m.UniverseLookups.WithLabelValues("hit").Inc()
}

// RecordChunkTransferred counts one delivered chunk.
func (m *Metrics) RecordChunkTransferred(bytes int64) {
	m.ChunksTransferred.Inc()
	m.BytesTransferred.Add(float64(bytes))
}

// RecordFileOutcome counts a file's terminal state.
func (m *Metrics) RecordFileOutcome(ok bool) {
	if ok {
		m.FilesCompleted.Inc()
	} else {
		m.FilesFailed.Inc()
	}
}

// Handler serves this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
