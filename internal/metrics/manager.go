// Package metrics holds the Prometheus instruments for sessions, frames and
// HTTP requests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Frame results recorded on CounterFrames.
const (
	FrameCounted   = "counted"
	FrameNoPose    = "no_pose"
	FrameEstimator = "estimator_error"
	FrameSource    = "source_error"
)

// Session events recorded on CounterSessions.
const (
	SessionStarted  = "started"
	SessionEnded    = "ended"
	SessionRejected = "rejected"
)

type Manager struct {
	// counters
	CounterReps     *prometheus.CounterVec
	CounterFrames   *prometheus.CounterVec
	CounterSessions *prometheus.CounterVec
	CounterRequests *prometheus.CounterVec

	// gauges
	GaugeActiveSession prometheus.Gauge

	// histograms
	HistFrameDuration   prometheus.Histogram
	HistRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("reptrack", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("reptrack", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterReps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reps",
			Help:      "The total number of repetitions credited",
		}, []string{"exercise"}),
		CounterFrames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames",
			Help:      "The total number of processed frames by result",
		}, []string{"result"}),
		CounterSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions",
			Help:      "Workout session lifecycle events",
		}, []string{"event"}),
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		GaugeActiveSession: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_session",
			Help:      "1 while a workout session is active",
		}),
		HistFrameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			Name:      "frame_duration_seconds",
			Help:      "Time to estimate, count and render one frame",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   prometheus.DefBuckets,
			Name:      "request_duration_seconds",
			Help:      "Duration of non-streaming requests in seconds",
		}, []string{"route"}),
	}
}

// SetupPrometheus returns a registry with build, Go runtime and process
// collectors plus any extra collectors given.
func SetupPrometheus(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(extra...)
	return reg
}
