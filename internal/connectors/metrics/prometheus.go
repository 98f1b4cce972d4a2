package metrics

import (
	"fmt"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Store struct {
	Prometheus         *prometheus.Registry
	BuildInfo          prometheus.Counter
	RPCRequests        *prometheus.CounterVec
	RPCDuration        *prometheus.HistogramVec
	UpstreamDuration   *prometheus.HistogramVec
	ClientState        prometheus.Gauge
	InitializeAttempts *prometheus.CounterVec
	PublishedBlocks    *prometheus.CounterVec
}

const Status = `status`
const Method = `method`

const StatusOk = `Ok`
const StatusFail = `Fail`

// Values of ClientState.
const (
	StateStopped  = 0
	StateStarting = 1
	StateRunning  = 2
)

var Commit string

func New(promRegistry *prometheus.Registry, prefix, appName, env string) *Store {
	factory := promauto.With(promRegistry)

	return &Store{
		Prometheus: promRegistry,
		BuildInfo: factory.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_metric_build_info", prefix),
			Help: "Build information",
			ConstLabels: prometheus.Labels{
				"name":    appName,
				"env":     env,
				"commit":  Commit,
				"version": runtime.Version(),
			},
		}),
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_rpc_requests_total", prefix),
			Help: "The total number of dispatched JSON-RPC requests",
		}, []string{Method, Status}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_rpc_request_processing_seconds", prefix),
			Help:    "Time spent dispatching JSON-RPC requests",
			Buckets: prometheus.DefBuckets,
		}, []string{Method}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_upstream_request_processing_seconds", prefix),
			Help:    "Time spent on requests to the execution and consensus nodes",
			Buckets: prometheus.DefBuckets,
		}, []string{Method}),
		ClientState: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_light_client_state", prefix),
			Help: "Light client state: 0 stopped, 1 starting, 2 running",
		}),
		InitializeAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_initialize_attempts_total", prefix),
			Help: "The total number of light client initialize attempts",
		}, []string{Status}),
		PublishedBlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_blocks_published_total", prefix),
			Help: "The total number of published blocks",
		}, []string{Status}),
	}
}
