package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homedash_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Reachability probes
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_probes_total",
			Help: "Total number of tile reachability probes by outcome",
		},
		[]string{"outcome"}, // "online", "offline", "error", "skipped"
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "homedash_probe_duration_seconds",
			Help:    "Duration of a single reachability probe in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2, 3, 5},
		},
	)

	// Integrations
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_upstream_requests_total",
			Help: "Total number of calls to integration upstreams by service, operation and result",
		},
		[]string{"service", "operation", "result"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "homedash_upstream_request_duration_seconds",
			Help:    "Latency of integration upstream calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	UpstreamCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "homedash_upstream_circuit_state",
			Help: "Circuit breaker state per upstream host (0 closed, 1 half-open, 2 open)",
		},
		[]string{"upstream"},
	)

	// Title cache
	TitleCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "homedash_title_cache_hits_total",
			Help: "Total number of request title cache hits",
		},
	)

	TitleCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "homedash_title_cache_misses_total",
			Help: "Total number of request title cache misses",
		},
	)

	// Config store
	ConfigWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homedash_config_writes_total",
			Help: "Total number of config document writes by result",
		},
		[]string{"result"},
	)

	// Host
	HostUsagePercent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "homedash_host_usage_percent",
			Help: "Last sampled host usage by resource (cpu, ram, storage)",
		},
		[]string{"resource"},
	)

	HostNetworkMbps = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "homedash_host_network_mbps",
			Help: "Last sampled combined network throughput in Mbit/s",
		},
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordProbe records the outcome of one reachability probe.
func RecordProbe(outcome string, duration time.Duration) {
	ProbesTotal.WithLabelValues(outcome).Inc()
	if outcome != "skipped" {
		ProbeDuration.Observe(duration.Seconds())
	}
}

// RecordUpstream records one call to an integration upstream.
func RecordUpstream(service, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(service, operation, result).Inc()
	UpstreamRequestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordCircuitState publishes a breaker state by its name.
func RecordCircuitState(upstream, state string) {
	v := 0.0
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	UpstreamCircuitState.WithLabelValues(upstream).Set(v)
}

// RecordTitleCache records a title cache lookup.
func RecordTitleCache(hit bool) {
	if hit {
		TitleCacheHits.Inc()
		return
	}
	TitleCacheMisses.Inc()
}

// RecordConfigWrite records a config document write.
func RecordConfigWrite(err error) {
	if err != nil {
		ConfigWritesTotal.WithLabelValues("error").Inc()
		return
	}
	ConfigWritesTotal.WithLabelValues("success").Inc()
}

// RecordHostUsage publishes the last host sample.
func RecordHostUsage(cpu, ram, storage, networkMbps int) {
	HostUsagePercent.WithLabelValues("cpu").Set(float64(cpu))
	HostUsagePercent.WithLabelValues("ram").Set(float64(ram))
	HostUsagePercent.WithLabelValues("storage").Set(float64(storage))
	HostNetworkMbps.Set(float64(networkMbps))
}
