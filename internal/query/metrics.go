package query

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache behaviour. Registered on an injected registry so tests
// and multiple stores never fight over the default one.
type Metrics struct {
	Hits     prometheus.Counter
	Misses   prometheus.Counter
	Refetches prometheus.Counter
	FetchErrors prometheus.Counter
	Entries  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stationwatch",
			Subsystem: "query",
			Name:      "cache_hits_total",
			Help:      "Reads served from a fresh cache entry without a fetch",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stationwatch",
			Subsystem: "query",
			Name:      "cache_misses_total",
			Help:      "Reads that found no usable entry and started a fetch",
		}),
		Refetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stationwatch",
			Subsystem: "query",
			Name:      "cache_refetches_total",
			Help:      "Fetches triggered by staleness or invalidation",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stationwatch",
			Subsystem: "query",
			Name:      "fetch_errors_total",
			Help:      "Fetcher completions that returned an error",
		}),
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stationwatch",
			Subsystem: "query",
			Name:      "cache_entries",
			Help:      "Current number of cache entries",
		}),
	}
	reg.MustRegister(m.Hits, m.Misses, m.Refetches, m.FetchErrors, m.Entries)
	return m
}
