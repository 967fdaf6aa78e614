package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livetreinen",
		Name:      "cache_lookups_total",
		Help:      "Cache lookups partitioned by hit or miss",
	}, []string{"result"})

	CacheFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "livetreinen",
		Name:      "cache_fetch_errors_total",
		Help:      "Fetches behind a cache miss that returned an error",
	})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livetreinen",
		Name:      "upstream_requests_total",
		Help:      "Attempts against the NS API partitioned by outcome",
	}, []string{"outcome"})

	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "livetreinen",
		Name:      "upstream_errors_total",
		Help:      "Requests to the NS API that ended in an error, by error code",
	}, []string{"code"})

	RecordedPositions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "livetreinen",
		Name:      "train_history_points_total",
		Help:      "Train positions appended to the statistics history",
	})
)
