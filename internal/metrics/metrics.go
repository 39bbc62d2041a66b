// Package metrics provides Prometheus metrics for the reserve-rec API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reserverec"

var (
	// TransactChunks tracks transactional chunk commits.
	TransactChunks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transact_chunks_total",
			Help:      "Total transactional chunks submitted",
		},
		[]string{"status"}, // success/error
	)

	// TransactItems tracks items committed inside successful transactions.
	TransactItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transact_items_total",
			Help:      "Total items committed through transactional chunks",
		},
	)

	// TransactLatency tracks the latency of a single chunk commit.
	TransactLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transact_latency_seconds",
			Help:      "Transactional chunk commit latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ReadPages tracks pages fetched from the store.
	ReadPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_pages_total",
			Help:      "Total pages read from the store",
		},
		[]string{"operation"}, // query/scan
	)

	// SkippedUpdates tracks update requests dropped by a lenient policy.
	SkippedUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_updates_total",
			Help:      "Total update requests skipped due to validation errors",
		},
	)

	// SyncActions tracks operations planned by the data register sync.
	SyncActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_actions_total",
			Help:      "Total operations planned by external source synchronization",
		},
		[]string{"action"}, // put/update
	)
)
