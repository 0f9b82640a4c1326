// Package metrics exposes prometheus collectors for the data layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendRequests counts requests issued to the hosted backend,
	// partitioned by table, HTTP method and outcome (ok, backend_error,
	// network_error).
	BackendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parishdesk",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Number of requests issued to the backend",
	}, []string{"table", "method", "outcome"})

	// QueryCacheLookups counts read operations served through the query
	// cache, partitioned by entity table.
	QueryCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parishdesk",
		Subsystem: "query_cache",
		Name:      "lookups_total",
		Help:      "Number of cached read lookups",
	}, []string{"table"})

	// QueryCacheMisses counts read operations that had to fetch from the
	// backend, partitioned by entity table.
	QueryCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parishdesk",
		Subsystem: "query_cache",
		Name:      "misses_total",
		Help:      "Number of cached read lookups that fetched from source",
	}, []string{"table"})

	// MutationFailures counts create/update/delete operations that surfaced
	// an error to the caller, partitioned by table and operation.
	MutationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parishdesk",
		Subsystem: "mutations",
		Name:      "failures_total",
		Help:      "Number of failed mutations",
	}, []string{"table", "operation"})
)
