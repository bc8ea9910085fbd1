// Package metrics exposes the Prometheus collectors of the application.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	storeWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coopkeeper",
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Total number of key-value store writes by outcome.",
		},
		[]string{"result"},
	)

	malformedValues = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coopkeeper",
			Subsystem: "store",
			Name:      "malformed_values_total",
			Help:      "Stored values that failed to decode and were read as absent.",
		},
		[]string{"domain"},
	)

	domainOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coopkeeper",
			Subsystem: "domain",
			Name:      "operations_total",
			Help:      "Total number of domain operations by domain, operation and outcome.",
		},
		[]string{"domain", "operation", "result"},
	)

	eggsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coopkeeper",
			Subsystem: "eggs",
			Name:      "recorded_total",
			Help:      "Eggs recorded through increment and add operations.",
		},
	)
)

func init() {
	Registry.MustRegister(storeWrites, malformedValues, domainOps, eggsRecorded)
}

// Handler returns the HTTP handler serving the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordStoreWrite counts one store write.
func RecordStoreWrite(ok bool) {
	storeWrites.WithLabelValues(result(ok)).Inc()
}

// RecordMalformed counts a stored value that could not be decoded.
func RecordMalformed(domain string) {
	malformedValues.WithLabelValues(domain).Inc()
}

// RecordOperation counts one domain operation.
func RecordOperation(domain, operation string, ok bool) {
	domainOps.WithLabelValues(domain, operation, result(ok)).Inc()
}

// RecordEggs counts n collected eggs.
func RecordEggs(n int) {
	eggsRecorded.Add(float64(n))
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
