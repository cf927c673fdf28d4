// Package metrics defines the custom Prometheus metrics for the CRM API. It is
// the single source of truth for metric names, labels, and help strings.
//
// Collectors are not registered globally; the router registers them into its
// own registry so every router instance exposes a complete /metrics page.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crm"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// CustomerMutationsTotal counts successful customer writes.
// Label:
//   - operation: "create", "update" or "delete"
var CustomerMutationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "customer_mutations_total",
		Help:      "Total number of customer records created, updated or deleted.",
	},
	[]string{"operation"},
)

// AuthAttemptsTotal counts authentication requests.
// Labels:
//   - operation: "login" or "register"
//   - result: "success" or "failure"
var AuthAttemptsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login and registration attempts, by result.",
	},
	[]string{"operation", "result"},
)

// RateLimitedTotal counts requests rejected by the auth rate limiter.
var RateLimitedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected with 429.",
	},
)

// Collectors returns every custom collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		CustomerMutationsTotal,
		AuthAttemptsTotal,
		RateLimitedTotal,
	}
}

// Result maps an error to a result label value.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
