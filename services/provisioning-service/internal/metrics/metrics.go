package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ProvisioningTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provisioning_sagas_total",
			Help: "Total number of provisioning saga runs by flow and outcome.",
		},
		[]string{"flow", "result"},
	)

	CompensationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provisioning_compensations_total",
			Help: "Total number of compensating deletes by target and outcome.",
		},
		[]string{"target", "result"},
	)

	PasswordResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "password_resets_total",
			Help: "Total number of credential reset operations by action and outcome.",
		},
		[]string{"action", "result"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notification dispatch attempts.",
		},
		[]string{"channel", "template", "result"},
	)
)

// MustRegister registers every collector on the default registry with a
// constant service label.
func MustRegister(serviceName string) {
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, prometheus.DefaultRegisterer)

	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		ProvisioningTotal,
		CompensationsTotal,
		PasswordResetsTotal,
		NotificationsTotal,
	)
}

// Result turns an error into the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
