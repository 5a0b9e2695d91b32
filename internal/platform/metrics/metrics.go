package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics は HTTP と社員操作のメトリクスを保持します。
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestDuration *prometheus.HistogramVec
	EmployeeMutations   *prometheus.CounterVec
}

// New は専用のレジストリを持つ Metrics を構築します。
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "employee_api_http_request_duration_seconds",
			Help:    "Duration of HTTP requests handled by the employee API",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		EmployeeMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "employee_api_employee_mutations_total",
			Help: "Total number of employee mutations by action",
		}, []string{"action"}),
	}
}

// ObserveHTTPRequest は 1 リクエスト分の所要時間を記録します。
func (m *Metrics) ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// IncrementEmployeeMutation は社員の変更操作をカウントします。
func (m *Metrics) IncrementEmployeeMutation(action string) {
	m.EmployeeMutations.WithLabelValues(action).Inc()
}

// Handler は /metrics 用の HTTP ハンドラーを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
