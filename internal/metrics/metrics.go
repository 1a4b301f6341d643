package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "task_reminder"

const ResultProcessed = "processed"
const ResultFailed = "failed"

var Registry = prometheus.NewRegistry()

var NotificationsEnqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "queue",
	Name:      "notifications_enqueued_total",
	Help:      "Напоминания, переданные в очередь",
}, []string{"type"})

var WorkerMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "worker",
	Name:      "messages_total",
	Help:      "Сообщения, обработанные воркером, по результату",
}, []string{"result"})

var HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "Длительность HTTP запросов",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NotificationsEnqueued,
		WorkerMessages,
		HTTPRequestDuration,
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
