// Package metrics — Prometheus метрики обращений к Zabbix и вызовов инструментов.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы вызова инструмента.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zabbix_rpc_requests_total",
			Help: "Total number of Zabbix JSON-RPC requests",
		},
		[]string{"method", "outcome"},
	)

	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zabbix_rpc_duration_seconds",
			Help:    "Time spent waiting for Zabbix JSON-RPC responses",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zabbix_tool_calls_total",
			Help: "Total number of LLM tool calls by outcome",
		},
		[]string{"tool", "outcome"},
	)
)

// ObserveRPC учитывает один JSON-RPC запрос.
func ObserveRPC(method string, err error, d time.Duration) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	RPCRequests.WithLabelValues(method, outcome).Inc()
	RPCDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveTool учитывает один вызов инструмента.
func ObserveTool(tool, outcome string) {
	ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}
