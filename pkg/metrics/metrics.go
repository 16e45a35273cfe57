/*
Package metrics 提供流水线的 Prometheus 指标。

每个 Collector 持有独立的 Registry，测试之间互不干扰。
*/
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 流水线指标
type Collector struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	slowRequests    *prometheus.CounterVec
	transactions    *prometheus.CounterVec

	registry *prometheus.Registry
}

// New 创建指标集合；namespace 为空时使用 "catalog"
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = "catalog"
	}
	registry := prometheus.NewRegistry()

	c := &Collector{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_request_duration_seconds",
				Help:      "Pipeline request latency in seconds, measured around the transactional work",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"request", "kind"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_requests_total",
				Help:      "Total number of pipeline requests by outcome",
			},
			[]string{"request", "kind", "outcome"},
		),
		slowRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_slow_requests_total",
				Help:      "Requests that exceeded the slow request threshold",
			},
			[]string{"request"},
		),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unit_of_work_transactions_total",
				Help:      "Command transactions by resolution (commit, rollback, rollback_failed)",
			},
			[]string{"request", "resolution"},
		),
		registry: registry,
	}

	registry.MustRegister(
		c.requestDuration,
		c.requestsTotal,
		c.slowRequests,
		c.transactions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveRequest 记录一次请求的耗时和结果
func (c *Collector) ObserveRequest(request, kind, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requestDuration.WithLabelValues(request, kind).Observe(elapsed.Seconds())
	c.requestsTotal.WithLabelValues(request, kind, outcome).Inc()
}

// ObserveSlowRequest 记录一次慢请求
func (c *Collector) ObserveSlowRequest(request string) {
	if c == nil {
		return
	}
	c.slowRequests.WithLabelValues(request).Inc()
}

// ObserveTransaction 记录事务的结局
func (c *Collector) ObserveTransaction(request, resolution string) {
	if c == nil {
		return
	}
	c.transactions.WithLabelValues(request, resolution).Inc()
}

// Registry 返回底层 Registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 暴露 /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
