package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/scentshop/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors 业务与 HTTP 指标集合
type Collectors struct {
	registry          *prometheus.Registry
	requestCounter    *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	orderTransitions  *prometheus.CounterVec
	notificationSends *prometheus.CounterVec
	outboxDispatches  *prometheus.CounterVec
}

var (
	defaultMu         sync.RWMutex
	defaultCollectors *Collectors
)

// New 创建指标集合，指标名统一带前缀
func New(prefix string) *Collectors {
	prefix = strings.Trim(strings.TrimSpace(prefix), "_")
	if prefix == "" {
		prefix = "scentshop"
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	return &Collectors{
		registry: registry,
		requestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prefix,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		orderTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Name:      "order_transitions_total",
			Help:      "Order lifecycle events emitted",
		}, []string{"event", "actor"}),
		notificationSends: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Name:      "notification_sends_total",
			Help:      "External notification sends by channel and result",
		}, []string{"channel", "result"}),
		outboxDispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Name:      "outbox_dispatch_total",
			Help:      "Outbox event dispatch attempts by resulting status",
		}, []string{"status"}),
	}
}

// Init 按配置初始化全局指标；未启用时所有记录函数为空操作
func Init(cfg *config.MetricsConfig) *Collectors {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if cfg == nil || !cfg.Enabled {
		defaultCollectors = nil
		return nil
	}
	defaultCollectors = New(cfg.Prefix)
	return defaultCollectors
}

// Default 获取全局指标集合
func Default() *Collectors {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultCollectors
}

// Registry 指标注册表
func (c *Collectors) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler 暴露 /metrics
func (c *Collectors) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Middleware 记录请求数与耗时
func (c *Collectors) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil {
			ctx.Next()
			return
		}
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := ctx.Request.Method
		c.requestCounter.WithLabelValues(method, path, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordOrderTransition 记录订单事件
func RecordOrderTransition(event, actor string) {
	if c := Default(); c != nil {
		c.orderTransitions.WithLabelValues(event, actor).Inc()
	}
}

// RecordNotificationSend 记录外部通知发送结果
func RecordNotificationSend(channel string, err error) {
	c := Default()
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.notificationSends.WithLabelValues(channel, result).Inc()
}

// RecordOutboxDispatch 记录出站事件分发结果
func RecordOutboxDispatch(status string) {
	if c := Default(); c != nil {
		c.outboxDispatches.WithLabelValues(status).Inc()
	}
}
