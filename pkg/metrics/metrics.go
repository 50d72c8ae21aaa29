package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 业务指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 验证码指标
	codesIssuedTotal  *prometheus.CounterVec
	redemptionsTotal  *prometheus.CounterVec
	codesPurgedTotal  prometheus.Counter
	bulkIssueDuration prometheus.Histogram

	// 课程/奖励指标
	courseCompletionsTotal prometheus.Counter
	rewardClaimsTotal      *prometheus.CounterVec
}

// NewCollector 创建指标收集器
func NewCollector() *Collector {
	return &Collector{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		codesIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_codes_issued_total",
				Help: "Total number of verification codes issued",
			},
			[]string{"kind"},
		),
		redemptionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_redemptions_total",
				Help: "Total number of redemption attempts by outcome",
			},
			[]string{"result"},
		),
		codesPurgedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "verification_codes_purged_total",
				Help: "Total number of verification codes purged",
			},
		),
		bulkIssueDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "verification_bulk_issue_duration_seconds",
				Help:    "Duration of bulk code issuance requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		),
		courseCompletionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "course_completions_total",
				Help: "Total number of completed course enrollments",
			},
		),
		rewardClaimsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reward_claims_total",
				Help: "Total number of reward claims by payout instrument",
			},
			[]string{"instrument"},
		),
	}
}

// Default 全局收集器实例
var Default = NewCollector()

// CodeIssued 记录发码
func (c *Collector) CodeIssued(kind string, n int) {
	c.codesIssuedTotal.WithLabelValues(kind).Add(float64(n))
}

// Redemption 记录核销结果 (verified / invalid / consumed / cooldown / ...)
func (c *Collector) Redemption(result string) {
	c.redemptionsTotal.WithLabelValues(result).Inc()
}

// CodesPurged 记录清理数量
func (c *Collector) CodesPurged(n int64) {
	c.codesPurgedTotal.Add(float64(n))
}

// ObserveBulkIssue 记录批量发码耗时
func (c *Collector) ObserveBulkIssue(d time.Duration) {
	c.bulkIssueDuration.Observe(d.Seconds())
}

// CourseCompleted 记录课程完成
func (c *Collector) CourseCompleted() {
	c.courseCompletionsTotal.Inc()
}

// RewardClaimed 记录奖励申领
func (c *Collector) RewardClaimed(instrument string) {
	c.rewardClaimsTotal.WithLabelValues(instrument).Inc()
}

// HTTPMiddleware gin 中间件：记录请求数与耗时
func (c *Collector) HTTPMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		c.httpRequestsTotal.WithLabelValues(
			ctx.Request.Method, endpoint, strconv.Itoa(ctx.Writer.Status()),
		).Inc()
		c.httpRequestDuration.WithLabelValues(
			ctx.Request.Method, endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler 暴露 /metrics
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
