package xstats

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Report 一致性指标快照。
type Report struct {
	// Uptime 自启动（或上次 Reset）起的运行时长
	Uptime time.Duration `json:"uptime_seconds"`
	// UptimeHuman 人类可读的运行时长，如 "1d 2h 3m 4s"
	UptimeHuman string `json:"uptime_human"`

	// TotalRequests 全部路由的请求总数
	TotalRequests uint64 `json:"total_requests"`
	// TotalErrors 全部路由的错误总数（状态码 >= 400）
	TotalErrors uint64 `json:"total_errors"`
	// RequestsPerSecond 请求速率（请求数 / 运行秒数）
	RequestsPerSecond float64 `json:"requests_per_second"`
	// ErrorsPerSecond 错误速率
	ErrorsPerSecond float64 `json:"errors_per_second"`
	// ErrorRate 全局错误率 [0,1]，无请求时为 0
	ErrorRate float64 `json:"error_rate"`

	// Routes 每路由统计
	Routes map[string]RouteReport `json:"routes"`
	// Upstream 上游调用统计
	Upstream UpstreamReport `json:"upstream"`
	// Cache 缓存查询统计
	Cache CacheReport `json:"cache"`
}

// RouteReport 单一路由的统计。
type RouteReport struct {
	// Requests 请求数
	Requests uint64 `json:"requests"`
	// Errors 错误数
	Errors uint64 `json:"errors"`
	// RequestsPerSecond 该路由请求速率
	RequestsPerSecond float64 `json:"requests_per_second"`
	// MeanLatency 窗口内平均延迟
	MeanLatency time.Duration `json:"mean_latency_ms"`
	// P95Latency 窗口内 95 分位延迟
	P95Latency time.Duration `json:"p95_latency_ms"`
}

// UpstreamReport 上游调用统计。
type UpstreamReport struct {
	// Calls 调用总数
	Calls uint64 `json:"calls"`
	// Failures 失败数
	Failures uint64 `json:"failures"`
	// Tokens 成功调用累计 token 用量
	Tokens int64 `json:"tokens"`
	// Cost 成功调用累计成本
	Cost float64 `json:"cost"`
	// SuccessRate 成功率 [0,1]，无调用时为 0
	SuccessRate float64 `json:"success_rate"`
}

// CacheReport 缓存查询统计。
type CacheReport struct {
	// Hits 命中数
	Hits uint64 `json:"hits"`
	// Misses 未命中数
	Misses uint64 `json:"misses"`
	// HitRate 命中率 [0,1]，无查询时为 0
	HitRate float64 `json:"hit_rate"`
}

// Snapshot 返回当前指标的一致性快照。
// 单次加锁读取全部计数器，所有派生指标基于同一时刻的状态计算，
// 不会出现跨字段撕裂（如新鲜的错误数除以陈旧的请求数）。
func (c *Collector) Snapshot() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// snapshotLocked 构建报告。调用方必须持锁。
func (c *Collector) snapshotLocked() Report {
	uptime := c.clock.Since(c.startedAt)
	uptimeSec := uptime.Seconds()

	report := Report{
		Uptime:      uptime,
		UptimeHuman: formatUptime(uptime),
		Routes:      make(map[string]RouteReport, len(c.routes)),
		Upstream: UpstreamReport{
			Calls:    c.upstreamCalls,
			Failures: c.upstreamFailures,
			Tokens:   c.upstreamTokens,
			Cost:     c.upstreamCost,
		},
		Cache: CacheReport{
			Hits:   c.cacheHits,
			Misses: c.cacheMisses,
		},
	}

	for route, rs := range c.routes {
		report.TotalRequests += rs.requests
		report.TotalErrors += rs.errors

		rr := RouteReport{
			Requests: rs.requests,
			Errors:   rs.errors,
		}
		if uptimeSec > 0 {
			rr.RequestsPerSecond = float64(rs.requests) / uptimeSec
		}
		if window := rs.window.values(); len(window) > 0 {
			rr.MeanLatency = meanDuration(window)
			rr.P95Latency = percentile(window, 0.95)
		}
		report.Routes[route] = rr
	}

	if uptimeSec > 0 {
		report.RequestsPerSecond = float64(report.TotalRequests) / uptimeSec
		report.ErrorsPerSecond = float64(report.TotalErrors) / uptimeSec
	}
	if report.TotalRequests > 0 {
		report.ErrorRate = float64(report.TotalErrors) / float64(report.TotalRequests)
	}
	if c.upstreamCalls > 0 {
		report.Upstream.SuccessRate = float64(c.upstreamCalls-c.upstreamFailures) / float64(c.upstreamCalls)
	}
	if lookups := c.cacheHits + c.cacheMisses; lookups > 0 {
		report.Cache.HitRate = float64(c.cacheHits) / float64(lookups)
	}

	return report
}

// percentile 对观测值排序后取 int(p*n) 位置的元素，越界时取最后一个。
// 调用方保证 values 非空；values 会被就地排序（调用方已持有副本）。
func percentile(values []time.Duration, p float64) time.Duration {
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	idx := int(p * float64(len(values)))
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}

func meanDuration(values []time.Duration) time.Duration {
	var sum time.Duration
	for _, v := range values {
		sum += v
	}
	return sum / time.Duration(len(values))
}

// formatUptime 将时长格式化为 "1d 2h 3m 4s"，省略为 0 的高位单位。
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if days > 0 || hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if days > 0 || hours > 0 || minutes > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	fmt.Fprintf(&b, "%ds", seconds)
	return b.String()
}
