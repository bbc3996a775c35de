package xstats

import (
	"context"
	"sync"
	"time"

	"github.com/omeyang/gatekit/pkg/util/xclock"
)

// routeStats 单一路由的计数与延迟窗口。
type routeStats struct {
	requests uint64
	errors   uint64
	window   *ring
}

// Collector 网关运行指标收集器。
// 必须通过 [New] 创建；所有方法并发安全。
// 单把互斥锁保护全部计数器与窗口，写路径临界区为 O(1)，
// Snapshot 为 O(n log n)（n 为窗口容量，固定且小）。
type Collector struct {
	mu        sync.Mutex
	startedAt time.Time

	routes map[string]*routeStats

	upstreamCalls    uint64
	upstreamFailures uint64
	upstreamTokens   int64
	upstreamCost     float64

	cacheHits   uint64
	cacheMisses uint64

	windowSize           int
	meanLatencyThreshold time.Duration
	clock                xclock.Clock
	otel                 *otelMetrics
}

// New 创建指标收集器。
func New(opts ...Option) (*Collector, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	otel, err := newOtelMetrics(o.meterProvider)
	if err != nil {
		return nil, err
	}

	return &Collector{
		startedAt:            o.clock.Now(),
		routes:               make(map[string]*routeStats),
		windowSize:           o.windowSize,
		meanLatencyThreshold: o.meanLatencyThreshold,
		clock:                o.clock,
		otel:                 otel,
	}, nil
}

// RecordRequest 记录一次已完成请求。
// 每个请求无论成败恰好调用一次；status >= 400 计为错误；
// duration 追加到该路由的延迟窗口，窗口满时覆盖最旧观测。
func (c *Collector) RecordRequest(route string, status int, duration time.Duration) {
	c.mu.Lock()
	rs, ok := c.routes[route]
	if !ok {
		rs = &routeStats{window: newRing(c.windowSize)}
		c.routes[route] = rs
	}
	rs.requests++
	if status >= 400 {
		rs.errors++
	}
	rs.window.append(duration)
	c.mu.Unlock()

	c.otel.recordRequest(context.Background(), route, status, duration)
}

// RecordUpstream 记录一次上游调用。
// 成功时累加 token 用量与成本，失败时仅累加失败计数。
func (c *Collector) RecordUpstream(success bool, tokens int64, cost float64) {
	c.mu.Lock()
	c.upstreamCalls++
	if success {
		c.upstreamTokens += tokens
		c.upstreamCost += cost
	} else {
		c.upstreamFailures++
	}
	c.mu.Unlock()

	c.otel.recordUpstream(context.Background(), success)
}

// RecordCache 记录一次缓存查询结果。
func (c *Collector) RecordCache(hit bool) {
	c.mu.Lock()
	if hit {
		c.cacheHits++
	} else {
		c.cacheMisses++
	}
	c.mu.Unlock()

	c.otel.recordCache(context.Background(), hit)
}

// Reset 清零全部计数并重置运行起点。
// 仅影响本收集器的内部状态，不回收 OTel 侧已导出的数据。
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startedAt = c.clock.Now()
	c.routes = make(map[string]*routeStats)
	c.upstreamCalls = 0
	c.upstreamFailures = 0
	c.upstreamTokens = 0
	c.upstreamCost = 0
	c.cacheHits = 0
	c.cacheMisses = 0
}
