package xstats

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称常量
const (
	// metricNameRequestsTotal 已完成请求计数器
	metricNameRequestsTotal = "xstats.requests.total"
	// metricNameErrorsTotal 错误响应计数器
	metricNameErrorsTotal = "xstats.errors.total"
	// metricNameRequestDuration 请求耗时直方图
	metricNameRequestDuration = "xstats.request.duration"
	// metricNameUpstreamTotal 上游调用计数器
	metricNameUpstreamTotal = "xstats.upstream.calls.total"
	// metricNameCacheLookups 缓存查询计数器
	metricNameCacheLookups = "xstats.cache.lookups.total"
)

// otelMetrics OTel 导出通道。nil 接收者安全，表示不导出。
type otelMetrics struct {
	requestsTotal   metric.Int64Counter
	errorsTotal     metric.Int64Counter
	requestDuration metric.Float64Histogram
	upstreamTotal   metric.Int64Counter
	cacheLookups    metric.Int64Counter
}

// newOtelMetrics 创建 OTel 导出通道。
// meterProvider 为 nil 时返回 nil（不导出）。
func newOtelMetrics(meterProvider metric.MeterProvider) (*otelMetrics, error) {
	if meterProvider == nil {
		return nil, nil
	}

	meter := meterProvider.Meter("xstats",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	requestsTotal, err := meter.Int64Counter(
		metricNameRequestsTotal,
		metric.WithDescription("已完成请求总数"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errorsTotal, err := meter.Int64Counter(
		metricNameErrorsTotal,
		metric.WithDescription("错误响应总数（状态码 >= 400）"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		metricNameRequestDuration,
		metric.WithDescription("请求处理耗时"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30,
		),
	)
	if err != nil {
		return nil, err
	}

	upstreamTotal, err := meter.Int64Counter(
		metricNameUpstreamTotal,
		metric.WithDescription("上游调用总数"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		metricNameCacheLookups,
		metric.WithDescription("缓存查询总数"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		requestsTotal:   requestsTotal,
		errorsTotal:     errorsTotal,
		requestDuration: requestDuration,
		upstreamTotal:   upstreamTotal,
		cacheLookups:    cacheLookups,
	}, nil
}

// recordRequest 记录一次已完成请求。
func (m *otelMetrics) recordRequest(ctx context.Context, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.requestsTotal.Add(ctx, 1, attrs)
	if status >= 400 {
		m.errorsTotal.Add(ctx, 1, attrs)
	}
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("route", route)))
}

// recordUpstream 记录一次上游调用。
func (m *otelMetrics) recordUpstream(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.upstreamTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// recordCache 记录一次缓存查询。
func (m *otelMetrics) recordCache(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}
