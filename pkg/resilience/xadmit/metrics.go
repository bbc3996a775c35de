package xadmit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称常量
const (
	// metricNameRequestsTotal 判定总数计数器
	metricNameRequestsTotal = "xadmit.requests.total"
	// metricNameDeniedTotal 被拒绝请求计数器
	metricNameDeniedTotal = "xadmit.denied.total"
	// metricNameCheckDuration 判定耗时直方图
	metricNameCheckDuration = "xadmit.check.duration"
)

// metrics 限流指标收集器。nil 接收者安全，表示不收集。
type metrics struct {
	requestsTotal metric.Int64Counter
	deniedTotal   metric.Int64Counter
	checkDuration metric.Float64Histogram
}

// newMetrics 创建指标收集器。
// meterProvider 为 nil 时返回 nil（不收集指标）。
func newMetrics(meterProvider metric.MeterProvider) (*metrics, error) {
	if meterProvider == nil {
		return nil, nil
	}

	meter := meterProvider.Meter("xadmit",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	requestsTotal, err := meter.Int64Counter(
		metricNameRequestsTotal,
		metric.WithDescription("准入判定总数"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	deniedTotal, err := meter.Int64Counter(
		metricNameDeniedTotal,
		metric.WithDescription("被限流拒绝的请求数"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	checkDuration, err := meter.Float64Histogram(
		metricNameCheckDuration,
		metric.WithDescription("准入判定耗时"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.000001, 0.00001, 0.0001, 0.001, 0.01,
		),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		requestsTotal: requestsTotal,
		deniedTotal:   deniedTotal,
		checkDuration: checkDuration,
	}, nil
}

// recordAdmit 记录一次判定结果。
func (m *metrics) recordAdmit(ctx context.Context, route string, allowed bool, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("route", route),
		attribute.Bool("allowed", allowed),
	)
	m.requestsTotal.Add(ctx, 1, attrs)
	if !allowed {
		m.deniedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
	}
	m.checkDuration.Record(ctx, duration.Seconds(), attrs)
}
