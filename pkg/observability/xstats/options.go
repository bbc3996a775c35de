package xstats

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/gatekit/pkg/util/xclock"
)

const (
	// defaultWindowSize 每路由延迟窗口的默认容量。
	defaultWindowSize = 1000

	// defaultMeanLatencyThreshold 路由平均延迟告警阈值。
	defaultMeanLatencyThreshold = 5 * time.Second
)

// options Collector 配置选项。
type options struct {
	windowSize           int
	meanLatencyThreshold time.Duration
	clock                xclock.Clock
	meterProvider        metric.MeterProvider
}

// Option 配置选项函数。
type Option func(*options)

// WithWindowSize 设置每路由延迟窗口容量，非正值忽略。
func WithWindowSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.windowSize = n
		}
	}
}

// WithMeanLatencyThreshold 设置路由平均延迟的告警阈值，非正值忽略。
func WithMeanLatencyThreshold(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.meanLatencyThreshold = d
		}
	}
}

// WithClock 注入时钟，测试中配合 xclock.NewFake 使用。
func WithClock(clock xclock.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithMeterProvider 注入 OTel MeterProvider，启用指标导出。
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

func defaultOptions() *options {
	return &options{
		windowSize:           defaultWindowSize,
		meanLatencyThreshold: defaultMeanLatencyThreshold,
		clock:                xclock.Real(),
	}
}
