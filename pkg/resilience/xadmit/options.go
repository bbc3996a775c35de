package xadmit

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/gatekit/pkg/observability/xlog"
	"github.com/omeyang/gatekit/pkg/util/xclock"
)

// options 内部配置结构。
type options struct {
	config        Config
	clock         xclock.Clock
	logger        xlog.Logger
	meterProvider metric.MeterProvider
	metrics       *metrics
	onDeny        func(clientID, route string, result *Result)
}

// Option 配置选项函数。
type Option func(*options)

// defaultOptions 返回默认配置。
func defaultOptions() *options {
	return &options{
		config: DefaultConfig(),
		clock:  xclock.Real(),
		logger: xlog.Nop(),
	}
}

// WithConfig 使用完整配置覆盖。
func WithConfig(config Config) Option {
	return func(o *options) {
		o.config = config
	}
}

// WithRoutes 设置路由级配置（在当前配置上合并覆盖）。
func WithRoutes(routes map[string]RouteLimit) Option {
	return func(o *options) {
		if o.config.Routes == nil {
			o.config.Routes = make(map[string]RouteLimit, len(routes))
		}
		for route, limit := range routes {
			o.config.Routes[route] = limit
		}
	}
}

// WithDefaultLimit 设置未知路由的回退配置。
func WithDefaultLimit(limit RouteLimit) Option {
	return func(o *options) {
		o.config.Default = limit
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

// WithLogger 设置日志记录器。
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMeterProvider 设置 OpenTelemetry MeterProvider。
// 不设置时不收集指标。
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithOnDeny 设置请求被拒绝时的回调，用于自定义告警或审计。
func WithOnDeny(fn func(clientID, route string, result *Result)) Option {
	return func(o *options) {
		o.onDeny = fn
	}
}
