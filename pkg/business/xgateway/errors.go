package xgateway

import "errors"

var (
	// ErrNilLimiter 表示准入组件为 nil。
	ErrNilLimiter = errors.New("xgateway: nil limiter")

	// ErrNilCache 表示缓存组件为 nil。
	ErrNilCache = errors.New("xgateway: nil cache")

	// ErrNilStats 表示指标组件为 nil。
	ErrNilStats = errors.New("xgateway: nil stats collector")

	// ErrNilUpstream 表示上游实现为 nil。
	ErrNilUpstream = errors.New("xgateway: nil upstream")

	// ErrInvalidRequest 表示请求缺少必填字段。
	ErrInvalidRequest = errors.New("xgateway: description is required")

	// ErrUpstream 表示上游调用最终失败（重试耗尽或熔断开启）。
	ErrUpstream = errors.New("xgateway: upstream call failed")
)
