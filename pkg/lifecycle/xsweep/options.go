package xsweep

import (
	"github.com/omeyang/gatekit/pkg/observability/xlog"
	"github.com/omeyang/gatekit/pkg/util/xclock"
)

// options 调度器配置选项。
type options struct {
	logger xlog.Logger
	clock  xclock.Clock
}

// Option 配置选项函数。
type Option func(*options)

// WithLogger 设置日志记录器。
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock 注入时钟，测试中配合 xclock.NewFake 使用。
// 仅影响统计时间戳，cron 触发仍走系统时钟。
func WithClock(clock xclock.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func defaultOptions() *options {
	return &options{
		logger: xlog.Nop(),
		clock:  xclock.Real(),
	}
}
