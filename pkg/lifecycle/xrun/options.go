package xrun

import (
	"os"
	"syscall"

	"github.com/omeyang/gatekit/pkg/observability/xlog"
)

// groupOptions Group 配置。
type groupOptions struct {
	logger  xlog.Logger
	name    string
	signals []os.Signal
}

// Option 配置选项函数。
type Option func(*groupOptions)

// WithLogger 设置日志记录器，用于记录服务启停事件。
func WithLogger(logger xlog.Logger) Option {
	return func(o *groupOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 Group 名称，用于日志标识。
func WithName(name string) Option {
	return func(o *groupOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals 覆盖 [Run] 监听的信号列表。
func WithSignals(signals ...os.Signal) Option {
	copied := append([]os.Signal(nil), signals...)
	return func(o *groupOptions) {
		o.signals = copied
	}
}

func defaultOptions() *groupOptions {
	return &groupOptions{
		logger: xlog.Nop(),
		name:   "xrun",
		signals: []os.Signal{
			syscall.SIGINT,
			syscall.SIGTERM,
			syscall.SIGQUIT,
		},
	}
}
