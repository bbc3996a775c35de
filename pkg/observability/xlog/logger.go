package xlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Format 输出格式。
type Format string

const (
	// FormatJSON JSON 行格式（生产推荐）。
	FormatJSON Format = "json"
	// FormatText 可读文本格式。
	FormatText Format = "text"
)

// options 内部配置。
type options struct {
	level     slog.Level
	format    Format
	writer    io.Writer
	addSource bool

	rotatePath    string
	rotateSizeMB  int
	rotateBackups int
	rotateAgeDays int
}

// Option 配置选项函数。
type Option func(*options)

// WithLevel 设置初始日志级别。
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithFormat 设置输出格式，默认 JSON。
func WithFormat(format Format) Option {
	return func(o *options) { o.format = format }
}

// WithWriter 覆盖输出目标（测试常用）。
// 与 WithRotateFile 同时设置时，以 WithRotateFile 为准。
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithAddSource 记录调用位置（有额外开销，默认关闭）。
func WithAddSource(enabled bool) Option {
	return func(o *options) { o.addSource = enabled }
}

// WithRotateFile 输出到按大小轮转的文件。
// maxSizeMB 单文件上限，maxBackups 保留旧文件数，maxAgeDays 保留天数。
func WithRotateFile(path string, maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(o *options) {
		o.rotatePath = path
		o.rotateSizeMB = maxSizeMB
		o.rotateBackups = maxBackups
		o.rotateAgeDays = maxAgeDays
	}
}

// New 创建 Logger。
// 返回的 cleanup 函数负责关闭轮转文件句柄，无轮转时为空操作。
func New(opts ...Option) (Logger, func() error, error) {
	o := &options{
		level:  slog.LevelInfo,
		format: FormatJSON,
		writer: os.Stderr,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	cleanup := func() error { return nil }
	w := o.writer
	if o.rotatePath != "" {
		lj := &lumberjack.Logger{
			Filename:   o.rotatePath,
			MaxSize:    o.rotateSizeMB,
			MaxBackups: o.rotateBackups,
			MaxAge:     o.rotateAgeDays,
			Compress:   true,
		}
		w = lj
		cleanup = lj.Close
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(o.level)

	hopts := &slog.HandlerOptions{Level: levelVar, AddSource: o.addSource}
	var handler slog.Handler
	switch o.format {
	case FormatText:
		handler = slog.NewTextHandler(w, hopts)
	default:
		handler = slog.NewJSONHandler(w, hopts)
	}

	return &xlogger{handler: handler, levelVar: levelVar}, cleanup, nil
}

// xlogger Logger 接口的 slog 实现。
type xlogger struct {
	handler  slog.Handler
	levelVar *slog.LevelVar
}

func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level) {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(attrs...)
	_ = l.handler.Handle(ctx, r)
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

// With 返回带额外属性的派生 Logger，共享父级 LevelVar。
func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return &xlogger{handler: l.handler.WithAttrs(attrs), levelVar: l.levelVar}
}

// SetLevel 动态设置日志级别。
func (l *xlogger) SetLevel(level slog.Level) {
	l.levelVar.Set(level)
}

// GetLevel 获取当前日志级别。
func (l *xlogger) GetLevel() slog.Level {
	return l.levelVar.Level()
}

// nopLogger 空实现。
type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...slog.Attr) {}
func (nopLogger) Info(context.Context, string, ...slog.Attr)  {}
func (nopLogger) Warn(context.Context, string, ...slog.Attr)  {}
func (nopLogger) Error(context.Context, string, ...slog.Attr) {}
func (n nopLogger) With(...slog.Attr) Logger                  { return n }

// Nop 返回丢弃所有日志的 Logger。
func Nop() Logger {
	return nopLogger{}
}

// 编译时接口检查
var (
	_ Logger  = (*xlogger)(nil)
	_ Leveler = (*xlogger)(nil)
	_ Logger  = nopLogger{}
)
