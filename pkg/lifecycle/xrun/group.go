package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"
)

// Group 管理多个服务的并发运行与协调关闭。
// 任一服务返回错误或 Cancel 被调用时，所有服务的 ctx 都会被取消。
// Go 与 Cancel 并发安全；Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group，返回派生的 context。
// 任一服务返回错误时该 context 被取消。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)

	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     o,
	}, egCtx
}

// Go 启动一个服务。服务应监听 ctx.Done() 响应取消。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.GoWithName("", fn)
}

// GoWithName 与 Go 相同，并在日志中携带服务名。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.opts.logger.Warn(context.Background(), "service exited with error",
				slog.String("group", g.opts.name),
				slog.String("service", name),
				slog.String("error", err.Error()))
		}
		return err
	})
}

// Cancel 主动取消所有服务。cause 会作为退出原因由 Wait 返回。
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的派生 context。
func (g *Group) Context() context.Context {
	return g.ctx
}

// Wait 等待所有服务结束，返回分类后的退出原因。
//
// 普通的 context 取消被过滤为 nil；通过 Cancel(cause) 或信号监听
// 设置的显式原因（如 *SignalError）即使所有服务返回 nil 也会被返回，
// 调用方始终能基于退出原因做分类决策。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()

	// context.Canceled 可能来自 Group 的主动取消，也可能来自服务内部。
	// 以 causeCtx 区分：前者还原显式 cause，后者原样返回。
	if errors.Is(err, context.Canceled) {
		if g.causeCtx.Err() != nil {
			if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
				return cause
			}
			return nil
		}
		return err
	}

	// 所有服务正常返回，但可能存在显式 Cancel(cause)。
	if err == nil && g.causeCtx.Err() != nil {
		if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
	}

	return err
}

// Run 注册信号监听与服务，阻塞到全部退出。
// 收到信号时返回 *SignalError；服务错误原样返回。
func Run(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)

	g.GoWithName("signal-listener", func(ctx context.Context) error {
		testc := testSigChan(ctx)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, g.opts.signals...)
		defer signal.Stop(sigCh)

		var sig os.Signal
		select {
		case sig = <-testc:
		case sig = <-sigCh:
		case <-ctx.Done():
			return ctx.Err()
		}

		g.opts.logger.Info(context.Background(), "received signal, shutting down",
			slog.String("group", g.opts.name),
			slog.String("signal", sig.String()))
		g.cancel(&SignalError{Signal: sig})
		return nil
	})

	for _, svc := range services {
		g.Go(svc)
	}
	return g.Wait()
}

// testSigChanKey 测试中通过 context 注入信号通道，避免向进程发真实信号。
type testSigChanKey struct{}

func testSigChan(ctx context.Context) <-chan os.Signal {
	c, _ := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	return c
}

func withTestSigChan(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, testSigChanKey{}, c)
}
