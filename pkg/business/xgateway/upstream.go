package xgateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/gatekit/pkg/observability/xlog"
	"github.com/omeyang/gatekit/pkg/observability/xstats"
)

// Upstream 昂贵上游调用的抽象。
// 实现负责自身的超时控制；调用方通过 ctx 传递取消。
// 网关保证 Invoke 永远不在任何组件锁内被调用。
type Upstream interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// UpstreamFunc 函数式 Upstream 适配器。
type UpstreamFunc func(ctx context.Context, req Request) (*Response, error)

// Invoke 实现 [Upstream]。
func (f UpstreamFunc) Invoke(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Permanent 标记不可重试的上游错误（如请求内容被上游拒绝）。
// ResilientUpstream 遇到该标记立即放弃重试。
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// resilientOptions ResilientUpstream 配置。
type resilientOptions struct {
	attempts     uint
	baseDelay    time.Duration
	maxDelay     time.Duration
	breakerName  string
	failureRatio float64
	minRequests  uint32
	openTimeout  time.Duration
	logger       xlog.Logger
}

// ResilientOption ResilientUpstream 配置选项函数。
type ResilientOption func(*resilientOptions)

// WithAttempts 设置总尝试次数（含首次），非正值忽略。
func WithAttempts(n uint) ResilientOption {
	return func(o *resilientOptions) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithRetryDelay 设置首次重试延迟与上限，指数退避。
func WithRetryDelay(base, max time.Duration) ResilientOption {
	return func(o *resilientOptions) {
		if base > 0 {
			o.baseDelay = base
		}
		if max > 0 {
			o.maxDelay = max
		}
	}
}

// WithBreakerThreshold 设置熔断条件：样本数达到 minRequests 后
// 失败率超过 ratio 即熔断，openTimeout 后进入半开。
func WithBreakerThreshold(ratio float64, minRequests uint32, openTimeout time.Duration) ResilientOption {
	return func(o *resilientOptions) {
		if ratio > 0 && ratio <= 1 {
			o.failureRatio = ratio
		}
		if minRequests > 0 {
			o.minRequests = minRequests
		}
		if openTimeout > 0 {
			o.openTimeout = openTimeout
		}
	}
}

// WithUpstreamLogger 设置日志记录器。
func WithUpstreamLogger(logger xlog.Logger) ResilientOption {
	return func(o *resilientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func defaultResilientOptions() *resilientOptions {
	return &resilientOptions{
		attempts:     3,
		baseDelay:    500 * time.Millisecond,
		maxDelay:     10 * time.Second,
		breakerName:  "upstream",
		failureRatio: 0.6,
		minRequests:  5,
		openTimeout:  30 * time.Second,
		logger:       xlog.Nop(),
	}
}

// ResilientUpstream 带重试与熔断的上游包装。
// 每次实际尝试（无论成败）都计入上游指标；熔断开启时的快速失败
// 不产生尝试，也不计入。
type ResilientUpstream struct {
	next    Upstream
	stats   *xstats.Collector
	breaker *gobreaker.CircuitBreaker[*Response]
	opts    *resilientOptions
}

// NewResilientUpstream 包装一个上游实现。
func NewResilientUpstream(next Upstream, stats *xstats.Collector, opts ...ResilientOption) (*ResilientUpstream, error) {
	if next == nil {
		return nil, ErrNilUpstream
	}
	if stats == nil {
		return nil, ErrNilStats
	}

	o := defaultResilientOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	settings := gobreaker.Settings{
		Name:    o.breakerName,
		Timeout: o.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < o.minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= o.failureRatio
		},
	}

	return &ResilientUpstream{
		next:    next,
		stats:   stats,
		breaker: gobreaker.NewCircuitBreaker[*Response](settings),
		opts:    o,
	}, nil
}

// Invoke 执行上游调用：瞬时错误按指数退避重试，每次尝试经过熔断器。
// 熔断开启、上下文取消或错误被 [Permanent] 标记时立即停止重试。
func (u *ResilientUpstream) Invoke(ctx context.Context, req Request) (*Response, error) {
	resp, err := retry.NewWithData[*Response](
		retry.Context(ctx),
		retry.Attempts(u.opts.attempts),
		retry.Delay(u.opts.baseDelay),
		retry.MaxDelay(u.opts.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retryable(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			u.opts.logger.Warn(ctx, "upstream attempt failed, retrying",
				slog.Uint64("attempt", uint64(n)),
				slog.String("error", err.Error()))
		}),
	).Do(func() (*Response, error) {
		return u.attempt(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return resp, nil
}

// attempt 单次尝试：过熔断器，并把实际发出的调用计入指标。
func (u *ResilientUpstream) attempt(ctx context.Context, req Request) (*Response, error) {
	return u.breaker.Execute(func() (*Response, error) {
		resp, err := u.next.Invoke(ctx, req)
		if err != nil {
			u.stats.RecordUpstream(false, 0, 0)
			return nil, err
		}
		u.stats.RecordUpstream(true, resp.TokensUsed, resp.Cost)
		return resp, nil
	})
}

// retryable 判断错误是否值得重试。
func retryable(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	// 熔断开启或半开限流时重试只会空转
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
