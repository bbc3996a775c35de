package xadmit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// keySep 复合键分隔符。客户端标识来自 IP + User-Agent，
// 不会包含换行，使用 "\n" 避免与正常内容冲突。
const keySep = "\n"

// Limiter 按 (客户端, 路由) 维度的令牌桶限流器。
// 必须通过 [New] 创建；所有方法并发安全。
type Limiter struct {
	cfg     Config
	opts    *options
	buckets sync.Map // map[string]*bucket，键为 clientID+keySep+route
	closed  atomic.Bool
}

// New 创建限流器。
// 不传选项时使用 [DefaultConfig]。配置无效时返回 ErrInvalidConfig。
func New(opts ...Option) (*Limiter, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	metrics, err := newMetrics(o.meterProvider)
	if err != nil {
		return nil, err
	}
	o.metrics = metrics

	return &Limiter{
		cfg:  o.config.Clone(),
		opts: o,
	}, nil
}

// Admit 判定一次请求能否放行，放行则同步消耗一个令牌。
//
// 对预期输入永不返回错误：未知路由回退 default 配置，
// 未知客户端惰性建桶（LoadOrStore 保证并发首次触达只初始化一次）。
// 判定是快速、非阻塞、锁界定的操作，临界区内绝不发生 I/O。
// ctx 仅用于日志与指标传播，不参与超时控制。
func (l *Limiter) Admit(ctx context.Context, clientID, route string) *Result {
	start := l.opts.clock.Now()
	limit := l.cfg.limitFor(route)

	// 设计决策: Close 后放行所有请求（fail-open）。
	// 限流器关闭属于进程收尾阶段，拒绝此时的请求没有保护意义。
	if l.closed.Load() {
		return &Result{Allowed: true, Route: route, Limit: limit.RatePerMinute, Remaining: limit.Burst}
	}

	b := l.getOrCreateBucket(clientID+keySep+route, limit, start)
	out := b.admit(start, limit)

	if out.corrected {
		l.opts.logger.Error(ctx, "token bucket invariant corrected",
			slog.String("route", route),
			slog.String("client_id", clientID),
		)
	}

	result := &Result{
		Allowed:    out.allowed,
		Route:      route,
		Limit:      limit.RatePerMinute,
		Remaining:  out.remaining,
		RetryAfter: out.retryAfter,
	}

	l.opts.metrics.recordAdmit(ctx, route, out.allowed, l.opts.clock.Since(start))

	if !out.allowed {
		if l.opts.onDeny != nil {
			l.opts.onDeny(clientID, route, result)
		}
		l.opts.logger.Warn(ctx, "rate limit exceeded",
			slog.String("route", route),
			slog.String("client_id", clientID),
			slog.Int("retry_after_seconds", result.RetryAfterSeconds()),
		)
	}

	return result
}

// getOrCreateBucket 获取或创建令牌桶。
// 并发首次触达时可能构造多个 bucket，但 LoadOrStore 保证只有一个胜出。
func (l *Limiter) getOrCreateBucket(key string, limit RouteLimit, now time.Time) *bucket {
	if val, ok := l.buckets.Load(key); ok {
		return val.(*bucket)
	}
	fresh := newBucket(limit, now)
	actual, _ := l.buckets.LoadOrStore(key, fresh)
	return actual.(*bucket)
}

// Sweep 清除闲置超过 maxIdle 的桶，返回清除数量。
// maxIdle ≤ 0 时使用配置中的 MaxIdle。可与 Admit 安全并发：
// 被清除的桶若恰好仍被一次在途判定持有，该判定照常完成，
// 下一次触达会重新建桶（满桶起步），与首次观察语义一致。
func (l *Limiter) Sweep(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		maxIdle = l.cfg.MaxIdle
	}
	now := l.opts.clock.Now()

	removed := 0
	l.buckets.Range(func(key, val any) bool {
		b := val.(*bucket)
		if now.Sub(b.idleSince()) > maxIdle {
			l.buckets.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		l.opts.logger.Debug(context.Background(), "idle buckets swept",
			slog.Int("removed", removed),
			slog.Duration("max_idle", maxIdle),
		)
	}
	return removed
}

// Len 返回当前桶数量（瞬时快照，仅用于监控）。
func (l *Limiter) Len() int {
	n := 0
	l.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Config 返回生效配置的拷贝。
func (l *Limiter) Config() Config {
	return l.cfg.Clone()
}

// Close 关闭限流器并清空内部状态。幂等。
// 关闭后 Admit 放行所有请求（fail-open）。
func (l *Limiter) Close() error {
	if l.closed.CompareAndSwap(false, true) {
		l.buckets.Range(func(key, _ any) bool {
			l.buckets.Delete(key)
			return true
		})
	}
	return nil
}
