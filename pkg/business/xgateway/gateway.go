package xgateway

import (
	"context"
	"log/slog"

	"github.com/omeyang/gatekit/pkg/observability/xlog"
	"github.com/omeyang/gatekit/pkg/observability/xstats"
	"github.com/omeyang/gatekit/pkg/resilience/xadmit"
	"github.com/omeyang/gatekit/pkg/storage/xfpcache"
	"github.com/omeyang/gatekit/pkg/util/xclock"
)

// 网关路由常量。
const (
	RouteGenerate   = "/generate"
	RouteHealthz    = "/healthz"
	RouteMetrics    = "/metrics"
	RouteCacheStats = "/cache/stats"
	RouteCacheClear = "/admin/cache/clear"
	RouteSweep      = "/admin/sweep"
)

// Components 网关依赖的控制面组件，全部显式注入。
type Components struct {
	// Limiter 准入限流器
	Limiter *xadmit.Limiter
	// Cache 响应缓存
	Cache *xfpcache.Cache[*Response]
	// Stats 指标收集器
	Stats *xstats.Collector
	// Upstream 上游实现（通常为 ResilientUpstream 包装后的实例）
	Upstream Upstream
}

// options 网关配置选项。
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

// WithClock 注入时钟。
func WithClock(clock xclock.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// Gateway 代码生成请求的编排层。
// 必须通过 [New] 创建；所有方法并发安全。
type Gateway struct {
	limiter  *xadmit.Limiter
	cache    *xfpcache.Cache[*Response]
	stats    *xstats.Collector
	upstream Upstream
	logger   xlog.Logger
	clock    xclock.Clock
}

// New 创建网关。所有组件必填。
func New(c Components, opts ...Option) (*Gateway, error) {
	if c.Limiter == nil {
		return nil, ErrNilLimiter
	}
	if c.Cache == nil {
		return nil, ErrNilCache
	}
	if c.Stats == nil {
		return nil, ErrNilStats
	}
	if c.Upstream == nil {
		return nil, ErrNilUpstream
	}

	o := &options{
		logger: xlog.Nop(),
		clock:  xclock.Real(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	return &Gateway{
		limiter:  c.Limiter,
		cache:    c.Cache,
		stats:    c.Stats,
		upstream: c.Upstream,
		logger:   o.logger,
		clock:    o.clock,
	}, nil
}

// Generate 处理一次代码生成请求。
//
// 流水线：准入 → 指纹 → 缓存 → 上游 → 回填缓存。被拒绝时返回
// *xadmit.LimitError（携带 RetryAfter，供调用方转换为节流响应）；
// 缓存命中直接返回且不触达上游；上游成功后写入缓存并记一次
// 缓存未命中。上游调用不在任何组件锁内执行。
func (g *Gateway) Generate(ctx context.Context, clientID string, req Request) (*Response, Outcome, error) {
	if req.Description == "" {
		return nil, OutcomeUpstreamError, ErrInvalidRequest
	}

	result := g.limiter.Admit(ctx, clientID, RouteGenerate)
	if !result.Allowed {
		return nil, OutcomeDenied, result.Err(clientID)
	}

	fp, err := xfpcache.Fingerprint(req.ImageData, req.Description, req.TechStack, req.ProjectName)
	if err != nil {
		return nil, OutcomeUpstreamError, err
	}

	if resp, ok := g.cache.Get(fp); ok {
		g.stats.RecordCache(true)
		g.logger.Debug(ctx, "cache hit, skipping upstream",
			slog.String("fingerprint", fp))
		return resp, OutcomeCacheHit, nil
	}

	start := g.clock.Now()
	resp, err := g.upstream.Invoke(ctx, req)
	if err != nil {
		g.logger.Error(ctx, "upstream invocation failed",
			slog.String("fingerprint", fp),
			slog.Duration("duration", g.clock.Since(start)),
			slog.String("error", err.Error()))
		return nil, OutcomeUpstreamError, err
	}

	g.cache.Set(fp, resp)
	g.stats.RecordCache(false)
	g.logger.Info(ctx, "generation completed",
		slog.String("fingerprint", fp),
		slog.Duration("duration", g.clock.Since(start)),
		slog.Int64("tokens", resp.TokensUsed))
	return resp, OutcomeGenerated, nil
}

// Maintain 执行一轮维护：清扫闲置限流桶并清除过期缓存条目。
// 供周期任务与运维端点共用。
func (g *Gateway) Maintain(ctx context.Context) (bucketsSwept, entriesExpired int) {
	bucketsSwept = g.limiter.Sweep(0)
	entriesExpired = g.cache.CleanupExpired()
	g.logger.Debug(ctx, "maintenance pass completed",
		slog.Int("buckets_swept", bucketsSwept),
		slog.Int("entries_expired", entriesExpired))
	return bucketsSwept, entriesExpired
}
