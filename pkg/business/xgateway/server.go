package xgateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/omeyang/gatekit/pkg/lifecycle/xrun"
	"github.com/omeyang/gatekit/pkg/lifecycle/xsweep"
	"github.com/omeyang/gatekit/pkg/observability/xlog"
)

// 维护任务名，供日志与 Trigger 引用。
const (
	jobRateLimitSweep = "ratelimit-sweep"
	jobCacheCleanup   = "cache-cleanup"
)

// shutdownTimeout 优雅关闭的在途请求等待上限。
const shutdownTimeout = 10 * time.Second

// Server 网关进程：HTTP 服务与周期维护任务的组合生命周期。
type Server struct {
	gateway *Gateway
	cfg     Config
	logger  xlog.Logger
	handler http.Handler
	sched   *xsweep.Scheduler
}

// NewServer 构建网关进程。
// 维护任务（限流桶清扫 + 缓存过期清除）按 cfg.Sweep.Every 周期注册。
func NewServer(gw *Gateway, cfg Config, opts ...RouteOption) (*Server, error) {
	if gw == nil {
		return nil, errors.New("xgateway: nil gateway")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Auth.Enabled {
		opts = append(opts, WithRouteAuth(cfg.Auth))
	}

	sched := xsweep.New(xsweep.WithLogger(gw.logger))
	every := "@every " + cfg.Sweep.Every.String()
	if err := sched.Add(jobRateLimitSweep, every, func(context.Context) error {
		gw.limiter.Sweep(0)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := sched.Add(jobCacheCleanup, every, func(context.Context) error {
		gw.cache.CleanupExpired()
		return nil
	}); err != nil {
		return nil, err
	}

	return &Server{
		gateway: gw,
		cfg:     cfg,
		logger:  gw.logger,
		handler: gw.Routes(opts...),
		sched:   sched,
	}, nil
}

// Handler 返回组装好的 HTTP 入口，供测试或自定义监听使用。
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Scheduler 返回维护任务调度器。
func (s *Server) Scheduler() *xsweep.Scheduler {
	return s.sched
}

// Run 启动 HTTP 服务与维护调度器，阻塞到信号退出或服务失败。
// 信号退出返回 nil；其他错误原样返回。
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.sched.Start()
	s.logger.Info(ctx, "gateway listening",
		slog.String("addr", s.cfg.Listen),
		slog.Duration("sweep_every", s.cfg.Sweep.Every))

	err := xrun.Run(ctx,
		[]xrun.Option{
			xrun.WithName("gategw"),
			xrun.WithLogger(s.logger),
		},
		xrun.HTTPServer(httpServer, shutdownTimeout),
		func(ctx context.Context) error {
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return s.sched.Stop(stopCtx)
		},
	)
	if errors.Is(err, xrun.ErrSignal) {
		return nil
	}
	return err
}
