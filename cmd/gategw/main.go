// gategw 是代码生成网关服务的进程入口。
//
// 用法:
//
//	gategw serve --config gategw.yaml    # 启动网关
//	gategw defaults                      # 打印默认配置
//
// 退出码:
//
//	0: 正常退出（含信号触发的优雅关闭）
//	1: 配置错误或运行期失败
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/gatekit/pkg/business/xgateway"
	"github.com/omeyang/gatekit/pkg/observability/xlog"
	"github.com/omeyang/gatekit/pkg/observability/xstats"
	"github.com/omeyang/gatekit/pkg/resilience/xadmit"
	"github.com/omeyang/gatekit/pkg/storage/xfpcache"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	app := createApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "gategw",
		Usage:   "代码生成网关：准入限流 + 响应缓存 + 运行指标",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "启动网关服务",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "配置文件路径（.yaml/.yml/.json），缺省使用默认配置",
					},
				},
				Action: serveAction,
			},
			{
				Name:   "defaults",
				Usage:  "打印默认配置",
				Action: defaultsAction,
			},
		},
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg := xgateway.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		loaded, err := xgateway.LoadConfigFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cfg.Upstream.URL == "" {
		return fmt.Errorf("gategw: upstream.url is required in serve mode")
	}

	logger, closeLog, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	srv, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// buildLogger 按配置构建日志记录器。
func buildLogger(cfg xgateway.LogConfig) (xlog.Logger, func() error, error) {
	level, err := xlog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	opts := []xlog.Option{xlog.WithLevel(level)}
	if cfg.Format == "text" {
		opts = append(opts, xlog.WithFormat(xlog.FormatText))
	}
	if cfg.File != "" {
		opts = append(opts, xlog.WithRotateFile(cfg.File, 100, 5, 30))
	}
	return xlog.New(opts...)
}

// buildServer 自底向上组装：控制面组件 → 上游 → 网关 → 进程。
func buildServer(cfg xgateway.Config, logger xlog.Logger) (*xgateway.Server, error) {
	limiter, err := xadmit.New(
		xadmit.WithConfig(cfg.RateLimit),
		xadmit.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	cache, err := xfpcache.New[*xgateway.Response](cfg.Cache)
	if err != nil {
		return nil, err
	}

	stats, err := xstats.New(
		xstats.WithWindowSize(cfg.Metrics.WindowSize),
		xstats.WithMeanLatencyThreshold(cfg.Metrics.MeanLatencyThreshold),
	)
	if err != nil {
		return nil, err
	}

	httpUpstream, err := xgateway.NewHTTPUpstream(cfg.Upstream.URL, &http.Client{
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		return nil, err
	}
	upstream, err := xgateway.NewResilientUpstream(httpUpstream, stats,
		xgateway.WithAttempts(cfg.Upstream.Attempts),
		xgateway.WithUpstreamLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	gw, err := xgateway.New(xgateway.Components{
		Limiter:  limiter,
		Cache:    cache,
		Stats:    stats,
		Upstream: upstream,
	}, xgateway.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return xgateway.NewServer(gw, cfg)
}

func defaultsAction(_ context.Context, _ *cli.Command) error {
	fmt.Print(defaultConfigYAML)
	return nil
}

// defaultConfigYAML 与 xgateway.DefaultConfig() 保持一致。
const defaultConfigYAML = `listen: ":8080"

auth:
  enabled: false
  api_key: ""
  header: "X-API-Key"

rate_limit:
  routes:
    /generate:
      rate_per_minute: 5
      burst: 2
    /healthz:
      rate_per_minute: 60
      burst: 10
  default:
    rate_per_minute: 30
    burst: 5
  max_idle: 1h

cache:
  capacity: 100
  ttl: 1h

metrics:
  window_size: 1000
  mean_latency_threshold: 5s

upstream:
  url: ""
  timeout: 2m
  attempts: 3

sweep:
  every: 10m

log:
  level: info
  format: json
  file: ""
`
