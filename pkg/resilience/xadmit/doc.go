// Package xadmit 提供按 (客户端, 路由) 维度的令牌桶准入控制。
//
// # 设计理念
//
// xadmit 保护昂贵的上游调用（如代码生成服务）不被突发流量压垮。
// 采用连续补充的令牌桶算法：桶按 rate_per_minute/60 的速率持续补充，
// 每次放行消耗一个令牌，拒绝时给出整数秒的 Retry-After 建议值。
//
// # 核心概念
//
//   - Limiter：限流器，Admit 判定放行/拒绝，Sweep 回收闲置桶
//   - RouteLimit：路由级配置 {rate_per_minute, burst}，未知路由回退 default
//   - Result：判定结果，包含剩余配额与重试等待时间
//   - ClientKeyExtractor：从 HTTP 请求推导客户端身份（IP + User-Agent）
//
// # 快速开始
//
//	limiter, err := xadmit.New(
//	    xadmit.WithRoutes(map[string]xadmit.RouteLimit{
//	        "/generate": {RatePerMinute: 5, Burst: 2},
//	    }),
//	    xadmit.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer limiter.Close()
//
//	result := limiter.Admit(ctx, clientID, "/generate")
//	if !result.Allowed {
//	    // 转化为 429 响应，携带 result.RetryAfterSeconds()
//	}
//
// # HTTP 中间件
//
//	mux := http.NewServeMux()
//	mux.Handle("/", xadmit.Middleware(limiter)(handler))
//
// # 并发与维护
//
// 桶存储在 sync.Map 中，LoadOrStore 保证首次观察到的键只初始化一次；
// 每个桶由独立互斥锁保护，同键判定可线性化，异键互不阻塞。
// Sweep 与 Admit 可安全并发，长期运行进程应周期调用
// Sweep 回收闲置客户端的桶（推荐每 10 分钟一次）。
//
// # 失败语义
//
// Admit 对预期输入永不返回错误：未知路由回退 default 配置，
// 未知客户端惰性建桶。拒绝是正常业务结果而非异常。
//
// # 指标（OpenTelemetry，可选）
//
//   - xadmit.requests.total：判定总数 (Counter)
//   - xadmit.denied.total：拒绝数 (Counter)
//   - xadmit.check.duration：判定耗时 (Histogram)
package xadmit
