// Package xgateway 组装准入、缓存与指标，构成代码生成服务的网关层。
//
// # 设计理念
//
// 控制面组件（xadmit/xfpcache/xstats）保持纯库形态，xgateway 负责
// 把它们编排进一条请求流水线：先准入，再查缓存，最后才触达昂贵
// 且缓慢的上游。所有组件以显式实例注入，生命周期随进程启停，
// 不存在包级单例。
//
// # 请求流水线
//
//	准入判定 ──拒绝──→ 429 + Retry-After
//	    │通过
//	    ▼
//	指纹计算 → 缓存查询 ──命中──→ 直接返回（不触达上游）
//	    │未命中
//	    ▼
//	上游调用（重试 + 熔断）──成功──→ 写入缓存并返回
//
// # 核心概念
//
//   - Upstream：昂贵上游调用的抽象，测试中可替换为假实现
//   - ResilientUpstream：重试 + 熔断包装，每次尝试计入上游指标
//   - Gateway：流水线本体，Generate 为唯一业务入口
//   - Server：HTTP 服务 + 周期维护任务的组合生命周期
//
// # 快速开始
//
//	gw, err := xgateway.New(xgateway.Components{
//	    Limiter:  limiter,
//	    Cache:    cache,
//	    Stats:    stats,
//	    Upstream: upstream,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, outcome, err := gw.Generate(ctx, clientID, req)
package xgateway
