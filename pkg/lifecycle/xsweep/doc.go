// Package xsweep 提供进程内周期维护任务的调度与统计。
//
// # 设计理念
//
// 限流桶的闲置清理、缓存的过期清除这类维护工作需要周期执行，
// 但不应该为此引入分布式协调：任务只作用于本进程内存，天然
// 单副本。xsweep 在 robfig/cron 之上收敛出最小表面——具名任务、
// 跳过重入、执行统计——把分布式锁等多副本机制留给真正需要的场景。
//
// # 核心概念
//
//   - Scheduler：具名任务注册 + 启动/优雅停止
//   - 跳过重入：上一轮尚未结束时本轮直接跳过，慢任务不会自我堆积
//   - JobStats：每任务的执行/失败计数与最近一次结果
//
// # 快速开始
//
//	sched := xsweep.New()
//	err := sched.Add("ratelimit-sweep", "@every 10m", func(ctx context.Context) error {
//	    removed := limiter.Sweep(0)
//	    _ = removed
//	    return nil
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sched.Start()
//	defer sched.Stop(context.Background())
package xsweep
