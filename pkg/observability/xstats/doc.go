// Package xstats 提供网关运行指标的采集、快照与健康评估。
//
// # 设计理念
//
// 运营侧需要回答三个问题：流量长什么样（每路由请求/错误/延迟）、
// 上游调用是否可靠（成功率/token/成本）、缓存是否有效（命中率）。
// xstats 把这三类计数收敛到一个 Collector：写路径是锁内 O(1) 的
// 计数更新，读路径是单次加锁的一致性快照，派生指标（速率、p95、
// 命中率）全部基于同一次读取计算，避免跨字段撕裂。
//
// # 核心概念
//
//   - Collector：并发安全的计数器集合，Record* 系列方法供请求
//     路径调用
//   - 滑动窗口：每路由固定容量的延迟环形缓冲，仅保留最近 N 次
//     观测，p95 按精确排序计算
//   - Report：Snapshot 返回的只读报告，含运行时长、全局与
//     每路由统计、上游与缓存统计
//   - HealthStatus：基于快照的派生健康策略，区分不健康与仅告警
//
// # 快速开始
//
//	stats, err := xstats.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stats.RecordRequest("/generate", 200, 1200*time.Millisecond)
//	stats.RecordUpstream(true, 4096, 0.12)
//	stats.RecordCache(false)
//
//	report := stats.Snapshot()
//	health := stats.Health()
//
// # 可选 OTel 导出
//
// 通过 WithMeterProvider 注入后，Record* 调用点同时写入 OTel
// 计数器与直方图；不注入时零开销。
package xstats
