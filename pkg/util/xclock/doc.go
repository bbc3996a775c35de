// Package xclock 提供可注入的时钟抽象。
//
// 限流、缓存 TTL、指标窗口等所有时间相关逻辑都依赖 [Clock] 接口，
// 生产环境使用 [Real]，测试中使用 [NewFake] 注入可控时钟，
// 使令牌补充、过期判定等断言完全确定。
//
// # 使用示例
//
//	clk := xclock.NewFake(time.Unix(1700000000, 0))
//	limiter, _ := xadmit.New(xadmit.WithClock(clk))
//	clk.Advance(12 * time.Second) // 精确推进补充窗口
//
// # 设计决策
//
// 底层复用 jonboulle/clockwork 而非自研假时钟：
// clockwork 的 FakeClock 已处理好 Advance 与并发读取的内存可见性，
// 本包仅收窄接口到组件实际需要的 Now/Since 两个方法。
package xclock
