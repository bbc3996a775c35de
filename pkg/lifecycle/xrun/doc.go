// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// # 设计理念
//
// 网关进程由多个长生命周期服务组成（HTTP 服务、周期维护调度器），
// 任一服务失败或收到终止信号时，其余服务都应收到取消并优雅退出。
// xrun 把这套协调收敛为一个 Group：服务以 func(ctx) error 注册，
// 第一个非 nil 错误触发全体取消，Wait 返回分类后的退出原因。
//
// # 核心概念
//
//   - Group：errgroup + context.WithCancelCause 的组合，取消原因
//     不会在传播中丢失
//   - Run：注册信号监听 + 服务并等待退出的一步式入口
//   - HTTPServer：把 http.Server 适配为支持优雅关闭的服务函数
//   - SignalError：信号退出的显式错误类型，errors.Is(err, ErrSignal)
//     可判定
//
// # 快速开始
//
//	err := xrun.Run(ctx,
//	    xrun.HTTPServer(server, 10*time.Second),
//	    func(ctx context.Context) error {
//	        <-ctx.Done()
//	        return sched.Stop(context.Background())
//	    },
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 正常的信号退出
//	}
package xrun
