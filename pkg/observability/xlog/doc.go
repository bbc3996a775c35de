// Package xlog 提供轻量的结构化日志接口与 slog 实现。
//
// # 设计理念
//
//   - 强制 context 传递，方法签名只接受 slog.Attr，避免隐式 key-value 转换
//   - 动态级别控制：共享 slog.LevelVar，运行时调整即时生效
//   - 可选文件轮转：基于 lumberjack，New 返回 cleanup 函数负责释放
//
// # 使用示例
//
//	logger, cleanup, err := xlog.New(
//	    xlog.WithLevel(slog.LevelInfo),
//	    xlog.WithRotateFile("/var/log/gategw.log", 100, 5, 30),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	defer cleanup()
//
//	logger.Info(ctx, "server started", slog.String("listen", ":8080"))
//
// 组件内部统一依赖 [Logger] 接口；不需要日志时传入 [Nop]。
package xlog
