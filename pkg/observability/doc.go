// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xstats: 进程内请求指标收集，滑动窗口延迟分位与健康评估
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 指标收集零外部依赖，快照读取不阻塞热路径
package observability
