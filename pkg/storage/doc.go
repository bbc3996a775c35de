// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xfpcache: 基于请求指纹的进程内 TTL LRU 响应缓存
//
// 设计原则：
//   - 泛型接口，调用方决定缓存值类型
//   - 时钟可注入，过期语义可在测试中精确验证
package storage
