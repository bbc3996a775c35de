// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xclock: 可注入时钟抽象，测试中可冻结与推进时间
package util
