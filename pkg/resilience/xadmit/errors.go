package xadmit

import (
	"errors"
	"fmt"
	"time"
)

// 预定义错误，使用 errors.Is 进行比较
var (
	// ErrInvalidConfig 表示限流配置无效。
	ErrInvalidConfig = errors.New("xadmit: invalid config")

	// ErrRateLimited 表示请求被限流。
	ErrRateLimited = errors.New("xadmit: rate limited")
)

// LimitError 限流错误。
//
// 拒绝本身是正常业务结果（Result.Allowed=false），
// LimitError 供需要以 error 形式向上传播拒绝的调用方（如 Gateway）使用。
// 实现了 error 接口和 errors.Is 支持。
type LimitError struct {
	// ClientID 被限流的客户端标识
	ClientID string
	// Route 被限流的路由
	Route string
	// RetryAfter 建议重试等待时间
	RetryAfter time.Duration
}

// Error 实现 error 接口。
func (e *LimitError) Error() string {
	return fmt.Sprintf("xadmit: rate limited on route %q, retry after %ds",
		e.Route, int(e.RetryAfter.Seconds()))
}

// Is 支持 errors.Is 检查。
func (e *LimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Unwrap 返回底层错误。
func (e *LimitError) Unwrap() error {
	return ErrRateLimited
}

// IsDenied 检查错误是否为限流错误。
func IsDenied(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
