package xadmit

import (
	"net/http"
	"strconv"
	"time"
)

// Result 准入判定结果。
type Result struct {
	// Allowed 是否放行
	Allowed bool

	// Route 判定使用的路由标识
	Route string

	// Limit 路由的每分钟配额（来自生效配置）
	Limit float64

	// Remaining 判定后桶内剩余的完整令牌数
	Remaining int

	// RetryAfter 建议重试等待时间（仅 Allowed=false 时有意义，≥ 1s）
	RetryAfter time.Duration
}

// RetryAfterSeconds 返回整数秒的重试等待时间，适合 Retry-After 头。
func (r *Result) RetryAfterSeconds() int {
	return int(r.RetryAfter / time.Second)
}

// Headers 返回标准限流响应头。
//   - X-RateLimit-Limit：每分钟配额
//   - X-RateLimit-Remaining：剩余令牌
//   - Retry-After：重试等待秒数（仅被拒绝时）
func (r *Result) Headers() map[string]string {
	headers := map[string]string{
		"X-RateLimit-Limit":     strconv.FormatFloat(r.Limit, 'f', -1, 64),
		"X-RateLimit-Remaining": strconv.Itoa(r.Remaining),
	}
	if !r.Allowed && r.RetryAfter > 0 {
		headers["Retry-After"] = strconv.Itoa(r.RetryAfterSeconds())
	}
	return headers
}

// SetHeaders 将限流响应头写入 http.ResponseWriter。
func (r *Result) SetHeaders(w http.ResponseWriter) {
	for key, value := range r.Headers() {
		w.Header().Set(key, value)
	}
}

// Err 将拒绝结果转化为 *LimitError；放行结果返回 nil。
func (r *Result) Err(clientID string) error {
	if r.Allowed {
		return nil
	}
	return &LimitError{ClientID: clientID, Route: r.Route, RetryAfter: r.RetryAfter}
}
