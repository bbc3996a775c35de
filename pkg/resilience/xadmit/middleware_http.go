package xadmit

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// MiddlewareOptions HTTP 中间件配置。
type MiddlewareOptions struct {
	// KeyExtractor 客户端标识提取器，默认 NewClientKeyExtractor()（无受信代理）。
	KeyExtractor *ClientKeyExtractor

	// SkipPaths 跳过限流的路径集合，默认只跳过 "/"。
	SkipPaths map[string]struct{}

	// DenyHandler 拒绝时的响应处理，默认写出 429 JSON。
	DenyHandler func(w http.ResponseWriter, r *http.Request, result *Result)

	// EnableHeaders 是否写出 X-RateLimit-* 响应头，默认开启。
	EnableHeaders bool
}

// MiddlewareOption 中间件配置选项。
type MiddlewareOption func(*MiddlewareOptions)

// WithKeyExtractor 设置客户端标识提取器。
func WithKeyExtractor(e *ClientKeyExtractor) MiddlewareOption {
	return func(o *MiddlewareOptions) {
		if e != nil {
			o.KeyExtractor = e
		}
	}
}

// WithSkipPaths 设置跳过限流的路径（覆盖默认值）。
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(o *MiddlewareOptions) {
		o.SkipPaths = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			o.SkipPaths[p] = struct{}{}
		}
	}
}

// WithDenyHandler 设置拒绝时的响应处理。
func WithDenyHandler(fn func(w http.ResponseWriter, r *http.Request, result *Result)) MiddlewareOption {
	return func(o *MiddlewareOptions) {
		if fn != nil {
			o.DenyHandler = fn
		}
	}
}

// WithHeaders 设置是否写出限流响应头。
func WithHeaders(enabled bool) MiddlewareOption {
	return func(o *MiddlewareOptions) {
		o.EnableHeaders = enabled
	}
}

// defaultMiddlewareOptions 返回默认中间件配置。
func defaultMiddlewareOptions() *MiddlewareOptions {
	extractor, _ := NewClientKeyExtractor()
	return &MiddlewareOptions{
		KeyExtractor:  extractor,
		SkipPaths:     map[string]struct{}{"/": {}},
		DenyHandler:   defaultDenyHandler,
		EnableHeaders: true,
	}
}

// defaultDenyHandler 写出 429 JSON 响应。
func defaultDenyHandler(w http.ResponseWriter, _ *http.Request, result *Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":       "rate limit exceeded",
		"message":     fmt.Sprintf("Too many requests. Please try again in %d seconds.", result.RetryAfterSeconds()),
		"retry_after": result.RetryAfterSeconds(),
	})
}

// Middleware 创建 HTTP 限流中间件。
// 按 r.URL.Path 作为路由标识执行准入判定，拒绝时在触达缓存与上游之前
// 直接返回 429。
//
// 示例:
//
//	limiter, _ := xadmit.New(xadmit.WithRoutes(...))
//	mux.Handle("/", xadmit.Middleware(limiter)(handler))
func Middleware(limiter *Limiter, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if limiter == nil {
		panic("xadmit: Middleware requires a non-nil Limiter")
	}

	mopts := defaultMiddlewareOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(mopts)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := mopts.SkipPaths[r.URL.Path]; skip {
				next.ServeHTTP(w, r)
				return
			}

			clientID := mopts.KeyExtractor.Extract(r)
			result := limiter.Admit(r.Context(), clientID, r.URL.Path)

			if mopts.EnableHeaders {
				result.SetHeaders(w)
			}

			if !result.Allowed {
				mopts.DenyHandler(w, r, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
