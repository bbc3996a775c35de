package xgateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/gatekit/pkg/resilience/xadmit"
)

// maxRequestBody 请求体大小上限（设计图以 base64 内嵌）。
const maxRequestBody = 10 << 20

// requestIDHeader 请求 ID 透传头。
const requestIDHeader = "X-Request-ID"

type ctxKeyRequestID struct{}

// RequestIDFromContext 取出当前请求的请求 ID，不存在时返回空串。
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

// routeOptions HTTP 路由配置。
type routeOptions struct {
	extractor *xadmit.ClientKeyExtractor
	auth      AuthConfig
}

// RouteOption HTTP 路由配置选项函数。
type RouteOption func(*routeOptions)

// WithRouteKeyExtractor 设置客户端标识提取器。
func WithRouteKeyExtractor(e *xadmit.ClientKeyExtractor) RouteOption {
	return func(o *routeOptions) {
		if e != nil {
			o.extractor = e
		}
	}
}

// WithRouteAuth 启用静态 API Key 认证。
func WithRouteAuth(auth AuthConfig) RouteOption {
	return func(o *routeOptions) {
		o.auth = auth
	}
}

// Routes 构建网关 HTTP 入口。
//
// 中间件自外向内：请求 ID → 请求指标 → 认证（可选）→ 准入。
// /generate 的准入在 Generate 流水线内部完成（以便在响应体携带
// retry_after），中间件层跳过该路径避免重复扣减；/healthz 走
// 中间件准入，使用其独立的路由限额。
func (g *Gateway) Routes(opts ...RouteOption) http.Handler {
	o := &routeOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.extractor == nil {
		o.extractor, _ = xadmit.NewClientKeyExtractor()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+RouteGenerate, g.handleGenerate(o.extractor))
	mux.HandleFunc("GET "+RouteHealthz, g.handleHealthz)
	mux.HandleFunc("GET "+RouteMetrics, g.handleMetrics)
	mux.HandleFunc("GET "+RouteCacheStats, g.handleCacheStats)
	mux.HandleFunc("POST "+RouteCacheClear, g.handleCacheClear)
	mux.HandleFunc("POST "+RouteSweep, g.handleSweep)

	var h http.Handler = mux
	h = xadmit.Middleware(g.limiter,
		xadmit.WithKeyExtractor(o.extractor),
		xadmit.WithSkipPaths(RouteGenerate),
		xadmit.WithHeaders(true),
	)(h)
	if o.auth.Enabled {
		h = g.authMiddleware(o.auth)(h)
	}
	h = g.metricsMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

// handleGenerate POST /generate。
func (g *Gateway) handleGenerate(extractor *xadmit.ClientKeyExtractor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
			return
		}

		resp, outcome, err := g.Generate(r.Context(), extractor.Extract(r), req)
		if err != nil {
			var limitErr *xadmit.LimitError
			switch {
			case errors.As(err, &limitErr):
				w.Header().Set("Retry-After", formatSeconds(limitErr.RetryAfter))
				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":       "rate_limited",
					"message":     "too many requests, slow down",
					"retry_after": int(limitErr.RetryAfter / time.Second),
				})
			case errors.Is(err, ErrInvalidRequest):
				writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			default:
				writeError(w, http.StatusBadGateway, "upstream_failed", "code generation failed")
			}
			return
		}

		w.Header().Set("X-Cache", cacheHeader(outcome))
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleHealthz GET /healthz。
func (g *Gateway) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	health := g.stats.Health()
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// handleMetrics GET /metrics。
func (g *Gateway) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, g.stats.Snapshot())
}

// handleCacheStats GET /cache/stats。
func (g *Gateway) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, g.cache.Stats())
}

// handleCacheClear POST /admin/cache/clear。
func (g *Gateway) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	g.cache.Clear()
	g.logger.Info(r.Context(), "cache cleared by operator",
		slog.String("request_id", RequestIDFromContext(r.Context())))
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

// handleSweep POST /admin/sweep。
func (g *Gateway) handleSweep(w http.ResponseWriter, r *http.Request) {
	buckets, entries := g.Maintain(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"buckets_swept":   buckets,
		"entries_expired": entries,
	})
}

// requestIDMiddleware 为每个请求分配或透传请求 ID。
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID{}, id)))
	})
}

// metricsMiddleware 以最终状态码和墙钟耗时记录每个完成的请求。
func (g *Gateway) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := g.clock.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		g.stats.RecordRequest(r.URL.Path, rec.status, g.clock.Since(start))
	})
}

// authMiddleware 静态 API Key 校验，/healthz 豁免以免探活需要凭据。
func (g *Gateway) authMiddleware(auth AuthConfig) func(http.Handler) http.Handler {
	header := auth.Header
	if header == "" {
		header = "X-API-Key"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == RouteHealthz {
				next.ServeHTTP(w, r)
				return
			}
			if r.Header.Get(header) != auth.APIKey {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder 捕获写出的状态码。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func cacheHeader(outcome Outcome) string {
	if outcome == OutcomeCacheHit {
		return "HIT"
	}
	return "MISS"
}

func formatSeconds(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
