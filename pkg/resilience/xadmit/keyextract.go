package xadmit

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// defaultUserAgentLimit User-Agent 截断长度，限制复合键的内存占用。
const defaultUserAgentLimit = 50

// ClientKeyExtractor 从 HTTP 请求推导客户端标识。
//
// 标识格式为 "ip:user-agent"（User-Agent 截断到固定长度）。
// 默认使用连接对端地址；仅当对端位于受信代理网段内时，
// 才采信 X-Forwarded-For 中最左侧的客户端地址，
// 防止伪造头部绕过限流。
type ClientKeyExtractor struct {
	trusted  *netipx.IPSet
	uaMaxLen int
}

// KeyExtractorOption 键提取器配置选项。
type KeyExtractorOption func(*keyExtractorConfig)

type keyExtractorConfig struct {
	trustedCIDRs []string
	uaMaxLen     int
}

// WithTrustedProxies 设置受信代理网段（CIDR 表示）。
// 仅来自这些网段的连接才允许通过 X-Forwarded-For 声明真实客户端 IP。
func WithTrustedProxies(cidrs ...string) KeyExtractorOption {
	return func(c *keyExtractorConfig) {
		c.trustedCIDRs = append(c.trustedCIDRs, cidrs...)
	}
}

// WithUserAgentLimit 设置 User-Agent 截断长度，默认 50。
func WithUserAgentLimit(n int) KeyExtractorOption {
	return func(c *keyExtractorConfig) {
		if n > 0 {
			c.uaMaxLen = n
		}
	}
}

// NewClientKeyExtractor 创建客户端键提取器。
// CIDR 无法解析时返回错误。
func NewClientKeyExtractor(opts ...KeyExtractorOption) (*ClientKeyExtractor, error) {
	cfg := &keyExtractorConfig{uaMaxLen: defaultUserAgentLimit}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	e := &ClientKeyExtractor{uaMaxLen: cfg.uaMaxLen}

	if len(cfg.trustedCIDRs) > 0 {
		var builder netipx.IPSetBuilder
		for _, cidr := range cfg.trustedCIDRs {
			prefix, err := netip.ParsePrefix(cidr)
			if err != nil {
				return nil, fmt.Errorf("%w: trusted proxy cidr %q: %v", ErrInvalidConfig, cidr, err)
			}
			builder.AddPrefix(prefix)
		}
		set, err := builder.IPSet()
		if err != nil {
			return nil, fmt.Errorf("%w: building trusted proxy set: %v", ErrInvalidConfig, err)
		}
		e.trusted = set
	}

	return e, nil
}

// Extract 返回请求的客户端标识。
// 请求为 nil 时返回 "unknown:unknown"。
func (e *ClientKeyExtractor) Extract(r *http.Request) string {
	if r == nil {
		return "unknown:unknown"
	}
	return e.clientIP(r) + ":" + e.userAgent(r)
}

// clientIP 解析客户端 IP。
func (e *ClientKeyExtractor) clientIP(r *http.Request) string {
	peer := remoteIP(r.RemoteAddr)

	if e.trusted != nil {
		if addr, err := netip.ParseAddr(peer); err == nil && e.trusted.Contains(addr.Unmap()) {
			if forwarded := firstForwardedFor(r.Header.Get("X-Forwarded-For")); forwarded != "" {
				return forwarded
			}
		}
	}

	if peer == "" {
		return "unknown"
	}
	return peer
}

// userAgent 返回截断后的 User-Agent。
func (e *ClientKeyExtractor) userAgent(r *http.Request) string {
	ua := r.UserAgent()
	if ua == "" {
		return "unknown"
	}
	if len(ua) > e.uaMaxLen {
		ua = ua[:e.uaMaxLen]
	}
	return ua
}

// remoteIP 从 RemoteAddr 剥离端口；无端口时原样返回。
func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// firstForwardedFor 返回 X-Forwarded-For 最左侧的合法 IP。
func firstForwardedFor(header string) string {
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	first = strings.TrimSpace(first)
	if _, err := netip.ParseAddr(first); err != nil {
		return ""
	}
	return first
}
