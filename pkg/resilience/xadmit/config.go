package xadmit

import (
	"fmt"
	"time"
)

// RouteLimit 单条路由的限流配置。
type RouteLimit struct {
	// RatePerMinute 每分钟可持续放行的请求数。
	RatePerMinute float64 `json:"rate_per_minute" yaml:"rate_per_minute" koanf:"rate_per_minute"`

	// Burst 突发容量（桶内令牌上限），必须 ≥ 1。
	Burst int `json:"burst" yaml:"burst" koanf:"burst"`
}

// Validate 验证路由配置是否有效。
func (l RouteLimit) Validate() error {
	if l.RatePerMinute <= 0 {
		return fmt.Errorf("%w: rate_per_minute must be positive, got %v", ErrInvalidConfig, l.RatePerMinute)
	}
	if l.Burst < 1 {
		return fmt.Errorf("%w: burst must be at least 1, got %d", ErrInvalidConfig, l.Burst)
	}
	return nil
}

// refillRate 返回每秒补充的令牌数。
func (l RouteLimit) refillRate() float64 {
	return l.RatePerMinute / 60.0
}

// Config 限流器配置。
type Config struct {
	// Routes 路由级配置，键为路由标识（如 "/generate"）。
	Routes map[string]RouteLimit `json:"routes" yaml:"routes" koanf:"routes"`

	// Default 未知路由的回退配置。
	Default RouteLimit `json:"default" yaml:"default" koanf:"default"`

	// MaxIdle 闲置桶回收阈值：Sweep(0) 时清除超过该时长未活动的桶。
	MaxIdle time.Duration `json:"max_idle" yaml:"max_idle" koanf:"max_idle"`
}

// DefaultConfig 返回默认配置。
// 生成接口 5 次/分钟（突发 2），健康检查 60 次/分钟（突发 10），
// 其他路由 30 次/分钟（突发 5），闲置桶保留 1 小时。
func DefaultConfig() Config {
	return Config{
		Routes: map[string]RouteLimit{
			"/generate": {RatePerMinute: 5, Burst: 2},
			"/healthz":  {RatePerMinute: 60, Burst: 10},
		},
		Default: RouteLimit{RatePerMinute: 30, Burst: 5},
		MaxIdle: time.Hour,
	}
}

// Validate 验证配置是否有效。
func (c Config) Validate() error {
	if err := c.Default.Validate(); err != nil {
		return fmt.Errorf("default: %w", err)
	}
	for route, limit := range c.Routes {
		if route == "" {
			return fmt.Errorf("%w: empty route key", ErrInvalidConfig)
		}
		if err := limit.Validate(); err != nil {
			return fmt.Errorf("routes[%s]: %w", route, err)
		}
	}
	if c.MaxIdle < 0 {
		return fmt.Errorf("%w: max_idle cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Clone 创建配置的深拷贝。
func (c Config) Clone() Config {
	clone := c
	if c.Routes != nil {
		clone.Routes = make(map[string]RouteLimit, len(c.Routes))
		for k, v := range c.Routes {
			clone.Routes[k] = v
		}
	}
	return clone
}

// limitFor 解析路由的生效配置，未知路由回退 Default。
func (c Config) limitFor(route string) RouteLimit {
	if limit, ok := c.Routes[route]; ok {
		return limit
	}
	return c.Default
}
