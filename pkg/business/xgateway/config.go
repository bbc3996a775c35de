package xgateway

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/gatekit/pkg/resilience/xadmit"
	"github.com/omeyang/gatekit/pkg/storage/xfpcache"
)

// Format 配置文件格式。
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var (
	// ErrUnsupportedFormat 表示配置文件格式不受支持。
	ErrUnsupportedFormat = errors.New("xgateway: unsupported config format")

	// ErrInvalidConfig 表示配置校验失败。
	ErrInvalidConfig = errors.New("xgateway: invalid config")
)

// AuthConfig 静态 API Key 认证配置，默认关闭。
type AuthConfig struct {
	// Enabled 是否启用认证
	Enabled bool `koanf:"enabled"`
	// APIKey 静态密钥
	APIKey string `koanf:"api_key"`
	// Header 携带密钥的请求头，默认 X-API-Key
	Header string `koanf:"header"`
}

// MetricsConfig 指标收集配置。
type MetricsConfig struct {
	// WindowSize 每路由延迟窗口容量
	WindowSize int `koanf:"window_size"`
	// MeanLatencyThreshold 路由平均延迟告警阈值
	MeanLatencyThreshold time.Duration `koanf:"mean_latency_threshold"`
}

// SweepConfig 周期维护配置。
type SweepConfig struct {
	// Every 维护任务执行间隔
	Every time.Duration `koanf:"every"`
}

// UpstreamConfig 上游生成服务配置。
type UpstreamConfig struct {
	// URL 上游服务地址，serve 模式下必填
	URL string `koanf:"url"`
	// Timeout 单次调用超时
	Timeout time.Duration `koanf:"timeout"`
	// Attempts 总尝试次数（含首次）
	Attempts uint `koanf:"attempts"`
}

// LogConfig 日志配置。
type LogConfig struct {
	// Level debug/info/warn/error
	Level string `koanf:"level"`
	// Format json/text
	Format string `koanf:"format"`
	// File 日志文件路径，空表示标准错误输出
	File string `koanf:"file"`
}

// Config 网关进程配置，启动时加载一次，不参与热路径。
type Config struct {
	// Listen HTTP 监听地址
	Listen string `koanf:"listen"`
	// Auth 认证配置
	Auth AuthConfig `koanf:"auth"`
	// RateLimit 准入限流配置
	RateLimit xadmit.Config `koanf:"rate_limit"`
	// Cache 响应缓存配置
	Cache xfpcache.Config `koanf:"cache"`
	// Metrics 指标配置
	Metrics MetricsConfig `koanf:"metrics"`
	// Upstream 上游生成服务配置
	Upstream UpstreamConfig `koanf:"upstream"`
	// Sweep 周期维护配置
	Sweep SweepConfig `koanf:"sweep"`
	// Log 日志配置
	Log LogConfig `koanf:"log"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		Listen:    ":8080",
		Auth:      AuthConfig{Header: "X-API-Key"},
		RateLimit: xadmit.DefaultConfig(),
		Cache: xfpcache.Config{
			Capacity: 100,
			TTL:      time.Hour,
		},
		Metrics: MetricsConfig{
			WindowSize:           1000,
			MeanLatencyThreshold: 5 * time.Second,
		},
		Upstream: UpstreamConfig{
			Timeout:  2 * time.Minute,
			Attempts: 3,
		},
		Sweep: SweepConfig{
			Every: 10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate 校验配置。
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%w: listen address is empty", ErrInvalidConfig)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	if c.Cache.Capacity <= 0 {
		return xfpcache.ErrInvalidCapacity
	}
	if c.Cache.TTL < 0 {
		return xfpcache.ErrInvalidTTL
	}
	if c.Metrics.WindowSize <= 0 {
		return fmt.Errorf("%w: metrics window_size must be greater than 0", ErrInvalidConfig)
	}
	if c.Sweep.Every <= 0 {
		return fmt.Errorf("%w: sweep interval must be greater than 0", ErrInvalidConfig)
	}
	if c.Upstream.Attempts == 0 {
		return fmt.Errorf("%w: upstream attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("%w: auth enabled but api_key is empty", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig 从字节数据加载配置。
// 未出现的键保留默认值；加载后立即校验。
func LoadConfig(data []byte, format Format) (Config, error) {
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = kyaml.Parser()
	case FormatJSON:
		parser = kjson.Parser()
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	k := koanf.New(".")
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return cfg, fmt.Errorf("xgateway: parsing config: %w", err)
		}
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("xgateway: unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfigFile 从文件加载配置，按扩展名检测格式（.yaml/.yml/.json）。
func LoadConfigFile(path string) (Config, error) {
	format, err := detectFormat(path)
	if err != nil {
		return DefaultConfig(), err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("xgateway: reading config: %w", err)
	}
	return LoadConfig(data, format)
}

func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
