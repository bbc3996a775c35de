package xfpcache

import "errors"

var (
	// ErrInvalidCapacity 表示缓存容量配置无效。
	ErrInvalidCapacity = errors.New("xfpcache: capacity must be greater than 0")

	// ErrInvalidTTL 表示 TTL 配置无效。
	ErrInvalidTTL = errors.New("xfpcache: TTL must not be negative")
)
