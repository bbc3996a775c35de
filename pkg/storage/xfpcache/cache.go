package xfpcache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/omeyang/gatekit/pkg/util/xclock"
)

// Config 缓存配置。
type Config struct {
	// Capacity 缓存最大条目数，必须大于 0。
	Capacity int `json:"capacity" yaml:"capacity" koanf:"capacity"`

	// TTL 条目过期时间，0 表示永不过期，不允许负值。
	TTL time.Duration `json:"ttl" yaml:"ttl" koanf:"ttl"`
}

// entry 缓存条目：值加写入时间戳。
// 过期判定基于 stored_at 与注入时钟，条目逻辑上缺失的时刻
// 早于其被物理清除的时刻。
type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache 以指纹为键的 TTL LRU 缓存。
// 必须通过 [New] 创建；所有方法并发安全。
// 单把互斥锁保护 LRU 与计数器，临界区为 O(1)（CleanupExpired 为 O(n)）。
type Cache[V any] struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, entry[V]]

	capacity int
	ttl      time.Duration
	clock    xclock.Clock

	onEvicted func(key string, value V)
	// trackEvict 仅在 Set 路径为 true：此时底层 LRU 的淘汰回调
	// 对应容量压力淘汰，计入 evictions 并通知用户回调；
	// Delete/Clear/过期清除路径不计。
	trackEvict bool

	hits      uint64
	misses    uint64
	evictions uint64
}

// Option 缓存可选配置函数。
type Option[V any] func(*Cache[V])

// WithClock 注入时钟，测试中配合 xclock.NewFake 使用。
func WithClock[V any](clock xclock.Clock) Option[V] {
	return func(c *Cache[V]) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithOnEvicted 设置容量淘汰时的回调。
// 回调在缓存锁内同步执行：严禁回调中再调用 Cache 自身方法（死锁），
// 应避免耗时操作。
func WithOnEvicted[V any](fn func(key string, value V)) Option[V] {
	return func(c *Cache[V]) {
		c.onEvicted = fn
	}
}

// New 创建缓存。
// cfg.Capacity <= 0 返回 ErrInvalidCapacity；cfg.TTL < 0 返回 ErrInvalidTTL。
func New[V any](cfg Config, opts ...Option[V]) (*Cache[V], error) {
	if cfg.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if cfg.TTL < 0 {
		return nil, ErrInvalidTTL
	}

	c := &Cache[V]{
		capacity: cfg.Capacity,
		ttl:      cfg.TTL,
		clock:    xclock.Real(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	lru, err := simplelru.NewLRU[string, entry[V]](cfg.Capacity, c.handleEvict)
	if err != nil {
		return nil, err
	}
	c.lru = lru
	return c, nil
}

// handleEvict 底层 LRU 的淘汰回调，持锁状态下被调用。
func (c *Cache[V]) handleEvict(key string, ent entry[V]) {
	if !c.trackEvict {
		return
	}
	c.evictions++
	if c.onEvicted != nil {
		c.onEvicted(key, ent.value)
	}
}

// Get 获取缓存值。
// 键不存在或已过期（now - stored_at > ttl）时返回零值和 false；
// 过期条目在本次访问中被物理清除。命中时条目提升为最近使用。
func (c *Cache[V]) Get(fp string) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, found := c.lru.Get(fp)
	if !found {
		c.misses++
		return value, false
	}
	if c.expired(ent) {
		c.lru.Remove(fp)
		c.misses++
		return value, false
	}

	c.hits++
	return ent.value, true
}

// Set 写入缓存，stored_at 取当前时钟。
// 键已存在时覆盖并刷新 TTL 与近期性；容量已满且键为新键时
// 先淘汰最久未访问条目。返回是否触发了容量淘汰。
func (c *Cache[V]) Set(fp string, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.trackEvict = true
	evicted := c.lru.Add(fp, entry[V]{value: value, storedAt: c.clock.Now()})
	c.trackEvict = false
	return evicted
}

// Delete 删除缓存条目，返回键是否存在。
func (c *Cache[V]) Delete(fp string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Remove(fp)
}

// Clear 清空所有条目并重置统计计数。
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Purge()
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

// CleanupExpired 主动清除所有过期条目，返回清除数量。
// 供周期维护任务调用；逐条目 O(1) 删除，不会长时间阻塞请求路径。
func (c *Cache[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl <= 0 {
		return 0
	}

	removed := 0
	for _, key := range c.lru.Keys() {
		ent, ok := c.lru.Peek(key)
		if ok && c.expired(ent) {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}

// Len 返回当前条目数（可能包含已过期但尚未清除的条目）。
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// expired 判定条目是否过期。调用方必须持锁。
func (c *Cache[V]) expired(ent entry[V]) bool {
	return c.ttl > 0 && c.clock.Since(ent.storedAt) > c.ttl
}

// Stats 缓存统计信息。
type Stats struct {
	// Size 当前条目数
	Size int `json:"size"`
	// Capacity 容量上限
	Capacity int `json:"capacity"`
	// Hits 命中次数
	Hits uint64 `json:"hits"`
	// Misses 未命中次数（含过期）
	Misses uint64 `json:"misses"`
	// Evictions 容量淘汰次数
	Evictions uint64 `json:"evictions"`
	// HitRate 命中率 [0,1]，无访问时为 0
	HitRate float64 `json:"hit_rate"`
	// Lookups 总访问次数
	Lookups uint64 `json:"lookups"`
}

// Stats 返回统计快照（单次加锁读取，内部一致）。
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:      c.lru.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Lookups:   c.hits + c.misses,
	}
	if s.Lookups > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Lookups)
	}
	return s
}
