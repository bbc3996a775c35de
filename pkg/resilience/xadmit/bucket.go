package xadmit

import (
	"sync"
	"time"
)

// bucket 单个 (客户端, 路由) 的令牌桶。
// tokens 始终满足 0 ≤ tokens ≤ burst；lastRefill 同时充当活跃时间戳，
// 供 Sweep 判定闲置。
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// newBucket 惰性初始化：满桶起步。
func newBucket(limit RouteLimit, now time.Time) *bucket {
	return &bucket{
		tokens:     float64(limit.Burst),
		lastRefill: now,
	}
}

// admitOutcome 单次判定的内部结果。
type admitOutcome struct {
	allowed    bool
	remaining  int
	retryAfter time.Duration
	// corrected 表示判定前发现令牌数越界并被纠正（程序性错误的防御处理）
	corrected bool
}

// admit 执行一次连续令牌桶判定并消耗令牌。
//
// 补充速率为 rate_per_minute/60 令牌/秒；放行消耗 1.0 个令牌。
// 拒绝时的建议等待为 int((1-tokens)/rate)+1 秒：截断后加一，
// 非整数时等价于向上取整，整数边界时多留 1 秒余量，避免客户端过早重试。
func (b *bucket) admit(now time.Time, limit RouteLimit) admitOutcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out admitOutcome

	burst := float64(limit.Burst)
	rate := limit.refillRate()

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	tokens := b.tokens + elapsed*rate
	if tokens > burst {
		tokens = burst
	}
	if tokens < 0 {
		// 不变量 0 ≤ tokens ≤ burst 被破坏属于程序性错误，
		// 生产路径纠正后继续，由调用方记录日志。
		tokens = 0
		out.corrected = true
	}

	if tokens >= 1.0 {
		tokens -= 1.0
		b.tokens = tokens
		b.lastRefill = now
		out.allowed = true
		out.remaining = int(tokens)
		return out
	}

	b.tokens = tokens
	b.lastRefill = now
	waitSec := int((1.0-tokens)/rate) + 1
	out.retryAfter = time.Duration(waitSec) * time.Second
	return out
}

// idleSince 返回最后一次活动时间（加锁读取）。
func (b *bucket) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRefill
}
