package xclock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock 是组件依赖的最小时钟接口。
// 所有实现必须并发安全。
type Clock interface {
	// Now 返回当前时间（真实时钟带单调分量）。
	Now() time.Time

	// Since 返回自 t 以来经过的时长，等价于 Now().Sub(t)。
	Since(t time.Time) time.Duration
}

// Real 返回真实时钟。
// 返回值可被多个组件共享，无内部状态。
func Real() Clock {
	return clockwork.NewRealClock()
}

// Fake 是测试用假时钟，嵌入 clockwork.FakeClock。
// 通过 Advance 精确推进时间，所有方法并发安全。
type Fake struct {
	*clockwork.FakeClock
}

// NewFake 创建从 start 时刻开始的假时钟。
func NewFake(start time.Time) *Fake {
	return &Fake{FakeClock: clockwork.NewFakeClockAt(start)}
}

// 编译时接口检查
var (
	_ Clock = (clockwork.Clock)(nil)
	_ Clock = (*Fake)(nil)
)
