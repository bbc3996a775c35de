package xstats

import "time"

// ring 固定容量的延迟观测环形缓冲。
// 写满后覆盖最旧观测，只保留最近 capacity 次。非并发安全，
// 由 Collector 的锁保护。
type ring struct {
	buf  []time.Duration
	next int
	full bool
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]time.Duration, capacity)}
}

func (r *ring) append(d time.Duration) {
	r.buf[r.next] = d
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *ring) size() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// values 返回当前观测的副本，顺序不保证。
func (r *ring) values() []time.Duration {
	out := make([]time.Duration, r.size())
	copy(out, r.buf[:r.size()])
	return out
}

func (r *ring) reset() {
	r.next = 0
	r.full = false
}
