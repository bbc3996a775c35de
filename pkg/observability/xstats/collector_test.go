package xstats

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/omeyang/gatekit/pkg/util/xclock"
)

func newTestCollector(t *testing.T, opts ...Option) (*Collector, *xclock.Fake) {
	t.Helper()
	clk := xclock.NewFake(time.Unix(1700000000, 0))
	opts = append([]Option{WithClock(clk)}, opts...)
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("failed to create collector: %v", err)
	}
	return c, clk
}

func TestCollector_RecordRequest(t *testing.T) {
	c, clk := newTestCollector(t)

	c.RecordRequest("/generate", 200, 100*time.Millisecond)
	c.RecordRequest("/generate", 500, 200*time.Millisecond)
	c.RecordRequest("/healthz", 200, time.Millisecond)
	clk.Advance(10 * time.Second)

	report := c.Snapshot()
	if report.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", report.TotalRequests)
	}
	if report.TotalErrors != 1 {
		t.Errorf("TotalErrors = %d, want 1", report.TotalErrors)
	}

	gen := report.Routes["/generate"]
	if gen.Requests != 2 || gen.Errors != 1 {
		t.Errorf("generate route = %+v", gen)
	}
	if gen.MeanLatency != 150*time.Millisecond {
		t.Errorf("MeanLatency = %s, want 150ms", gen.MeanLatency)
	}
	if got := report.RequestsPerSecond; got != 0.3 {
		t.Errorf("RequestsPerSecond = %v, want 0.3", got)
	}
}

func TestCollector_ClientErrorCounts(t *testing.T) {
	c, _ := newTestCollector(t)

	// 4xx 与 5xx 都计为错误，399 不计
	c.RecordRequest("/generate", 399, time.Millisecond)
	c.RecordRequest("/generate", 400, time.Millisecond)
	c.RecordRequest("/generate", 429, time.Millisecond)
	c.RecordRequest("/generate", 503, time.Millisecond)

	if got := c.Snapshot().TotalErrors; got != 3 {
		t.Errorf("TotalErrors = %d, want 3", got)
	}
}

func TestCollector_Percentile(t *testing.T) {
	c, _ := newTestCollector(t)

	for _, ms := range []int{100, 200, 300, 400, 500} {
		c.RecordRequest("/generate", 200, time.Duration(ms)*time.Millisecond)
	}

	// n=5, int(0.95*5)=4 → 第 5 个元素
	got := c.Snapshot().Routes["/generate"].P95Latency
	if got != 500*time.Millisecond {
		t.Errorf("P95Latency = %s, want 500ms", got)
	}
}

func TestCollector_PercentileSingleObservation(t *testing.T) {
	c, _ := newTestCollector(t)
	c.RecordRequest("/generate", 200, 42*time.Millisecond)

	// n=1 时索引越界，钳位到最后一个元素
	got := c.Snapshot().Routes["/generate"].P95Latency
	if got != 42*time.Millisecond {
		t.Errorf("P95Latency = %s, want 42ms", got)
	}
}

func TestCollector_WindowOverwritesOldest(t *testing.T) {
	c, _ := newTestCollector(t, WithWindowSize(3))

	c.RecordRequest("/generate", 200, time.Hour) // 被覆盖的旧观测
	for i := 0; i < 3; i++ {
		c.RecordRequest("/generate", 200, 100*time.Millisecond)
	}

	rr := c.Snapshot().Routes["/generate"]
	if rr.MeanLatency != 100*time.Millisecond {
		t.Errorf("MeanLatency = %s, want 100ms (oldest observation dropped)", rr.MeanLatency)
	}
	if rr.Requests != 4 {
		t.Errorf("Requests = %d, want 4 (counters unaffected by window)", rr.Requests)
	}
}

func TestCollector_RecordUpstream(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordUpstream(true, 1000, 0.25)
	c.RecordUpstream(true, 2000, 0.5)
	c.RecordUpstream(false, 9999, 9.99) // 失败不累计用量

	up := c.Snapshot().Upstream
	if up.Calls != 3 || up.Failures != 1 {
		t.Errorf("upstream = %+v", up)
	}
	if up.Tokens != 3000 {
		t.Errorf("Tokens = %d, want 3000", up.Tokens)
	}
	if up.Cost != 0.75 {
		t.Errorf("Cost = %v, want 0.75", up.Cost)
	}
	if want := 2.0 / 3.0; up.SuccessRate != want {
		t.Errorf("SuccessRate = %v, want %v", up.SuccessRate, want)
	}
}

func TestCollector_RecordCache(t *testing.T) {
	c, _ := newTestCollector(t)

	c.RecordCache(true)
	c.RecordCache(true)
	c.RecordCache(true)
	c.RecordCache(false)

	cache := c.Snapshot().Cache
	if cache.Hits != 3 || cache.Misses != 1 {
		t.Errorf("cache = %+v", cache)
	}
	if cache.HitRate != 0.75 {
		t.Errorf("HitRate = %v, want 0.75", cache.HitRate)
	}
}

func TestCollector_ZeroDenominators(t *testing.T) {
	c, _ := newTestCollector(t)

	report := c.Snapshot() // 启动瞬间：uptime 为 0，无任何记录
	if report.ErrorRate != 0 || report.RequestsPerSecond != 0 ||
		report.Upstream.SuccessRate != 0 || report.Cache.HitRate != 0 {
		t.Errorf("zero-state rates must be 0: %+v", report)
	}
}

func TestCollector_Reset(t *testing.T) {
	c, clk := newTestCollector(t)

	c.RecordRequest("/generate", 500, time.Second)
	c.RecordUpstream(false, 0, 0)
	c.RecordCache(true)
	clk.Advance(time.Hour)

	c.Reset()

	report := c.Snapshot()
	if report.TotalRequests != 0 || report.Upstream.Calls != 0 || report.Cache.Hits != 0 {
		t.Errorf("counters not reset: %+v", report)
	}
	if report.Uptime != 0 {
		t.Errorf("Uptime after Reset = %s, want 0", report.Uptime)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{4 * time.Second, "4s"},
		{3*time.Minute + 4*time.Second, "3m 4s"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2h 3m 4s"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1d 2h 3m 4s"},
		{24 * time.Hour, "1d 0h 0m 0s"},
		{time.Hour, "1h 0m 0s"},
		{-time.Second, "0s"},
	}

	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	c, _ := newTestCollector(t, WithWindowSize(100))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			route := fmt.Sprintf("/r%d", worker%4)
			for j := 0; j < 250; j++ {
				c.RecordRequest(route, 200, time.Millisecond)
				c.RecordUpstream(j%10 != 0, 10, 0.01)
				c.RecordCache(j%2 == 0)
				if j%100 == 0 {
					c.Snapshot()
					c.Health()
				}
			}
		}(i)
	}
	wg.Wait()

	report := c.Snapshot()
	if report.TotalRequests != 2000 {
		t.Errorf("TotalRequests = %d, want 2000", report.TotalRequests)
	}
	if report.Upstream.Calls != 2000 {
		t.Errorf("Upstream.Calls = %d, want 2000", report.Upstream.Calls)
	}
	if got := report.Cache.Hits + report.Cache.Misses; got != 2000 {
		t.Errorf("cache lookups = %d, want 2000", got)
	}
}
