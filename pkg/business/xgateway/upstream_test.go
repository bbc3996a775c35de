package xgateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/gatekit/pkg/observability/xstats"
)

// flakyUpstream 先失败 failures 次，之后成功。
type flakyUpstream struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyUpstream) Invoke(_ context.Context, _ Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient: connection reset")
	}
	return &Response{Message: "ok", TokensUsed: 100, Cost: 0.01}, nil
}

func (f *flakyUpstream) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestStats(t *testing.T) *xstats.Collector {
	t.Helper()
	stats, err := xstats.New()
	require.NoError(t, err)
	return stats
}

func TestResilientUpstream_RetriesTransientErrors(t *testing.T) {
	stats := newTestStats(t)
	flaky := &flakyUpstream{failures: 2}

	ru, err := NewResilientUpstream(flaky, stats,
		WithAttempts(3),
		WithRetryDelay(time.Millisecond, 10*time.Millisecond),
	)
	require.NoError(t, err)

	resp, err := ru.Invoke(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message)
	assert.Equal(t, 3, flaky.callCount())

	// 每次实际尝试都计入上游指标
	up := stats.Snapshot().Upstream
	assert.Equal(t, uint64(3), up.Calls)
	assert.Equal(t, uint64(2), up.Failures)
	assert.Equal(t, int64(100), up.Tokens)
}

func TestResilientUpstream_ExhaustsAttempts(t *testing.T) {
	stats := newTestStats(t)
	flaky := &flakyUpstream{failures: 100}

	ru, err := NewResilientUpstream(flaky, stats,
		WithAttempts(3),
		WithRetryDelay(time.Millisecond, 10*time.Millisecond),
		WithBreakerThreshold(0.99, 100, time.Minute), // 测试期间不触发熔断
	)
	require.NoError(t, err)

	_, err = ru.Invoke(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 3, flaky.callCount())
}

func TestResilientUpstream_PermanentErrorNotRetried(t *testing.T) {
	stats := newTestStats(t)
	var calls int
	up := UpstreamFunc(func(context.Context, Request) (*Response, error) {
		calls++
		return nil, Permanent(errors.New("prompt rejected by policy"))
	})

	ru, err := NewResilientUpstream(up, stats,
		WithAttempts(5),
		WithRetryDelay(time.Millisecond, 10*time.Millisecond),
	)
	require.NoError(t, err)

	_, err = ru.Invoke(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 1, calls)
}

func TestResilientUpstream_BreakerOpensAndFastFails(t *testing.T) {
	stats := newTestStats(t)
	failing := UpstreamFunc(func(context.Context, Request) (*Response, error) {
		return nil, errors.New("upstream down")
	})

	ru, err := NewResilientUpstream(failing, stats,
		WithAttempts(1), // 重试交给调用方，聚焦熔断行为
		WithBreakerThreshold(0.5, 3, time.Minute),
	)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := ru.Invoke(ctx, sampleRequest())
		require.Error(t, err)
	}

	// 熔断已开：快速失败，不再产生真实尝试
	callsBefore := stats.Snapshot().Upstream.Calls
	_, err = ru.Invoke(ctx, sampleRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsBefore, stats.Snapshot().Upstream.Calls,
		"fast-fail must not count as an upstream attempt")
}

func TestResilientUpstream_NilArguments(t *testing.T) {
	stats := newTestStats(t)
	_, err := NewResilientUpstream(nil, stats)
	assert.ErrorIs(t, err, ErrNilUpstream)

	_, err = NewResilientUpstream(&fakeUpstream{}, nil)
	assert.ErrorIs(t, err, ErrNilStats)
}
