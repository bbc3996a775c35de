package xstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordBatch(c *Collector, route string, total, errors int, latency time.Duration) {
	for i := 0; i < total; i++ {
		status := 200
		if i < errors {
			status = 500
		}
		c.RecordRequest(route, status, latency)
	}
}

func TestHealth_CleanState(t *testing.T) {
	c, _ := newTestCollector(t)

	h := c.Health()
	assert.True(t, h.Healthy)
	assert.Equal(t, StatusHealthy, h.Status)
	assert.Empty(t, h.Warnings)
}

func TestHealth_ErrorRateUnhealthy(t *testing.T) {
	c, _ := newTestCollector(t)
	recordBatch(c, "/generate", 100, 11, time.Millisecond) // 11% > 10%

	h := c.Health()
	assert.False(t, h.Healthy)
	assert.Equal(t, StatusUnhealthy, h.Status)
	require.NotEmpty(t, h.Warnings)
	assert.Contains(t, h.Warnings[0], "error rate")
}

func TestHealth_ErrorRateWarning(t *testing.T) {
	c, _ := newTestCollector(t)
	recordBatch(c, "/generate", 100, 6, time.Millisecond) // 6%：告警但健康

	h := c.Health()
	assert.True(t, h.Healthy)
	assert.Equal(t, StatusWarning, h.Status)
	require.Len(t, h.Warnings, 1)
	assert.Contains(t, h.Warnings[0], "elevated error rate")
}

func TestHealth_ErrorRateBoundaries(t *testing.T) {
	// 恰好 10% 不算不健康，恰好 5% 不算告警（阈值为严格大于）。
	c, _ := newTestCollector(t)
	recordBatch(c, "/generate", 100, 10, time.Millisecond)
	h := c.Health()
	assert.True(t, h.Healthy)
	assert.Equal(t, StatusWarning, h.Status) // 10% 仍落在告警区间

	c.Reset()
	recordBatch(c, "/generate", 100, 5, time.Millisecond)
	h = c.Health()
	assert.True(t, h.Healthy)
	assert.Equal(t, StatusHealthy, h.Status)
}

func TestHealth_UpstreamSuccessRate(t *testing.T) {
	c, _ := newTestCollector(t)

	// 无上游调用时不评估成功率
	assert.True(t, c.Health().Healthy)

	for i := 0; i < 100; i++ {
		c.RecordUpstream(i >= 11, 10, 0.01) // 89% 成功
	}
	h := c.Health()
	assert.False(t, h.Healthy)
	require.NotEmpty(t, h.Warnings)
	assert.Contains(t, h.Warnings[0], "upstream success rate")
}

func TestHealth_SlowRouteWarning(t *testing.T) {
	c, _ := newTestCollector(t)
	recordBatch(c, "/generate", 10, 0, 6*time.Second) // 平均延迟 > 5s

	h := c.Health()
	assert.True(t, h.Healthy)
	assert.Equal(t, StatusWarning, h.Status)
	require.Len(t, h.Warnings, 1)
	assert.Contains(t, h.Warnings[0], "mean latency")
}

func TestHealth_CustomLatencyThreshold(t *testing.T) {
	c, _ := newTestCollector(t, WithMeanLatencyThreshold(100*time.Millisecond))
	recordBatch(c, "/generate", 10, 0, 200*time.Millisecond)

	assert.Equal(t, StatusWarning, c.Health().Status)
}

func TestHealth_CombinedReasons(t *testing.T) {
	c, _ := newTestCollector(t)
	recordBatch(c, "/generate", 100, 11, 6*time.Second)
	for i := 0; i < 10; i++ {
		c.RecordUpstream(false, 0, 0)
	}

	h := c.Health()
	assert.False(t, h.Healthy)
	assert.Len(t, h.Warnings, 3) // 错误率 + 上游成功率 + 慢路由
}
