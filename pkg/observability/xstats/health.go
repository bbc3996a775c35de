package xstats

import (
	"fmt"
	"time"
)

// 健康评估阈值。
const (
	// unhealthyErrorRate 全局错误率超过此值判定为不健康
	unhealthyErrorRate = 0.10
	// warningErrorRate 全局错误率超过此值（但未达不健康线）仅告警
	warningErrorRate = 0.05
	// minUpstreamSuccessRate 上游成功率低于此值判定为不健康
	minUpstreamSuccessRate = 0.90
)

// 健康状态取值。
const (
	StatusHealthy   = "healthy"
	StatusWarning   = "warning"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus 基于当前指标的健康评估结果。
type HealthStatus struct {
	// Healthy 是否健康（告警不影响健康判定）
	Healthy bool `json:"healthy"`
	// Status healthy / warning / unhealthy
	Status string `json:"status"`
	// Warnings 告警与不健康原因的可读描述
	Warnings []string `json:"warnings,omitempty"`
}

// Health 评估当前健康状态。
//
// 不健康：全局错误率 > 10%，或（存在上游调用且）上游成功率 < 90%。
// 仅告警：错误率处于 (5%, 10%]，或任一路由平均延迟超过阈值。
// 评估基于单次 Snapshot，与并发写入不撕裂。
func (c *Collector) Health() HealthStatus {
	c.mu.Lock()
	report := c.snapshotLocked()
	threshold := c.meanLatencyThreshold
	c.mu.Unlock()

	status := HealthStatus{Healthy: true, Status: StatusHealthy}

	if report.ErrorRate > unhealthyErrorRate {
		status.Healthy = false
		status.Warnings = append(status.Warnings,
			fmt.Sprintf("error rate %.1f%% exceeds %.0f%%", report.ErrorRate*100, unhealthyErrorRate*100))
	} else if report.ErrorRate > warningErrorRate {
		status.Warnings = append(status.Warnings,
			fmt.Sprintf("elevated error rate %.1f%%", report.ErrorRate*100))
	}

	if report.Upstream.Calls > 0 && report.Upstream.SuccessRate < minUpstreamSuccessRate {
		status.Healthy = false
		status.Warnings = append(status.Warnings,
			fmt.Sprintf("upstream success rate %.1f%% below %.0f%%", report.Upstream.SuccessRate*100, minUpstreamSuccessRate*100))
	}

	for route, rr := range report.Routes {
		if rr.MeanLatency > threshold {
			status.Warnings = append(status.Warnings,
				fmt.Sprintf("route %s mean latency %s exceeds %s", route,
					rr.MeanLatency.Round(time.Millisecond), threshold))
		}
	}

	if !status.Healthy {
		status.Status = StatusUnhealthy
	} else if len(status.Warnings) > 0 {
		status.Status = StatusWarning
	}
	return status
}
