// Package health answers the liveness, readiness and detailed probes.
package health

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type CacheProbe interface {
	IsHealthy(ctx context.Context) bool
}

type HealthChecker struct {
	db    Pinger
	cache CacheProbe
	// diskPath is the volume reported by the detailed probe
	diskPath string
	started  time.Time
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type DetailedStatus struct {
	HealthStatus
	Cache  ComponentHealth `json:"cache"`
	System SystemStats     `json:"system"`
	Uptime string          `json:"uptime"`
}

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskFreeMB    uint64  `json:"disk_free_mb"`
}

// NewHealthChecker builds a checker. cache may be nil when Redis is off.
func NewHealthChecker(db Pinger, cache CacheProbe, diskPath string) *HealthChecker {
	if diskPath == "" {
		diskPath = "/"
	}
	return &HealthChecker{db: db, cache: cache, diskPath: diskPath, started: time.Now()}
}

func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	dbHealth := h.checkDatabase(ctx)

	status := StatusHealthy
	if dbHealth.Status != StatusHealthy {
		status = StatusUnhealthy
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
	}
}

// CheckDetailed adds the cache and host figures. A failing cache does not
// make the service unhealthy since token revocation degrades to a no-op.
func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	return DetailedStatus{
		HealthStatus: h.CheckBasic(ctx),
		Cache:        h.checkCache(ctx),
		System:       h.systemStats(ctx),
		Uptime:       time.Since(h.started).Round(time.Second).String(),
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{Status: StatusUnhealthy, ResponseTime: responseTime}
	}
	return ComponentHealth{Status: StatusHealthy, ResponseTime: responseTime}
}

func (h *HealthChecker) checkCache(ctx context.Context) ComponentHealth {
	if h.cache == nil {
		return ComponentHealth{Status: StatusDisabled}
	}
	start := time.Now()
	ok := h.cache.IsHealthy(ctx)
	c := ComponentHealth{Status: StatusHealthy, ResponseTime: time.Since(start).Milliseconds()}
	if !ok {
		c.Status = StatusUnhealthy
	}
	return c
}

// systemStats leaves a figure at zero when the host does not expose it
func (h *HealthChecker) systemStats(ctx context.Context) SystemStats {
	var s SystemStats
	if pct, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemoryPercent = vm.UsedPercent
		s.MemoryUsedMB = vm.Used / 1024 / 1024
	}
	if du, err := disk.UsageWithContext(ctx, h.diskPath); err == nil {
		s.DiskPercent = du.UsedPercent
		s.DiskFreeMB = du.Free / 1024 / 1024
	}
	return s
}
