package metrics

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostStats 主机统计信息
type HostStats struct {
	Timestamp      time.Time `json:"timestamp"`
	Hostname       string    `json:"hostname"`
	Platform       string    `json:"platform"`
	UptimeSeconds  uint64    `json:"uptimeSeconds"`
	CPUPercent     float64   `json:"cpuPercent"`
	CPUCount       int       `json:"cpuCount"`
	MemoryTotal    uint64    `json:"memoryTotal"`
	MemoryUsed     uint64    `json:"memoryUsed"`
	MemoryPercent  float64   `json:"memoryPercent"`
	DiskTotal      uint64    `json:"diskTotal"`
	DiskFree       uint64    `json:"diskFree"`
	DiskPercent    float64   `json:"diskPercent"`
	ProcessRSS     uint64    `json:"processRss"`
	ProcessThreads int32     `json:"processThreads"`
	Goroutines     int       `json:"goroutines"`
	HeapAlloc      uint64    `json:"heapAlloc"`
}

// CollectHostStats samples the host. Individual probes that fail leave
// their fields zero.
func CollectHostStats(ctx context.Context) HostStats {
	stats := HostStats{
		Timestamp:  time.Now(),
		CPUCount:   runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
	}

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		stats.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryTotal = vm.Total
		stats.MemoryUsed = vm.Used
		stats.MemoryPercent = vm.UsedPercent
	}
	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		stats.DiskTotal = du.Total
		stats.DiskFree = du.Free
		stats.DiskPercent = du.UsedPercent
	}
	if hi, err := host.InfoWithContext(ctx); err == nil {
		stats.Hostname = hi.Hostname
		stats.Platform = hi.Platform
		stats.UptimeSeconds = hi.Uptime
	}
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			stats.ProcessRSS = mi.RSS
		}
		if n, err := p.NumThreadsWithContext(ctx); err == nil {
			stats.ProcessThreads = n
		}
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	stats.HeapAlloc = ms.HeapAlloc
	return stats
}
