package health

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Above these the host itself can explain slow or timed-out refresh cycles.
const (
	cpuPressurePercent    = 90.0
	memoryPressurePercent = 90.0
)

// HostMetrics describes the machine the dashboard runs on. Readings that could not
// be taken are listed in Unavailable and left zero.
type HostMetrics struct {
	CPUUsagePercent    float64  `json:"cpu_usage_percent"`
	MemoryUsagePercent float64  `json:"memory_usage_percent"`
	MemoryTotalBytes   uint64   `json:"memory_total_bytes"`
	LoadAvg1m          float64  `json:"load_1m"`
	Unavailable        []string `json:"unavailable,omitempty"`
}

func CollectHost(ctx context.Context) HostMetrics {
	var m HostMetrics

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		m.CPUUsagePercent = pct[0]
	} else {
		m.Unavailable = append(m.Unavailable, "cpu")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		m.MemoryUsagePercent = vm.UsedPercent
		m.MemoryTotalBytes = vm.Total
	} else {
		m.Unavailable = append(m.Unavailable, "memory")
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.LoadAvg1m = avg.Load1
	} else {
		m.Unavailable = append(m.Unavailable, "load")
	}

	return m
}

// Pressure returns one warning per resource past its threshold.
func (m HostMetrics) Pressure() []string {
	var warnings []string
	if m.CPUUsagePercent >= cpuPressurePercent {
		warnings = append(warnings, fmt.Sprintf("host cpu at %.0f%%", m.CPUUsagePercent))
	}
	if m.MemoryUsagePercent >= memoryPressurePercent {
		warnings = append(warnings, fmt.Sprintf("host memory at %.0f%%", m.MemoryUsagePercent))
	}
	return warnings
}
