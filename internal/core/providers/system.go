package providers

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
)

// SystemProvider supplies host-level metrics (cpu, memory, disk, load)
// as a snapshot tree rooted at "system"
type SystemProvider struct {
	logger   *logrus.Logger
	diskPath string
}

// NewSystemProvider creates a system metrics provider. diskPath is the
// mountpoint sampled for disk usage, "/" when empty.
func NewSystemProvider(logger *logrus.Logger, diskPath string) *SystemProvider {
	if diskPath == "" {
		diskPath = "/"
	}
	return &SystemProvider{logger: logger, diskPath: diskPath}
}

// Name implements alerting.SnapshotProvider
func (p *SystemProvider) Name() string { return "system" }

// GetSnapshot samples host metrics. Individual probe failures drop that
// subtree rather than failing the whole snapshot.
func (p *SystemProvider) GetSnapshot(ctx context.Context) (alerting.Snapshot, error) {
	system := make(map[string]interface{})

	if percentages, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percentages) > 0 {
		system["cpu"] = map[string]interface{}{
			"usagePercent": percentages[0],
		}
	} else if err != nil {
		p.logger.WithError(err).Debug("CPU sample failed")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		system["memory"] = map[string]interface{}{
			"usedPercent":    vm.UsedPercent,
			"availableBytes": float64(vm.Available),
		}
	} else {
		p.logger.WithError(err).Debug("Memory sample failed")
	}

	if usage, err := disk.UsageWithContext(ctx, p.diskPath); err == nil {
		system["disk"] = map[string]interface{}{
			"usedPercent": usage.UsedPercent,
			"freeBytes":   float64(usage.Free),
		}
	} else {
		p.logger.WithError(err).Debug("Disk sample failed")
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		system["load"] = map[string]interface{}{
			"one":     avg.Load1,
			"five":    avg.Load5,
			"fifteen": avg.Load15,
		}
	} else {
		p.logger.WithError(err).Debug("Load sample failed")
	}

	return alerting.Snapshot{"system": system}, nil
}
