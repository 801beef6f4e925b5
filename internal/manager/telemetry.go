package manager

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"easynetes/internal/models"
)

const telemetryInterval = 5 * time.Second

// Telemetry samples the console host in the background and serves the last snapshot.
type Telemetry struct {
	diskPath string

	mu       sync.RWMutex
	snapshot *models.SystemTelemetry
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewTelemetry(diskPath string) *Telemetry {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Telemetry{diskPath: diskPath}
}

// Start launches the sampler. Calling Start twice is a no-op.
func (t *Telemetry) Start() {
	t.mu.Lock()
	if t.stop != nil {
		t.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(telemetryInterval)
		defer ticker.Stop()
		ctx := context.Background()
		t.refresh(ctx)
		for {
			select {
			case <-ticker.C:
				t.refresh(ctx)
			case <-stop:
				return
			}
		}
	}()
}

// Stop stops the sampler and waits for it to exit.
func (t *Telemetry) Stop() {
	t.mu.Lock()
	stop := t.stop
	t.stop = nil
	t.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	t.wg.Wait()
}

// Snapshot returns the latest sample, collecting one synchronously when none exists.
func (t *Telemetry) Snapshot(ctx context.Context) *models.SystemTelemetry {
	t.mu.RLock()
	snap := t.snapshot
	t.mu.RUnlock()
	if snap != nil {
		cp := *snap
		return &cp
	}
	return t.refresh(ctx)
}

func (t *Telemetry) refresh(ctx context.Context) *models.SystemTelemetry {
	snap := t.collect(ctx)
	t.mu.Lock()
	t.snapshot = snap
	t.mu.Unlock()
	cp := *snap
	return &cp
}

func (t *Telemetry) collect(ctx context.Context) *models.SystemTelemetry {
	snap := &models.SystemTelemetry{
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		CPUCores:  runtime.NumCPU(),
		SampledAt: time.Now(),
	}
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		snap.CPUPercent = clampFloat(pct[0], 0, 100)
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		snap.MemoryPercent = clampFloat(vm.UsedPercent, 0, 100)
		snap.MemoryUsed = vm.Used
		snap.MemoryTotal = vm.Total
	}
	if du, err := disk.UsageWithContext(ctx, t.diskPath); err == nil && du != nil {
		snap.DiskPercent = clampFloat(du.UsedPercent, 0, 100)
		snap.DiskUsed = du.Used
		snap.DiskTotal = du.Total
	}
	if avg, err := load.AvgWithContext(ctx); err == nil && avg != nil {
		snap.Load1, snap.Load5, snap.Load15 = avg.Load1, avg.Load5, avg.Load15
	}
	if info, err := host.InfoWithContext(ctx); err == nil && info != nil {
		snap.Hostname = info.Hostname
		snap.UptimeSeconds = info.Uptime
		if info.Platform != "" {
			snap.Platform = info.Platform + " " + info.PlatformVersion
		}
	}
	snap.HealthPercent = computeHealth(snap.CPUPercent, snap.MemoryPercent, snap.DiskPercent)
	return snap
}

// computeHealth weights the busiest resource most heavily.
func computeHealth(cpuPct, memPct, diskPct float64) float64 {
	worst := math.Max(cpuPct, math.Max(memPct, diskPct))
	avg := (cpuPct + memPct + diskPct) / 3
	return clampFloat(100-(0.7*worst+0.3*avg), 0, 100)
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
