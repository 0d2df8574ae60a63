package screenshots

import "sync"

// DPIMode reports which display scaling awareness the process runs with.
type DPIMode string

const (
	DPIUnaware       DPIMode = "unaware"
	DPISystem        DPIMode = "system"
	DPIPerMonitor    DPIMode = "per_monitor"
	DPIPerMonitorV2  DPIMode = "per_monitor_v2"
	DPINotApplicable DPIMode = "not_applicable"
)

var (
	dpiOnce sync.Once
	dpiMode DPIMode
)

// EnableDPIAwareness opts the process into physical-pixel coordinates so
// captures are not scaled down by the OS. The first call does the work;
// later calls return the cached mode.
func EnableDPIAwareness() DPIMode {
	dpiOnce.Do(func() {
		dpiMode = enableDPIAwareness()
	})
	return dpiMode
}
