//go:build windows

package screenshots

import "golang.org/x/sys/windows"

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	shcore = windows.NewLazySystemDLL("shcore.dll")

	procSetProcessDpiAwarenessContext = user32.NewProc("SetProcessDpiAwarenessContext")
	procSetProcessDPIAware            = user32.NewProc("SetProcessDPIAware")
	procSetProcessDpiAwareness        = shcore.NewProc("SetProcessDpiAwareness")
)

const (
	// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 is the handle value -4.
	dpiAwarenessContextPerMonitorAwareV2 = ^uintptr(3)
	processPerMonitorDPIAware            = 2
)

// enableDPIAwareness tries the newest API first; each one is missing on
// older Windows releases.
func enableDPIAwareness() DPIMode {
	if procSetProcessDpiAwarenessContext.Find() == nil {
		if ok, _, _ := procSetProcessDpiAwarenessContext.Call(dpiAwarenessContextPerMonitorAwareV2); ok != 0 {
			return DPIPerMonitorV2
		}
	}
	if procSetProcessDpiAwareness.Find() == nil {
		if hr, _, _ := procSetProcessDpiAwareness.Call(processPerMonitorDPIAware); hr == 0 {
			return DPIPerMonitor
		}
	}
	if procSetProcessDPIAware.Find() == nil {
		if ok, _, _ := procSetProcessDPIAware.Call(); ok != 0 {
			return DPISystem
		}
	}
	return DPIUnaware
}
