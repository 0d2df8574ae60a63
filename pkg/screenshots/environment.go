package screenshots

import (
	"runtime"

	"github.com/offlinefirst/screenframe/pkg/permissions"
)

// Environment describes screenshot capture availability.
type Environment struct {
	Provider   string
	Available  bool
	Permission string
	Message    string
	Guidance   string
}

const (
	providerGDI        = backendGDI
	providerScreenshot = backendScreenshot
	providerSynthetic  = backendSynthetic
)

var goos = runtime.GOOS

// DetectEnvironment reports display capture support and permissions. When
// the display cannot be captured the synthetic provider is reported.
func DetectEnvironment() Environment {
	return detectEnvironment(permissions.ProbeScreenRecording(nil))
}

func detectEnvironment(screenRecording permissions.ProbeResult) Environment {
	env := Environment{
		Provider:   providerScreenshot,
		Permission: screenRecording.StatusString(),
		Message:    screenRecording.Message,
		Guidance:   screenRecording.Guidance,
		Available:  true,
	}
	if goos == "windows" {
		env.Provider = providerGDI
	}

	switch screenRecording.Status {
	case permissions.StatusDenied, permissions.StatusUnavailable:
		env.Available = false
	}
	if env.Message == "" {
		env.Message = "display capture via " + env.Provider
	}

	if !env.Available {
		env.Provider = providerSynthetic
	}
	return env
}
