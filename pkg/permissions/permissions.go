package permissions

import (
	"os"
	"runtime"
	"strings"
)

// Status enumerates coarse permission results for screen capture.
type Status string

const (
	// StatusUnknown indicates no explicit signal about permission state.
	StatusUnknown Status = "unknown"
	// StatusGranted signals that capture is expected to succeed.
	StatusGranted Status = "granted"
	// StatusDenied indicates the user has explicitly denied access.
	StatusDenied Status = "denied"
	// StatusPromptRequired means the platform will prompt at runtime.
	StatusPromptRequired Status = "prompt"
	// StatusUnavailable reports that the capability is not supported.
	StatusUnavailable Status = "unavailable"
)

// EnvScreenRecording overrides the probe result, mainly for tests and CI.
const EnvScreenRecording = "SCREENFRAME_SCREEN_RECORDING"

// ProbeResult represents the coarse state for a permission surface.
type ProbeResult struct {
	Status   Status
	Message  string
	Guidance string
}

// LookupEnvFunc exposes environment probing for testability.
type LookupEnvFunc func(string) (string, bool)

// DefaultLookupEnv is the standard environment resolver.
func DefaultLookupEnv(key string) (string, bool) {
	return lookupEnv(key)
}

// lookupEnv and goos are declared for swapping in tests.
var (
	lookupEnv = func(key string) (string, bool) {
		return os.LookupEnv(key)
	}
	goos = runtime.GOOS
)

// ProbeScreenRecording inspects the execution environment for screen capture access.
func ProbeScreenRecording(lookup LookupEnvFunc) ProbeResult {
	if lookup == nil {
		lookup = lookupEnv
	}
	if value, ok := lookup(EnvScreenRecording); ok {
		return interpretPermissionFlag("screen recording", value)
	}
	switch goos {
	case "windows":
		return ProbeResult{Status: StatusGranted, Message: "desktop capture through GDI needs no permission"}
	case "darwin":
		return ProbeResult{Status: StatusPromptRequired, Message: "awaiting macOS screen recording authorisation"}
	}

	if display, ok := lookup("DISPLAY"); ok && strings.TrimSpace(display) != "" {
		return ProbeResult{Status: StatusGranted, Message: "X11 display " + display + " reachable"}
	}
	if _, ok := lookup("WAYLAND_DISPLAY"); ok {
		return ProbeResult{
			Status:   StatusUnavailable,
			Message:  "Wayland session without an X11 display",
			Guidance: "run under XWayland or export DISPLAY",
		}
	}
	return ProbeResult{Status: StatusUnavailable, Message: "no display server detected", Guidance: "set DISPLAY or use --source synthetic"}
}

func interpretPermissionFlag(name, value string) ProbeResult {
	normalised := strings.ToLower(strings.TrimSpace(value))
	switch normalised {
	case "granted", "allow", "allowed", "yes", "true":
		return ProbeResult{Status: StatusGranted, Message: name + " permission pre-authorised via env override"}
	case "denied", "no", "false", "blocked":
		return ProbeResult{Status: StatusDenied, Message: name + " permission denied via env override", Guidance: "grant screen recording in system settings or update " + EnvScreenRecording + " to re-test"}
	case "prompt", "ask":
		return ProbeResult{Status: StatusPromptRequired, Message: name + " permission will prompt at runtime"}
	case "unavailable", "unsupported":
		return ProbeResult{Status: StatusUnavailable, Message: name + " permission unavailable on this platform"}
	default:
		return ProbeResult{Status: StatusUnknown, Message: name + " permission state unknown"}
	}
}

// StatusString returns the string representation for manifest integration.
func (p ProbeResult) StatusString() string {
	if p.Status == "" {
		return string(StatusUnknown)
	}
	return string(p.Status)
}
