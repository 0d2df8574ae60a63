package runmanifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/offlinefirst/screenframe/pkg/config"
)

// SchemaVersion captures the manifest version for compatibility checks.
const SchemaVersion = 1

// Run states recorded in Status.State.
const (
	StatePending     = "pending"
	StateRunning     = "running"
	StateCompleted   = "completed"
	StateFailed      = "failed"
	StateInterrupted = "interrupted"
)

// Layout represents the absolute filesystem locations for a run.
type Layout struct {
	Root           string
	ManifestPath   string
	CaptureLogPath string
	FramesDir      string
}

// Paths holds the relative locations stored in the manifest for portability.
type Paths struct {
	Root       string `json:"root"`
	Manifest   string `json:"manifest"`
	CaptureLog string `json:"capture_log"`
	Frames     string `json:"frames"`
}

// CaptureSettings records how frames in the run were produced.
type CaptureSettings struct {
	Source           string `json:"source"`
	TargetWidth      int    `json:"target_width"`
	TargetHeight     int    `json:"target_height"`
	Filter           string `json:"filter"`
	CompressionLevel int    `json:"compression_level"`
	Annotate         bool   `json:"annotate"`
	IntervalSeconds  int    `json:"interval_seconds"`
	MaxFrames        int    `json:"max_frames"`
}

// Status summarises the lifecycle of a capture run.
type Status struct {
	State       string                    `json:"state"`
	Summary     string                    `json:"summary,omitempty"`
	StartedAt   *time.Time                `json:"started_at,omitempty"`
	EndedAt     *time.Time                `json:"ended_at,omitempty"`
	Termination string                    `json:"termination,omitempty"`
	Controller  []ControllerTimelineEntry `json:"controller_timeline,omitempty"`
	Frames      FrameStats                `json:"frames"`
	Environment *EnvironmentStatus        `json:"environment,omitempty"`
}

// ControllerTimelineEntry records controller state transitions for diagnostics.
type ControllerTimelineEntry struct {
	State     string    `json:"state"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FrameStats counts scheduler outcomes.
type FrameStats struct {
	Captured int   `json:"captured"`
	Failed   int   `json:"failed"`
	Bytes    int64 `json:"bytes"`
}

// EnvironmentStatus captures capture backend availability at run start.
type EnvironmentStatus struct {
	Provider     string `json:"provider"`
	Available    bool   `json:"available"`
	Permission   string `json:"permission,omitempty"`
	DPIAwareness string `json:"dpi_awareness,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Manifest is the durable metadata describing a capture run.
type Manifest struct {
	SchemaVersion int             `json:"schema_version"`
	RunID         string          `json:"run_id"`
	CreatedAt     time.Time       `json:"created_at"`
	Hostname      string          `json:"hostname"`
	AppVersion    string          `json:"app_version"`
	ConfigSource  string          `json:"config_source"`
	Capture       CaptureSettings `json:"capture"`
	Paths         Paths           `json:"paths"`
	Status        Status          `json:"status"`
}

// Options captures the knobs for creating a new manifest.
type Options struct {
	RunID      string
	CreatedAt  time.Time
	Hostname   string
	AppVersion string
	Config     config.Config
	Layout     Layout
}

// New constructs a manifest using the supplied options.
func New(opts Options) Manifest {
	return Manifest{
		SchemaVersion: SchemaVersion,
		RunID:         opts.RunID,
		CreatedAt:     opts.CreatedAt.UTC(),
		Hostname:      opts.Hostname,
		AppVersion:    opts.AppVersion,
		ConfigSource:  opts.Config.Source,
		Capture: CaptureSettings{
			Source:           opts.Config.Capture.Source,
			TargetWidth:      opts.Config.Capture.TargetWidth,
			TargetHeight:     opts.Config.Capture.TargetHeight,
			Filter:           opts.Config.Capture.Filter,
			CompressionLevel: opts.Config.Capture.CompressionLevel,
			Annotate:         opts.Config.Capture.Annotate,
			IntervalSeconds:  opts.Config.Watch.IntervalSeconds,
			MaxFrames:        opts.Config.Watch.MaxFrames,
		},
		Paths:  opts.Layout.RelativePaths(),
		Status: Status{State: StatePending},
	}
}

// Record appends a controller transition to the timeline.
func (s *Status) Record(state, reason string, at time.Time) {
	s.Controller = append(s.Controller, ControllerTimelineEntry{State: state, Reason: reason, Timestamp: at.UTC()})
}

// BuildLayout creates an absolute filesystem layout for a run.
func BuildLayout(runsDir, runID string) Layout {
	root := filepath.Join(runsDir, runID)
	return Layout{
		Root:           root,
		ManifestPath:   filepath.Join(root, "manifest.json"),
		CaptureLogPath: filepath.Join(root, "capture.log"),
		FramesDir:      filepath.Join(root, "frames"),
	}
}

// RelativePaths exposes the manifest-friendly relative paths for the layout.
func (l Layout) RelativePaths() Paths {
	return Paths{
		Root:       ".",
		Manifest:   filepath.Base(l.ManifestPath),
		CaptureLog: filepath.Base(l.CaptureLogPath),
		Frames:     filepath.Base(l.FramesDir),
	}
}

// EnsureFilesystem prepares the directory tree for a run layout.
func EnsureFilesystem(layout Layout) error {
	if err := os.MkdirAll(layout.Root, 0o755); err != nil {
		return fmt.Errorf("create run root: %w", err)
	}
	if err := os.MkdirAll(layout.FramesDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", layout.FramesDir, err)
	}

	file, err := os.OpenFile(layout.CaptureLogPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("initialise capture log: %w", err)
	}
	defer file.Close()

	return nil
}

// Save writes the manifest JSON to disk with indentation for readability.
func Save(man Manifest, path string) error {
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads a manifest JSON file from disk.
func Load(path string) (Manifest, error) {
	var man Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return man, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &man); err != nil {
		return man, fmt.Errorf("decode manifest: %w", err)
	}
	return man, nil
}

// ResolveRunID chooses a run identifier derived from the timestamp and avoids collisions.
func ResolveRunID(runsDir string, now time.Time) (string, error) {
	if strings.TrimSpace(runsDir) == "" {
		return "", errors.New("runs directory must not be empty")
	}

	base := now.UTC().Format("20060102_150405")
	candidate := base
	suffix := 1
	for {
		_, err := os.Stat(filepath.Join(runsDir, candidate))
		if err == nil {
			candidate = fmt.Sprintf("%s_%02d", base, suffix)
			suffix++
			continue
		}
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		return "", fmt.Errorf("inspect runs directory: %w", err)
	}
}
