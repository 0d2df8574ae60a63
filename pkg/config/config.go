package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/offlinefirst/screenframe/pkg/resample"
)

const DefaultFileName = "config.yaml"

// Capture sources understood by the CLI.
const (
	SourceDisplay   = "display"
	SourceSynthetic = "synthetic"
)

// Config captures the user-adjustable knobs for the capture workflows.
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Capture CaptureConfig `yaml:"capture"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`

	// Source indicates where the configuration originated (defaults or a file path).
	Source string `yaml:"-"`
}

// PathsConfig controls filesystem locations used by the CLI.
type PathsConfig struct {
	RunsDir string `yaml:"runs_dir"`
}

// CaptureConfig shapes a single frame: where it comes from, how it is
// scaled and encoded, and how actions are drawn on it.
type CaptureConfig struct {
	Source           string   `yaml:"source"`
	TargetWidth      int      `yaml:"target_width"`
	TargetHeight     int      `yaml:"target_height"`
	Filter           string   `yaml:"filter"`
	CompressionLevel int      `yaml:"compression_level"`
	Annotate         bool     `yaml:"annotate"`
	Palette          []string `yaml:"palette"`
}

// WatchConfig controls the frame dump loop.
type WatchConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	MaxFrames       int `yaml:"max_frames"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the baseline configuration used when no overrides are supplied.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			RunsDir: "runs",
		},
		Capture: CaptureConfig{
			Source:           SourceDisplay,
			TargetWidth:      1536,
			TargetHeight:     864,
			Filter:           string(resample.DefaultFilter),
			CompressionLevel: 6,
			Annotate:         true,
			Palette:          []string{"#ff0000", "#00ff00", "#0096ff", "#ffff00"},
		},
		Watch: WatchConfig{
			IntervalSeconds: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Source: "<defaults>",
	}
}

// Load reads configuration from disk if present, otherwise returning defaults.
// When path is empty, the loader attempts to read ./config.yaml but tolerates a missing file.
func Load(path string) (Config, error) {
	cfg := Default()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	file, err := os.Open(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return cfg, fmt.Errorf("config file %q not found", candidate)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config file %q: %w", candidate, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode config file %q: %w", candidate, err)
	}
	cfg.Source = candidate
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate ensures essential configuration values are present and sensible.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.RunsDir) == "" {
		return errors.New("paths.runs_dir must not be empty")
	}

	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}

	switch c.Capture.Source {
	case SourceDisplay, SourceSynthetic:
	default:
		return fmt.Errorf("capture.source must be %q or %q, got %q", SourceDisplay, SourceSynthetic, c.Capture.Source)
	}
	if c.Capture.TargetWidth < 0 || c.Capture.TargetHeight < 0 {
		return errors.New("capture.target_width and capture.target_height must not be negative")
	}
	if _, err := resample.ParseFilter(c.Capture.Filter); err != nil {
		return fmt.Errorf("capture.filter: %w", err)
	}
	if c.Capture.CompressionLevel < -2 || c.Capture.CompressionLevel > 9 {
		return fmt.Errorf("capture.compression_level must be between -2 and 9, got %d", c.Capture.CompressionLevel)
	}
	colors, err := c.Capture.PaletteColors()
	if err != nil {
		return err
	}
	if len(colors)%2 != 0 {
		return fmt.Errorf("capture.palette needs an even number of colours, got %d", len(colors))
	}

	if c.Watch.IntervalSeconds <= 0 {
		return errors.New("watch.interval_seconds must be positive")
	}
	if c.Watch.MaxFrames < 0 {
		return errors.New("watch.max_frames must not be negative")
	}

	return nil
}

// PaletteColors parses the configured marker colours.
func (c CaptureConfig) PaletteColors() ([]color.RGBA, error) {
	colors := make([]color.RGBA, 0, len(c.Palette))
	for i, raw := range c.Palette {
		col, err := ParseColor(raw)
		if err != nil {
			return nil, fmt.Errorf("capture.palette[%d]: %w", i, err)
		}
		colors = append(colors, col)
	}
	return colors, nil
}

// ParseColor parses a "#rrggbb" hex colour into an opaque RGBA value. The
// leading '#' is optional.
func ParseColor(raw string) (color.RGBA, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(value, "#") {
		value = "#" + value
	}
	parsed, err := colorful.Hex(value)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", raw, err)
	}
	r, g, b := parsed.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}, nil
}

func (c *Config) normalize() {
	c.Paths.RunsDir = filepath.Clean(strings.TrimSpace(c.Paths.RunsDir))

	defaults := Default()

	if c.Paths.RunsDir == "." || c.Paths.RunsDir == "" {
		c.Paths.RunsDir = defaults.Paths.RunsDir
	}
	if level, err := NormalizeLogLevel(c.Logging.Level); err == nil {
		c.Logging.Level = level
	}
	if format, err := NormalizeFormat(c.Logging.Format); err == nil {
		c.Logging.Format = format
	}

	c.Capture.Source = strings.ToLower(strings.TrimSpace(c.Capture.Source))
	if c.Capture.Source == "" {
		c.Capture.Source = defaults.Capture.Source
	}
	if filter, err := resample.ParseFilter(c.Capture.Filter); err == nil {
		c.Capture.Filter = string(filter)
	}
	if c.Watch.IntervalSeconds <= 0 {
		c.Watch.IntervalSeconds = defaults.Watch.IntervalSeconds
	}
}

// NormalizeLogLevel canonicalises a log level name.
func NormalizeLogLevel(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return "info", nil
	case "debug":
		return "debug", nil
	case "warn", "warning":
		return "warn", nil
	case "error":
		return "error", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat canonicalises a log format name.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return "json", nil
	case "console", "text":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
