package cmd

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/offlinefirst/screenframe/pkg/annotate"
	"github.com/offlinefirst/screenframe/pkg/capture"
	"github.com/offlinefirst/screenframe/pkg/config"
	"github.com/offlinefirst/screenframe/pkg/frame"
	"github.com/offlinefirst/screenframe/pkg/pngenc"
	"github.com/offlinefirst/screenframe/pkg/resample"
	"github.com/offlinefirst/screenframe/pkg/screenshots"
)

var (
	openSource = screenshots.Open
	detectEnv  = screenshots.DetectEnvironment
	enableDPI  = screenshots.EnableDPIAwareness
)

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func stringListFlag(fs *flag.FlagSet, name string) []string {
	f := fs.Lookup(name)
	if f == nil {
		return nil
	}
	if list, ok := f.Value.(*stringList); ok {
		return *list
	}
	return nil
}

func intFlag(fs *flag.FlagSet, name string) int {
	f := fs.Lookup(name)
	if f == nil {
		return 0
	}
	value, err := strconv.Atoi(f.Value.String())
	if err != nil {
		return 0
	}
	return value
}

func stringFlag(fs *flag.FlagSet, name string) string {
	f := fs.Lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

func boolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	value, err := strconv.ParseBool(f.Value.String())
	if err != nil {
		return false
	}
	return value
}

// resolveSource picks the configured source unless a flag overrides it.
func resolveSource(cfg config.Config, override string) string {
	if name := strings.ToLower(strings.TrimSpace(override)); name != "" {
		return name
	}
	return cfg.Capture.Source
}

// targetSize resolves width/height flags against the configured target.
// A negative flag value keeps the configured dimension.
func targetSize(cfg config.Config, width, height int, native bool) frame.Size {
	if native {
		return frame.Size{}
	}
	size := frame.Size{Width: cfg.Capture.TargetWidth, Height: cfg.Capture.TargetHeight}
	if width >= 0 {
		size.Width = width
	}
	if height >= 0 {
		size.Height = height
	}
	return size
}

func newPipeline(ctx *AppContext, sourceName string) (*capture.Pipeline, error) {
	source, err := openSource(sourceName)
	if err != nil {
		return nil, err
	}
	encoder := pngenc.Encoder{Level: ctx.Config.Capture.CompressionLevel}
	p, err := capture.NewPipeline(capture.PipelineOptions{
		Source:  source,
		Encoder: &encoder,
		Filter:  resample.Filter(ctx.Config.Capture.Filter),
		Logger:  ctx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build capture pipeline: %w", err)
	}
	return p, nil
}

// buildOverlay turns --mark values into an action overlay drawn with the
// configured palette. It returns nil when there is nothing to draw.
func buildOverlay(cfg config.Config, marks []string) (annotate.Annotator, error) {
	if len(marks) == 0 || !cfg.Capture.Annotate {
		return nil, nil
	}
	actions := make([]annotate.Action, 0, len(marks))
	for _, raw := range marks {
		action, err := annotate.ParseAction(raw)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	colors, err := cfg.Capture.PaletteColors()
	if err != nil {
		return nil, err
	}
	palette, err := annotate.PairPalette(colors)
	if err != nil {
		return nil, err
	}
	return annotate.ActionOverlay{Actions: actions, Palette: palette}, nil
}
