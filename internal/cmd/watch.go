package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/offlinefirst/screenframe/internal/buildinfo"
	"github.com/offlinefirst/screenframe/pkg/capture"
	"github.com/offlinefirst/screenframe/pkg/config"
	"github.com/offlinefirst/screenframe/pkg/runmanifest"
	"github.com/offlinefirst/screenframe/pkg/screenshots"
)

func newWatchCommand() command {
	return command{
		name:        "watch",
		description: "Capture frames on an interval into a new run directory",
		example:     "watch --interval 5 --frames 120",
		configure: func(fs *flag.FlagSet) {
			fs.Bool("plan-only", false, "Print the resolved configuration without starting capture")
			fs.Int("interval", 0, "Seconds between frames (default: watch.interval_seconds)")
			fs.Int("frames", -1, "Stop after this many frames, 0 runs until interrupted (default: watch.max_frames)")
			fs.Int("width", -1, "Target width in pixels (default: capture.target_width)")
			fs.Int("height", -1, "Target height in pixels (default: capture.target_height)")
			fs.String("source", "", "Capture source override (display, synthetic)")
		},
		run: runWatch,
	}
}

var (
	timeNow      = time.Now
	hostname     = os.Hostname
	manifestSave = runmanifest.Save
	watchSleeper func(context.Context, time.Duration) error
)

var errInterrupted = errors.New("interrupted by signal")

func runWatch(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	cfg := ctx.Config
	if interval := intFlag(fs, "interval"); interval > 0 {
		cfg.Watch.IntervalSeconds = interval
	}
	if frames := intFlag(fs, "frames"); frames >= 0 {
		cfg.Watch.MaxFrames = frames
	}
	cfg.Capture.Source = resolveSource(cfg, stringFlag(fs, "source"))
	target := targetSize(cfg, intFlag(fs, "width"), intFlag(fs, "height"), false)
	cfg.Capture.TargetWidth, cfg.Capture.TargetHeight = target.Width, target.Height

	planOnly := boolFlag(fs, "plan-only")
	ctx.Logger.Info("watch command invoked", "plan_only", planOnly, "runs_dir", cfg.Paths.RunsDir, "config_source", cfg.Source)

	if planOnly {
		printWatchPlan(cfg, stdout)
		return nil
	}

	if err := os.MkdirAll(cfg.Paths.RunsDir, 0o755); err != nil {
		return fmt.Errorf("ensure runs directory: %w", err)
	}

	runID, err := runmanifest.ResolveRunID(cfg.Paths.RunsDir, timeNow())
	if err != nil {
		return fmt.Errorf("resolve run id: %w", err)
	}

	layout := runmanifest.BuildLayout(cfg.Paths.RunsDir, runID)
	if err := runmanifest.EnsureFilesystem(layout); err != nil {
		return fmt.Errorf("prepare run filesystem: %w", err)
	}

	host, err := hostname()
	if err != nil {
		host = "unknown"
	}

	dpi := enableDPI()
	env := detectEnv()
	if cfg.Capture.Source == config.SourceDisplay && !env.Available {
		ctx.Logger.Warn("display capture unavailable; using synthetic frames", "permission", env.Permission, "message", env.Message, "guidance", env.Guidance)
		cfg.Capture.Source = config.SourceSynthetic
	}

	manifest := runmanifest.New(runmanifest.Options{
		RunID:      runID,
		CreatedAt:  timeNow(),
		Hostname:   host,
		AppVersion: buildinfo.Version(),
		Config:     cfg,
		Layout:     layout,
	})
	manifest.Status.Environment = &runmanifest.EnvironmentStatus{
		Provider:     env.Provider,
		Available:    env.Available,
		Permission:   env.Permission,
		DPIAwareness: string(dpi),
		Message:      env.Message,
	}
	if cfg.Capture.Source == config.SourceSynthetic {
		manifest.Status.Environment.Provider = screenshots.SourceSynthetic
	}

	if err := manifestSave(manifest, layout.ManifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	captureLog, err := os.OpenFile(layout.CaptureLogPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open capture log: %w", err)
	}
	defer captureLog.Close()

	appCtx := &AppContext{Config: cfg, Logger: ctx.Logger}
	pipeline, err := newPipeline(appCtx, cfg.Capture.Source)
	if err != nil {
		return err
	}
	controller := capture.NewController(capture.WithControllerClock(timeNow))
	scheduler, err := capture.NewScheduler(capture.SchedulerOptions{
		Capturer:   pipeline,
		Interval:   time.Duration(cfg.Watch.IntervalSeconds) * time.Second,
		MaxFrames:  cfg.Watch.MaxFrames,
		Target:     target,
		Logger:     ctx.Logger,
		CaptureLog: captureLog,
		Control:    controller,
		Clock:      timeNow,
		Sleeper:    watchSleeper,
	})
	if err != nil {
		return fmt.Errorf("configure scheduler: %w", err)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	stopKill := context.AfterFunc(runCtx, func() { controller.Kill(errInterrupted) })

	started := timeNow().UTC()
	manifest.Status.State = runmanifest.StateRunning
	manifest.Status.Summary = "capture in progress"
	manifest.Status.StartedAt = &started
	manifest.Status.Controller = timelineEntries(controller.Timeline())
	if err := manifestSave(manifest, layout.ManifestPath); err != nil {
		return fmt.Errorf("update manifest status: %w", err)
	}

	summary, err := scheduler.Run(runCtx, layout.FramesDir)
	stopKill()

	finished := timeNow().UTC()
	manifest.Status.EndedAt = &finished
	manifest.Status.Frames = runmanifest.FrameStats{
		Captured: summary.Captured,
		Failed:   summary.Failed,
		Bytes:    summary.Bytes,
	}

	manifest.Status.Controller = timelineEntries(controller.Timeline())
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, errInterrupted):
		manifest.Status.State = runmanifest.StateInterrupted
		manifest.Status.Termination = "signal"
		manifest.Status.Summary = fmt.Sprintf("interrupted after %d frames", summary.Captured)
	case err != nil:
		manifest.Status.State = runmanifest.StateFailed
		manifest.Status.Termination = "error"
		manifest.Status.Summary = err.Error()
		ctx.Logger.Error("watch run failed", "error", err)
	default:
		manifest.Status.State = runmanifest.StateCompleted
		manifest.Status.Termination = "completed"
		manifest.Status.Summary = fmt.Sprintf("captured %d frames (%d failed)", summary.Captured, summary.Failed)
	}
	manifest.Status.Record(manifest.Status.State, manifest.Status.Termination, finished)

	if saveErr := manifestSave(manifest, layout.ManifestPath); saveErr != nil {
		if err != nil && manifest.Status.State == runmanifest.StateFailed {
			return fmt.Errorf("watch frames: %v (additionally failed to persist manifest: %w)", err, saveErr)
		}
		return fmt.Errorf("finalise manifest: %w", saveErr)
	}
	if manifest.Status.State == runmanifest.StateFailed {
		return fmt.Errorf("watch frames: %w", err)
	}

	fmt.Fprintf(stdout, "Run directory: %s\n", layout.Root)
	fmt.Fprintf(stdout, "Manifest: %s\n", layout.ManifestPath)
	fmt.Fprintf(stdout, "Capture log: %s\n", layout.CaptureLogPath)
	fmt.Fprintf(stdout, "Frames: %s\n", layout.FramesDir)
	fmt.Fprintf(stdout, "Source: %s (permission=%s dpi=%s)\n", manifest.Status.Environment.Provider, env.Permission, dpi)
	fmt.Fprintf(stdout, "Captured %d frames, %d failed, %d bytes\n", summary.Captured, summary.Failed, summary.Bytes)
	if !summary.FirstCapture.IsZero() {
		fmt.Fprintf(stdout, "  first %s, last %s\n", summary.FirstCapture.Format(time.RFC3339), summary.LastCapture.Format(time.RFC3339))
	}
	fmt.Fprintf(stdout, "State: %s (%s)\n", manifest.Status.State, manifest.Status.Summary)
	return nil
}

func timelineEntries(transitions []capture.Transition) []runmanifest.ControllerTimelineEntry {
	entries := make([]runmanifest.ControllerTimelineEntry, 0, len(transitions))
	for _, tr := range transitions {
		entries = append(entries, runmanifest.ControllerTimelineEntry{State: tr.State, Reason: tr.Reason, Timestamp: tr.At})
	}
	return entries
}

func printWatchPlan(cfg config.Config, stdout io.Writer) {
	fmt.Fprintf(stdout, "Resolved configuration (source: %s)\n", cfg.Source)
	fmt.Fprintf(stdout, "  runs_dir: %s\n", cfg.Paths.RunsDir)
	fmt.Fprintf(stdout, "  capture.source: %s\n", cfg.Capture.Source)
	fmt.Fprintf(stdout, "  capture.target: %dx%d\n", cfg.Capture.TargetWidth, cfg.Capture.TargetHeight)
	fmt.Fprintf(stdout, "  capture.filter: %s\n", cfg.Capture.Filter)
	fmt.Fprintf(stdout, "  capture.compression_level: %d\n", cfg.Capture.CompressionLevel)
	fmt.Fprintf(stdout, "  capture.annotate: %t\n", cfg.Capture.Annotate)
	fmt.Fprintf(stdout, "  watch.interval_seconds: %d\n", cfg.Watch.IntervalSeconds)
	fmt.Fprintf(stdout, "  watch.max_frames: %d\n", cfg.Watch.MaxFrames)
	fmt.Fprintf(stdout, "  logging.level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(stdout, "  logging.format: %s\n", cfg.Logging.Format)
}
