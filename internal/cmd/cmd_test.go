package cmd

import (
	"bytes"
	"flag"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/offlinefirst/screenframe/pkg/config"
	"github.com/offlinefirst/screenframe/pkg/permissions"
	"github.com/offlinefirst/screenframe/pkg/screenshots"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestContext(t *testing.T) *AppContext {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.RunsDir = t.TempDir()
	cfg.Capture.Source = config.SourceSynthetic
	return &AppContext{Config: cfg, Logger: newTestLogger()}
}

// parseCommandFlags builds the flag set a command would see after dispatch.
func parseCommandFlags(t *testing.T, cmd command, args ...string) *flag.FlagSet {
	t.Helper()
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if cmd.configure != nil {
		cmd.configure(fs)
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

// stubEnvironment pins capture detection so tests do not depend on the host.
func stubEnvironment(t *testing.T, env screenshots.Environment) {
	t.Helper()
	origEnv, origDPI := detectEnv, enableDPI
	detectEnv = func() screenshots.Environment { return env }
	enableDPI = func() screenshots.DPIMode { return screenshots.DPINotApplicable }
	t.Cleanup(func() {
		detectEnv, enableDPI = origEnv, origDPI
	})
}

var availableDisplay = screenshots.Environment{
	Provider:   "screenshot",
	Available:  true,
	Permission: string(permissions.StatusGranted),
}

func TestRootHelpListsCommandsInOrder(t *testing.T) {
	for _, args := range [][]string{nil, {"help"}} {
		var stdout bytes.Buffer
		rc := NewRootCommand()
		rc.stdout = &stdout
		rc.stderr = io.Discard

		if err := rc.Execute(args); err != nil {
			t.Fatalf("Execute(%v) returned error: %v", args, err)
		}
		help := stdout.String()
		last := -1
		for _, name := range []string{"capture ", "watch ", "doctor ", "version "} {
			idx := strings.Index(help, "  "+name)
			if idx < 0 || idx < last {
				t.Fatalf("expected %q listed in registration order, got %q", name, help)
			}
			last = idx
		}
		for _, want := range []string{"e.g. screenframe capture --out shot.png", "--log-format", "--config"} {
			if !strings.Contains(help, want) {
				t.Fatalf("expected %q in help output, got %q", want, help)
			}
		}
	}
}

func TestRootRejectsUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	rc := NewRootCommand()
	rc.stdout = io.Discard
	rc.stderr = &stderr
	err := rc.Execute([]string{"bundle"})
	if err == nil || !strings.Contains(err.Error(), `"bundle"`) {
		t.Fatalf("expected error naming the command, got %v", err)
	}
	if !strings.Contains(stderr.String(), "known: capture, watch, doctor, version") {
		t.Fatalf("expected known commands on stderr, got %q", stderr.String())
	}
}

func TestRootRejectsBadLoggingOverride(t *testing.T) {
	rc := NewRootCommand()
	rc.stdout = io.Discard
	rc.stderr = io.Discard
	err := rc.Execute([]string{"--config", "", "--log-level", "trace", "doctor"})
	if err == nil || !strings.Contains(err.Error(), "--log-level") {
		t.Fatalf("expected log level error, got %v", err)
	}
}

func TestVersionCommandSkipsConfig(t *testing.T) {
	origVersion, origGOOS := runtimeVersion, runtimeGOOS
	runtimeVersion = func() string { return "go1.22.0" }
	runtimeGOOS = func() string { return "plan9" }
	defer func() { runtimeVersion, runtimeGOOS = origVersion, origGOOS }()

	var stdout bytes.Buffer
	rc := NewRootCommand()
	rc.stdout = &stdout
	rc.stderr = io.Discard

	if err := rc.Execute([]string{"--config", "does-not-exist.yaml", "version"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(stdout.String(), "(go1.22.0/plan9)") || strings.Contains(stdout.String(), "gogo") {
		t.Fatalf("unexpected version output %q", stdout.String())
	}
}

func TestTargetSizeFlags(t *testing.T) {
	cfg := config.Default()
	cases := []struct {
		name          string
		width, height int
		native        bool
		wantW, wantH  int
	}{
		{"config", -1, -1, false, 1536, 864},
		{"width only", 800, -1, false, 800, 864},
		{"keep aspect", 800, 0, false, 800, 0},
		{"native", 800, 600, true, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := targetSize(cfg, tc.width, tc.height, tc.native)
			if got.Width != tc.wantW || got.Height != tc.wantH {
				t.Fatalf("got %s, want %dx%d", got, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestBuildOverlay(t *testing.T) {
	cfg := config.Default()
	if a, err := buildOverlay(cfg, nil); err != nil || a != nil {
		t.Fatalf("expected no overlay without marks, got %v %v", a, err)
	}
	if _, err := buildOverlay(cfg, []string{"hover:1,2"}); err == nil {
		t.Fatalf("expected error for unknown action")
	}
	a, err := buildOverlay(cfg, []string{"left_click:10,10", "drag:1,2,3,4"})
	if err != nil || a == nil {
		t.Fatalf("expected overlay, got %v %v", a, err)
	}

	cfg.Capture.Annotate = false
	if a, err := buildOverlay(cfg, []string{"left_click:10,10"}); err != nil || a != nil {
		t.Fatalf("expected annotation disabled, got %v %v", a, err)
	}
}
