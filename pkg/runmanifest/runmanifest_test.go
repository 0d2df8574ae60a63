package runmanifest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/offlinefirst/screenframe/pkg/config"
)

func TestBuildLayoutAndRelativePaths(t *testing.T) {
	layout := BuildLayout("/tmp/runs", "20240512_093000")

	if layout.Root != filepath.Join("/tmp/runs", "20240512_093000") {
		t.Fatalf("unexpected root: %s", layout.Root)
	}

	rel := layout.RelativePaths()
	if rel.Root != "." {
		t.Fatalf("expected relative root '.', got %q", rel.Root)
	}
	if rel.Manifest != "manifest.json" {
		t.Fatalf("expected manifest.json, got %s", rel.Manifest)
	}
	if rel.Frames != "frames" {
		t.Fatalf("expected frames directory name, got %s", rel.Frames)
	}
	if rel.CaptureLog != "capture.log" {
		t.Fatalf("expected capture.log, got %s", rel.CaptureLog)
	}
}

func TestEnsureFilesystemCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	layout := BuildLayout(dir, "run")

	if err := EnsureFilesystem(layout); err != nil {
		t.Fatalf("EnsureFilesystem failed: %v", err)
	}

	paths := []string{
		layout.Root,
		layout.FramesDir,
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("expected path %s: %v", p, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected directory at %s", p)
		}
	}

	if _, err := os.Stat(layout.CaptureLogPath); err != nil {
		t.Fatalf("expected capture log file: %v", err)
	}
}

func TestNewManifest(t *testing.T) {
	cfg := config.Default()
	cfg.Source = "config.yaml"
	layout := BuildLayout("/tmp/runs", "run")
	now := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)

	man := New(Options{
		RunID:      "run",
		CreatedAt:  now,
		Hostname:   "host",
		AppVersion: "test",
		Config:     cfg,
		Layout:     layout,
	})

	if man.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected schema version: %d", man.SchemaVersion)
	}
	if man.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected CreatedAt in UTC, got %s", man.CreatedAt.Location())
	}
	if man.Capture.TargetWidth != cfg.Capture.TargetWidth || man.Capture.IntervalSeconds != cfg.Watch.IntervalSeconds {
		t.Fatalf("capture settings mismatch: %+v", man.Capture)
	}
	if man.Status.State != StatePending {
		t.Fatalf("expected pending state, got %q", man.Status.State)
	}
	if man.Paths.Manifest != "manifest.json" {
		t.Fatalf("unexpected manifest path: %s", man.Paths.Manifest)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	layout := BuildLayout(dir, "run")
	cfg := config.Default()
	cfg.Source = "explicit"
	now := time.Now().UTC().Round(time.Second)

	man := New(Options{
		RunID:      "run",
		CreatedAt:  now,
		Hostname:   "host",
		AppVersion: "version",
		Config:     cfg,
		Layout:     layout,
	})
	man.Status.Frames = FrameStats{Captured: 3, Failed: 1, Bytes: 4096}
	man.Status.Record(StateRunning, "", now)

	path := filepath.Join(dir, "manifest.json")
	if err := Save(man, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.RunID != man.RunID {
		t.Fatalf("expected RunID %s, got %s", man.RunID, loaded.RunID)
	}
	if loaded.Capture != man.Capture {
		t.Fatalf("expected capture settings %+v, got %+v", man.Capture, loaded.Capture)
	}
	if loaded.Status.Frames != man.Status.Frames {
		t.Fatalf("expected frame stats %+v, got %+v", man.Status.Frames, loaded.Status.Frames)
	}
}

func TestResolveRunID(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)

	if err := os.MkdirAll(filepath.Join(dir, now.Format("20060102_150405")), 0o755); err != nil {
		t.Fatalf("prep existing run: %v", err)
	}

	id, err := ResolveRunID(dir, now)
	if err != nil {
		t.Fatalf("ResolveRunID failed: %v", err)
	}
	expected := now.Format("20060102_150405") + "_01"
	if id != expected {
		t.Fatalf("expected %s, got %s", expected, id)
	}
}

func TestResolveRunIDEmptyRunsDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path validation differs on windows")
	}
	if _, err := ResolveRunID(" ", time.Now()); err == nil {
		t.Fatalf("expected error for empty runs dir")
	}
}

func TestStatusRecordUsesUTC(t *testing.T) {
	var status Status
	at := time.Date(2024, 5, 12, 11, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	status.Record(StateInterrupted, "signal", at)

	if len(status.Controller) != 1 {
		t.Fatalf("expected one timeline entry, got %d", len(status.Controller))
	}
	entry := status.Controller[0]
	if entry.State != StateInterrupted || entry.Reason != "signal" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Timestamp.Location() != time.UTC || !entry.Timestamp.Equal(at) {
		t.Fatalf("expected UTC timestamp, got %v", entry.Timestamp)
	}
}
