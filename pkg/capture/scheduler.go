package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/offlinefirst/screenframe/pkg/annotate"
	"github.com/offlinefirst/screenframe/pkg/frame"
	"github.com/offlinefirst/screenframe/pkg/logging"
)

// Capturer produces one encoded frame per call. *Pipeline implements it.
type Capturer interface {
	Capture(ctx context.Context, req Request) (Result, error)
}

// SchedulerOptions configure the frame dump loop.
type SchedulerOptions struct {
	Capturer  Capturer
	Interval  time.Duration
	MaxFrames int
	Target    frame.Size
	Annotator annotate.Annotator

	Logger     *slog.Logger
	CaptureLog io.Writer
	Control    *Controller
	Clock      func() time.Time
	Sleeper    func(context.Context, time.Duration) error
	NewID      func() string
}

// Scheduler captures frames on a fixed cadence and writes each one as a PNG
// with a JSON sidecar.
type Scheduler struct {
	capturer   Capturer
	interval   time.Duration
	maxFrames  int
	target     frame.Size
	annotator  annotate.Annotator
	logger     *slog.Logger
	captureLog io.Writer
	control    *Controller
	clock      func() time.Time
	sleeper    func(context.Context, time.Duration) error
	newID      func() string
}

// FrameMetadata is written next to every frame.
type FrameMetadata struct {
	ID           string    `json:"id"`
	Sequence     int       `json:"sequence"`
	CapturedAt   time.Time `json:"captured_at"`
	Backend      string    `json:"backend"`
	NativeWidth  int       `json:"native_width"`
	NativeHeight int       `json:"native_height"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Bytes        int       `json:"bytes"`
	Annotated    bool      `json:"annotated"`
	DurationMS   int64     `json:"duration_ms"`
	ImagePath    string    `json:"image_path"`
}

// FrameRecord describes where a frame was written.
type FrameRecord struct {
	ImagePath    string
	MetadataPath string
}

// Summary reports scheduler outcomes. It is returned even when the loop
// stops with an error.
type Summary struct {
	Frames       []FrameRecord
	Captured     int
	Failed       int
	Bytes        int64
	FirstCapture time.Time
	LastCapture  time.Time
}

// NewScheduler validates options and returns a scheduler instance.
func NewScheduler(opts SchedulerOptions) (*Scheduler, error) {
	if opts.Capturer == nil {
		return nil, errors.New("capturer must be provided")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if opts.MaxFrames < 0 {
		return nil, errors.New("max frames must not be negative")
	}
	logger := logging.OrDiscard(opts.Logger)
	control := opts.Control
	if control == nil {
		control = NewController()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = defaultSleeper
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Scheduler{
		capturer:   opts.Capturer,
		interval:   opts.Interval,
		maxFrames:  opts.MaxFrames,
		target:     opts.Target,
		annotator:  opts.Annotator,
		logger:     logger,
		captureLog: opts.CaptureLog,
		control:    control,
		clock:      clock,
		sleeper:    sleeper,
		newID:      newID,
	}, nil
}

// Run captures frames into destDir until MaxFrames iterations have run, the
// context is cancelled, or the controller is killed. A failed capture is
// logged and counted and the loop moves on to the next tick; failing to
// write a frame to disk stops the loop.
func (s *Scheduler) Run(ctx context.Context, destDir string) (Summary, error) {
	if destDir == "" {
		return Summary{}, errors.New("destination directory must not be empty")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("ensure destination: %w", err)
	}

	var summary Summary
	next := s.clock()
	for seq := 1; s.maxFrames == 0 || seq <= s.maxFrames; seq++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.control.Wait(ctx); err != nil {
			return summary, err
		}
		if err := s.waitForNext(ctx, next); err != nil {
			return summary, err
		}

		res, err := s.capturer.Capture(ctx, Request{Target: s.target, Annotator: s.annotator})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			summary.Failed++
			s.logger.Warn("frame capture failed", "sequence", seq, "error", err)
			writeCaptureLog(s.captureLog, s.clock(), "frame", "sequence=%d failed: %v", seq, err)
		} else {
			record, err := s.writeFrame(destDir, seq, res)
			if err != nil {
				return summary, err
			}
			summary.Frames = append(summary.Frames, record)
			summary.Captured++
			summary.Bytes += int64(res.Image.Len())
			if summary.FirstCapture.IsZero() {
				summary.FirstCapture = res.CapturedAt
			}
			summary.LastCapture = res.CapturedAt
			s.logger.Info("frame written", "sequence", seq, "path", record.ImagePath, "bytes", res.Image.Len(), "duration", res.Timings.Total())
			writeCaptureLog(s.captureLog, s.clock(), "frame", "sequence=%d size=%s bytes=%d", seq, res.Image.Size(), res.Image.Len())
		}

		next = next.Add(s.interval)
		if now := s.clock(); now.After(next) {
			next = now
		}
	}
	return summary, nil
}

func (s *Scheduler) writeFrame(destDir string, seq int, res Result) (FrameRecord, error) {
	name := fmt.Sprintf("frame_%05d", seq)
	imagePath := filepath.Join(destDir, name+".png")
	if err := os.WriteFile(imagePath, res.Image.Bytes(), 0o644); err != nil {
		return FrameRecord{}, fmt.Errorf("write frame %q: %w", name, err)
	}

	size := res.Image.Size()
	meta := FrameMetadata{
		ID:           s.newID(),
		Sequence:     seq,
		CapturedAt:   res.CapturedAt.UTC(),
		Backend:      res.Backend,
		NativeWidth:  res.NativeSize.Width,
		NativeHeight: res.NativeSize.Height,
		Width:        size.Width,
		Height:       size.Height,
		Bytes:        res.Image.Len(),
		Annotated:    res.Annotated,
		DurationMS:   res.Timings.Total().Milliseconds(),
		ImagePath:    filepath.Base(imagePath),
	}
	metadataPath := filepath.Join(destDir, name+".json")
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return FrameRecord{}, fmt.Errorf("marshal metadata for %q: %w", name, err)
	}
	if err := os.WriteFile(metadataPath, data, 0o644); err != nil {
		return FrameRecord{}, fmt.Errorf("write metadata %q: %w", name, err)
	}
	return FrameRecord{ImagePath: imagePath, MetadataPath: metadataPath}, nil
}

func (s *Scheduler) waitForNext(ctx context.Context, scheduled time.Time) error {
	wait := scheduled.Sub(s.clock())
	if wait <= 0 {
		return nil
	}
	return s.sleeper(ctx, wait)
}

func defaultSleeper(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func writeCaptureLog(w io.Writer, timestamp time.Time, subsystem, message string, args ...any) {
	if w == nil {
		return
	}
	formatted := message
	if len(args) > 0 {
		formatted = fmt.Sprintf(message, args...)
	}
	line := fmt.Sprintf("[%s] subsystem=%s %s\n", timestamp.UTC().Format(time.RFC3339), subsystem, formatted)
	_, _ = io.WriteString(w, line)
}
