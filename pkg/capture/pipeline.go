package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/offlinefirst/screenframe/pkg/annotate"
	"github.com/offlinefirst/screenframe/pkg/frame"
	"github.com/offlinefirst/screenframe/pkg/logging"
	"github.com/offlinefirst/screenframe/pkg/pngenc"
	"github.com/offlinefirst/screenframe/pkg/resample"
	"github.com/offlinefirst/screenframe/pkg/screenshots"
)

// PipelineOptions configure a Pipeline. Zero values select the primary
// display, bilinear filtering and the default zlib level.
type PipelineOptions struct {
	Source  screenshots.Source
	Encoder *pngenc.Encoder
	Filter  resample.Filter
	Logger  *slog.Logger
	Clock   func() time.Time
}

// Pipeline turns one display grab into an encoded image:
// capture, resize, convert, annotate, encode. Stages run strictly in order
// and the first failure aborts the call with that stage's error.
type Pipeline struct {
	source  screenshots.Source
	encoder pngenc.Encoder
	filter  resample.Filter
	logger  *slog.Logger
	clock   func() time.Time
}

// Request describes one frame.
type Request struct {
	// Target is the output size. A zero Target keeps the native size; a
	// single zero dimension follows the native aspect ratio.
	Target    frame.Size
	Annotator annotate.Annotator
}

// Timings records how long each stage took.
type Timings struct {
	Capture  time.Duration
	Resize   time.Duration
	Convert  time.Duration
	Annotate time.Duration
	Encode   time.Duration
}

// Total sums every stage.
func (t Timings) Total() time.Duration {
	return t.Capture + t.Resize + t.Convert + t.Annotate + t.Encode
}

// Result is an encoded frame plus what is known about how it was made.
type Result struct {
	Image      pngenc.Image
	NativeSize frame.Size
	Backend    string
	CapturedAt time.Time
	Annotated  bool
	Timings    Timings
}

// NewPipeline validates options and returns a pipeline.
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	filter, err := resample.ParseFilter(string(opts.Filter))
	if err != nil {
		return nil, err
	}
	source := opts.Source
	if source == nil {
		source = screenshots.NewDisplaySource()
	}
	encoder := pngenc.DefaultEncoder
	if opts.Encoder != nil {
		encoder = *opts.Encoder
	}
	logger := logging.OrDiscard(opts.Logger)
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		source:  source,
		encoder: encoder,
		filter:  filter,
		logger:  logger,
		clock:   clock,
	}, nil
}

// CaptureFrame captures, optionally resizes and annotates, and encodes one
// frame.
func (p *Pipeline) CaptureFrame(ctx context.Context, target frame.Size, a annotate.Annotator) (pngenc.Image, error) {
	res, err := p.Capture(ctx, Request{Target: target, Annotator: a})
	if err != nil {
		return pngenc.Image{}, err
	}
	return res.Image, nil
}

// Capture runs the pipeline and reports per-stage details. Errors are
// returned exactly as the failing stage produced them.
func (p *Pipeline) Capture(ctx context.Context, req Request) (Result, error) {
	var res Result
	mark := p.clock()
	lap := func() time.Duration {
		now := p.clock()
		d := now.Sub(mark)
		mark = now
		return d
	}

	grabbed, err := p.source.Grab(ctx)
	if err != nil {
		p.logger.Debug("capture stage failed", "stage", "capture", "error", err)
		return Result{}, err
	}
	if err := grabbed.Buffer.Validate("capture"); err != nil {
		p.logger.Debug("capture stage failed", "stage", "capture", "error", err)
		return Result{}, err
	}
	res.Timings.Capture = lap()
	res.NativeSize = grabbed.Buffer.Size
	res.Backend = grabbed.Backend
	res.CapturedAt = grabbed.CapturedAt
	if res.CapturedAt.IsZero() {
		res.CapturedAt = mark.UTC()
	}
	p.logger.Debug("frame captured", "backend", grabbed.Backend, "size", grabbed.Buffer.Size.String(), "duration", res.Timings.Capture)

	resized, err := resample.Resize(grabbed.Buffer, req.Target, resample.WithFilter(p.filter))
	if err != nil {
		p.logger.Debug("capture stage failed", "stage", "resize", "error", err)
		return Result{}, err
	}
	res.Timings.Resize = lap()
	p.logger.Debug("frame resized", "size", resized.Size.String(), "filter", string(p.filter), "duration", res.Timings.Resize)

	converted, err := frame.ToTransmissionOrder(resized)
	if err != nil {
		p.logger.Debug("capture stage failed", "stage", "convert", "error", err)
		return Result{}, err
	}
	res.Timings.Convert = lap()

	annotated, err := annotate.Apply(converted, req.Annotator)
	if err != nil {
		p.logger.Debug("capture stage failed", "stage", "annotate", "error", err)
		return Result{}, err
	}
	res.Timings.Annotate = lap()
	res.Annotated = req.Annotator != nil

	img, err := p.encoder.Encode(annotated.Pix, annotated.Size.Width, annotated.Size.Height)
	if err != nil {
		p.logger.Debug("capture stage failed", "stage", "encode", "error", err)
		return Result{}, err
	}
	res.Timings.Encode = lap()
	res.Image = img
	p.logger.Debug("frame encoded", "bytes", img.Len(), "level", p.encoder.Level, "duration", res.Timings.Encode)

	return res, nil
}

var (
	defaultOnce     sync.Once
	defaultPipeline *Pipeline
	defaultErr      error

	// newDefaultPipeline is swapped in tests.
	newDefaultPipeline = func() (*Pipeline, error) { return NewPipeline(PipelineOptions{}) }
)

// CaptureFrame runs a shared pipeline bound to the primary display. The
// pipeline is built on first use and reused afterwards.
func CaptureFrame(ctx context.Context, target frame.Size, a annotate.Annotator) (pngenc.Image, error) {
	defaultOnce.Do(func() {
		defaultPipeline, defaultErr = newDefaultPipeline()
	})
	if defaultErr != nil {
		return pngenc.Image{}, defaultErr
	}
	return defaultPipeline.CaptureFrame(ctx, target, a)
}
