package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/offlinefirst/screenframe/pkg/annotate"
	"github.com/offlinefirst/screenframe/pkg/frame"
	"github.com/offlinefirst/screenframe/pkg/pngenc"
	"github.com/offlinefirst/screenframe/pkg/raster"
	"github.com/offlinefirst/screenframe/pkg/screenshots"
)

var testCaptureTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// uniformSource returns a native-order frame where every pixel is b,g,r,a.
func uniformSource(size frame.Size, b, g, r, a byte) screenshots.Source {
	return screenshots.SourceFunc(func(context.Context) (screenshots.Capture, error) {
		buf := frame.New(size, frame.OrderNative)
		for i := 0; i < len(buf.Pix); i += 4 {
			buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = b, g, r, a
		}
		return screenshots.Capture{Buffer: buf, Backend: "fake", CapturedAt: testCaptureTime}, nil
	})
}

func decodePNG(t *testing.T, img pngenc.Image) *image.NRGBA {
	t.Helper()
	decoded, err := png.Decode(bytes.NewReader(img.Bytes()))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	nrgba, ok := decoded.(*image.NRGBA)
	if !ok {
		t.Fatalf("decoded %T, want *image.NRGBA", decoded)
	}
	return nrgba
}

func newTestPipeline(t *testing.T, src screenshots.Source) *Pipeline {
	t.Helper()
	p, err := NewPipeline(PipelineOptions{Source: src})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func TestCaptureFrameResizesConvertsAndEncodes(t *testing.T) {
	p := newTestPipeline(t, uniformSource(frame.Size{Width: 64, Height: 40}, 10, 20, 30, 0))

	img, err := p.CaptureFrame(context.Background(), frame.Size{Width: 32, Height: 20}, nil)
	if err != nil {
		t.Fatalf("CaptureFrame returned error: %v", err)
	}
	decoded := decodePNG(t, img)
	if decoded.Bounds() != image.Rect(0, 0, 32, 20) {
		t.Fatalf("unexpected output bounds %v", decoded.Bounds())
	}
	for i := 0; i < len(decoded.Pix); i += 4 {
		got := decoded.Pix[i : i+4]
		if got[0] != 30 || got[1] != 20 || got[2] != 10 || got[3] != 255 {
			t.Fatalf("pixel %d = %v, want [30 20 10 255]", i/4, got)
		}
	}
}

func TestCaptureKeepsNativeSizeWithoutTarget(t *testing.T) {
	p := newTestPipeline(t, screenshots.Synthetic{Size: frame.Size{Width: 20, Height: 10}})

	res, err := p.Capture(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if res.Image.Size() != (frame.Size{Width: 20, Height: 10}) || res.NativeSize != res.Image.Size() {
		t.Fatalf("expected native size output, got %s (native %s)", res.Image.Size(), res.NativeSize)
	}
	if res.Backend != "synthetic" || res.Annotated {
		t.Fatalf("unexpected result metadata %+v", res)
	}
	decodePNG(t, res.Image)
}

func TestCaptureRunsAnnotatorOnTransmissionOrderFrame(t *testing.T) {
	p := newTestPipeline(t, uniformSource(frame.Size{Width: 100, Height: 100}, 10, 20, 30, 0))

	calls := 0
	spy := annotate.Func(func(pix []byte, width, height int) ([]byte, error) {
		calls++
		if width != 50 || height != 50 {
			t.Fatalf("annotator got %dx%d", width, height)
		}
		if pix[0] != 30 || pix[2] != 10 || pix[3] != 255 {
			t.Fatalf("annotator got non-transmission pixel % x", pix[:4])
		}
		return pix, nil
	})
	marker := annotate.Commands(raster.CrosshairCmd{X: 25, Y: 25, Size: 5, Color: raster.Red, Thickness: 1})

	res, err := p.Capture(context.Background(), Request{
		Target:    frame.Size{Width: 50, Height: 50},
		Annotator: annotate.Chain(spy, marker),
	})
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("annotator called %d times", calls)
	}
	if !res.Annotated {
		t.Fatalf("expected annotated result")
	}
	decoded := decodePNG(t, res.Image)
	if c := decoded.NRGBAAt(25, 25); c.R != 255 || c.G != 0 || c.B != 0 {
		t.Fatalf("marker missing at centre: %v", c)
	}
	if c := decoded.NRGBAAt(0, 0); c.R != 30 || c.G != 20 || c.B != 10 {
		t.Fatalf("background changed: %v", c)
	}
}

func TestCapturePropagatesStageErrorsUnchanged(t *testing.T) {
	sourceErr := &screenshots.CaptureError{Step: "get screen DC"}
	failing := screenshots.SourceFunc(func(context.Context) (screenshots.Capture, error) {
		return screenshots.Capture{}, sourceErr
	})
	if _, err := newTestPipeline(t, failing).CaptureFrame(context.Background(), frame.Size{}, nil); err != sourceErr {
		t.Fatalf("expected source error unchanged, got %v", err)
	}

	annotateErr := errors.New("overlay failed")
	p := newTestPipeline(t, uniformSource(frame.Size{Width: 4, Height: 4}, 1, 2, 3, 0))
	_, err := p.CaptureFrame(context.Background(), frame.Size{}, annotate.Func(func([]byte, int, int) ([]byte, error) {
		return nil, annotateErr
	}))
	if err != annotateErr {
		t.Fatalf("expected annotator error unchanged, got %v", err)
	}
}

func TestCaptureReportsInvalidBuffersByStage(t *testing.T) {
	short := screenshots.SourceFunc(func(context.Context) (screenshots.Capture, error) {
		return screenshots.Capture{Buffer: frame.Buffer{Pix: make([]byte, 10), Size: frame.Size{Width: 2, Height: 2}}}, nil
	})
	_, err := newTestPipeline(t, short).CaptureFrame(context.Background(), frame.Size{}, nil)
	var ibe *frame.InvalidBufferError
	if !errors.As(err, &ibe) || ibe.Stage != "capture" {
		t.Fatalf("expected capture-stage InvalidBufferError, got %v", err)
	}

	truncating := annotate.Func(func(pix []byte, _, _ int) ([]byte, error) {
		return pix[:len(pix)-4], nil
	})
	p := newTestPipeline(t, uniformSource(frame.Size{Width: 3, Height: 3}, 1, 2, 3, 0))
	_, err = p.CaptureFrame(context.Background(), frame.Size{}, truncating)
	if !errors.As(err, &ibe) || ibe.Stage != "encode" {
		t.Fatalf("expected encode-stage InvalidBufferError, got %v", err)
	}
}

func TestCaptureRejectsNegativeTarget(t *testing.T) {
	p := newTestPipeline(t, uniformSource(frame.Size{Width: 3, Height: 3}, 1, 2, 3, 0))
	if _, err := p.CaptureFrame(context.Background(), frame.Size{Width: -1, Height: 2}, nil); err == nil {
		t.Fatalf("expected error for negative target")
	}
}

func TestNewPipelineOptions(t *testing.T) {
	if _, err := NewPipeline(PipelineOptions{Filter: "nearest"}); err == nil {
		t.Fatalf("expected error for unsupported filter")
	}

	stored := pngenc.Encoder{Level: 0}
	p, err := NewPipeline(PipelineOptions{
		Source:  uniformSource(frame.Size{Width: 8, Height: 8}, 0, 0, 0, 0),
		Encoder: &stored,
		Filter:  "catmullrom",
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	res, err := p.Capture(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	compressed, err := pngenc.Encode(make([]byte, 8*8*4), 8, 8)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if res.Image.Len() <= compressed.Len() {
		t.Fatalf("expected stored blocks to be larger than compressed output")
	}
}

func TestTimingsTotal(t *testing.T) {
	tm := Timings{Capture: 1, Resize: 2, Convert: 3, Annotate: 4, Encode: 5}
	if tm.Total() != 15 {
		t.Fatalf("unexpected total %v", tm.Total())
	}
}

func TestCaptureLogsFailingStage(t *testing.T) {
	var logs bytes.Buffer
	p, err := NewPipeline(PipelineOptions{
		Source: uniformSource(frame.Size{Width: 3, Height: 3}, 1, 2, 3, 0),
		Logger: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	truncating := annotate.Func(func(pix []byte, _, _ int) ([]byte, error) {
		return pix[:4], nil
	})
	if _, err := p.CaptureFrame(context.Background(), frame.Size{}, truncating); err == nil {
		t.Fatalf("expected encode failure")
	}
	if !strings.Contains(logs.String(), `msg="capture stage failed" stage=encode`) {
		t.Fatalf("expected encode failure in debug log, got %q", logs.String())
	}

	logs.Reset()
	if _, err := p.CaptureFrame(context.Background(), frame.Size{Width: -1}, nil); err == nil {
		t.Fatalf("expected resize failure")
	}
	if !strings.Contains(logs.String(), "stage=resize") {
		t.Fatalf("expected resize failure in debug log, got %q", logs.String())
	}
}

func resetDefaultPipeline(t *testing.T, build func() (*Pipeline, error)) {
	t.Helper()
	orig := newDefaultPipeline
	newDefaultPipeline = build
	defaultOnce, defaultPipeline, defaultErr = sync.Once{}, nil, nil
	t.Cleanup(func() {
		newDefaultPipeline = orig
		defaultOnce, defaultPipeline, defaultErr = sync.Once{}, nil, nil
	})
}

func TestPackageCaptureFrameReusesDefaultPipeline(t *testing.T) {
	builds := 0
	resetDefaultPipeline(t, func() (*Pipeline, error) {
		builds++
		return NewPipeline(PipelineOptions{Source: uniformSource(frame.Size{Width: 40, Height: 20}, 10, 20, 30, 0)})
	})

	for i := 0; i < 3; i++ {
		img, err := CaptureFrame(context.Background(), frame.Size{Width: 20}, nil)
		if err != nil {
			t.Fatalf("CaptureFrame returned error: %v", err)
		}
		if decoded := decodePNG(t, img); decoded.Bounds() != image.Rect(0, 0, 20, 10) {
			t.Fatalf("unexpected bounds %v", decoded.Bounds())
		}
	}
	if builds != 1 {
		t.Fatalf("default pipeline built %d times", builds)
	}
}

func TestPackageCaptureFrameReportsBuildError(t *testing.T) {
	buildErr := errors.New("no source")
	resetDefaultPipeline(t, func() (*Pipeline, error) { return nil, buildErr })

	for i := 0; i < 2; i++ {
		if _, err := CaptureFrame(context.Background(), frame.Size{}, nil); err != buildErr {
			t.Fatalf("expected build error, got %v", err)
		}
	}
}
