package screenshots

import (
	"context"
	"time"

	"github.com/offlinefirst/screenframe/pkg/frame"
)

// DefaultSyntheticSize is used when Synthetic.Size is unset.
var DefaultSyntheticSize = frame.Size{Width: 640, Height: 400}

// Synthetic renders a deterministic gradient instead of touching the
// display. Alpha is left at 0 like a GDI capture.
type Synthetic struct {
	Size  frame.Size
	Clock func() time.Time
}

// Grab renders one frame.
func (s Synthetic) Grab(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return Capture{}, err
	}
	size := s.Size
	if size.IsZero() {
		size = DefaultSyntheticSize
	}
	if !size.Valid() {
		return Capture{}, &CaptureError{Step: "render synthetic frame", Err: &frame.InvalidBufferError{Stage: "capture", Size: size}}
	}
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}

	buf := frame.New(size, frame.OrderNative)
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			i := buf.Offset(x, y)
			buf.Pix[i] = uint8(x * 255 / max(size.Width-1, 1))
			buf.Pix[i+1] = uint8(y * 255 / max(size.Height-1, 1))
			buf.Pix[i+2] = uint8((x + y) % 256)
		}
	}
	return Capture{Buffer: buf, Backend: backendSynthetic, CapturedAt: clock().UTC()}, nil
}
