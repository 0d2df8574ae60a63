//go:build !windows

package screenshots

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/kbinani/screenshot"

	"github.com/offlinefirst/screenframe/pkg/frame"
	"github.com/offlinefirst/screenframe/pkg/permissions"
)

var errNoDisplay = errors.New("no active display")

// Display hooks are swapped in tests.
var (
	activeDisplays = screenshot.NumActiveDisplays
	displayBounds  = screenshot.GetDisplayBounds
	captureRect    = screenshot.CaptureRect
)

type screenshotSource struct{}

// NewDisplaySource returns a source for the primary display.
func NewDisplaySource() Source {
	return screenshotSource{}
}

// Grab captures display 0 and reorders the result into native B,G,R,A so
// later stages behave the same on every platform.
func (screenshotSource) Grab(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return Capture{}, err
	}
	EnableDPIAwareness()

	if activeDisplays() < 1 {
		return Capture{}, &CaptureError{Step: "enumerate displays", Err: errNoDisplay}
	}
	bounds := displayBounds(0)
	if bounds.Empty() {
		return Capture{}, &CaptureError{Step: "query display bounds", Err: errNoDisplay}
	}

	img, err := captureRect(bounds)
	if err != nil {
		probe := permissions.ProbeScreenRecording(nil)
		if probe.Status == permissions.StatusDenied {
			err = newPermissionError(probe.Message)
		}
		return Capture{}, &CaptureError{Step: "capture display", Err: err}
	}
	return Capture{Buffer: nativeFromRGBA(img), Backend: backendScreenshot, CapturedAt: time.Now().UTC()}, nil
}

func nativeFromRGBA(img *image.RGBA) frame.Buffer {
	b := img.Bounds()
	buf := frame.New(frame.Size{Width: b.Dx(), Height: b.Dy()}, frame.OrderNative)
	rowLen := b.Dx() * frame.BytesPerPixel
	for y := 0; y < b.Dy(); y++ {
		start := img.PixOffset(b.Min.X, b.Min.Y+y)
		src := img.Pix[start : start+rowLen]
		dst := buf.Pix[y*rowLen : (y+1)*rowLen]
		for i := 0; i < rowLen; i += frame.BytesPerPixel {
			dst[i], dst[i+1], dst[i+2], dst[i+3] = src[i+2], src[i+1], src[i], src[i+3]
		}
	}
	return buf
}
