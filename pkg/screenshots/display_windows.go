//go:build windows

package screenshots

import (
	"context"
	"errors"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"

	"github.com/offlinefirst/screenframe/pkg/frame"
)

type gdiSource struct{}

// NewDisplaySource returns a source that copies the primary display through
// GDI.
func NewDisplaySource() Source {
	return gdiSource{}
}

// Grab copies the primary display into a top-down 32-bit DIB section. Every
// GDI object is released before returning, on success and on failure.
func (gdiSource) Grab(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return Capture{}, err
	}
	EnableDPIAwareness()

	width := int(win.GetSystemMetrics(win.SM_CXSCREEN))
	height := int(win.GetSystemMetrics(win.SM_CYSCREEN))
	size := frame.Size{Width: width, Height: height}
	if !size.Valid() {
		return Capture{}, &CaptureError{Step: "query screen metrics", Err: errors.New("no active display")}
	}

	screenDC := win.GetDC(0)
	if screenDC == 0 {
		return Capture{}, gdiError("get screen DC")
	}
	defer win.ReleaseDC(0, screenDC)

	memDC := win.CreateCompatibleDC(screenDC)
	if memDC == 0 {
		return Capture{}, gdiError("create memory DC")
	}
	defer win.DeleteDC(memDC)

	header := win.BITMAPINFOHEADER{
		BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
		BiWidth:       int32(width),
		BiHeight:      -int32(height),
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: win.BI_RGB,
	}
	var bits unsafe.Pointer
	bitmap := win.CreateDIBSection(screenDC, &header, win.DIB_RGB_COLORS, &bits, 0, 0)
	if bitmap == 0 || bits == nil {
		return Capture{}, gdiError("create DIB section")
	}
	defer win.DeleteObject(win.HGDIOBJ(bitmap))

	previous := win.SelectObject(memDC, win.HGDIOBJ(bitmap))
	if previous == 0 {
		return Capture{}, gdiError("select bitmap")
	}
	defer win.SelectObject(memDC, previous)

	// CAPTUREBLT includes layered windows such as tooltips and menus.
	if !win.BitBlt(memDC, 0, 0, int32(width), int32(height), screenDC, 0, 0, win.SRCCOPY|win.CAPTUREBLT) {
		return Capture{}, gdiError("copy screen bits")
	}
	win.GdiFlush()

	buf := frame.New(size, frame.OrderNative)
	copy(buf.Pix, unsafe.Slice((*byte)(bits), len(buf.Pix)))

	return Capture{Buffer: buf, Backend: backendGDI, CapturedAt: time.Now().UTC()}, nil
}

func gdiError(step string) error {
	code := win.GetLastError()
	if code == 0 {
		return &CaptureError{Step: step}
	}
	return &CaptureError{Step: step, Err: syscall.Errno(code)}
}
