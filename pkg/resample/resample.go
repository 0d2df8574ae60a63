// Package resample scales native-order frames between explicit dimensions.
package resample

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"

	"github.com/offlinefirst/screenframe/pkg/frame"
)

// Filter names the interpolation kernel used when scaling.
type Filter string

const (
	// FilterBiLinear stretches a triangle kernel over the source footprint,
	// averaging every covered pixel when shrinking.
	FilterBiLinear Filter = "bilinear"
	// FilterCatmullRom is sharper and slightly slower.
	FilterCatmullRom Filter = "catmullrom"
)

// DefaultFilter is used when no filter is configured.
const DefaultFilter = FilterBiLinear

// ParseFilter validates and canonicalises a filter name.
func ParseFilter(name string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bilinear", "linear":
		return FilterBiLinear, nil
	case "catmullrom", "catmull-rom", "bicubic":
		return FilterCatmullRom, nil
	default:
		return "", fmt.Errorf("unsupported resample filter %q", name)
	}
}

func (f Filter) kernel() *draw.Kernel {
	if f == FilterCatmullRom {
		return draw.CatmullRom
	}
	return draw.BiLinear
}

type options struct {
	filter Filter
}

// Option customises Resize.
type Option func(*options)

// WithFilter selects the interpolation kernel.
func WithFilter(f Filter) Option {
	return func(o *options) {
		if f != "" {
			o.filter = f
		}
	}
}

// Target resolves a possibly partial target size against the source: an
// unset dimension follows the source aspect ratio.
func Target(src, dst frame.Size) frame.Size {
	switch {
	case dst.Width > 0 && dst.Height > 0:
		return dst
	case dst.Width > 0:
		h := (src.Height*dst.Width + src.Width/2) / src.Width
		return frame.Size{Width: dst.Width, Height: max(h, 1)}
	case dst.Height > 0:
		w := (src.Width*dst.Height + src.Height/2) / src.Height
		return frame.Size{Width: max(w, 1), Height: dst.Height}
	default:
		return src
	}
}

// Resize scales src to dst. The source is returned unchanged when dst is
// unset or equal to the source dimensions. Every output pixel is opaque.
func Resize(src frame.Buffer, dst frame.Size, opts ...Option) (frame.Buffer, error) {
	if err := src.Validate("resample"); err != nil {
		return frame.Buffer{}, err
	}
	if dst.Width < 0 || dst.Height < 0 {
		return frame.Buffer{}, fmt.Errorf("resample: target dimensions %s must not be negative", dst)
	}

	target := Target(src.Size, dst)
	if target == src.Size {
		return src, nil
	}

	o := options{filter: DefaultFilter}
	for _, opt := range opts {
		opt(&o)
	}

	// image.RGBA is premultiplied; capture alpha is meaningless and often 0,
	// so scale an opaque copy.
	pix := make([]byte, len(src.Pix))
	copy(pix, src.Pix)
	frame.ForceOpaque(pix)
	srcImg := &image.RGBA{Pix: pix, Stride: src.Size.Width * frame.BytesPerPixel, Rect: image.Rect(0, 0, src.Size.Width, src.Size.Height)}
	dstImg := image.NewRGBA(image.Rect(0, 0, target.Width, target.Height))

	o.filter.kernel().Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Src, nil)
	frame.ForceOpaque(dstImg.Pix)

	return frame.Buffer{Pix: dstImg.Pix, Size: target, Order: src.Order}, nil
}
