// Package raster rasterizes annotation shapes onto transmission-order pixel
// buffers. Every write outside the frame is silently clipped.
package raster

import (
	"image/color"

	"github.com/offlinefirst/screenframe/pkg/frame"
)

// Named colours used by the action overlay.
var (
	Red    = color.RGBA{R: 255, A: 255}
	Green  = color.RGBA{G: 255, A: 255}
	Blue   = color.RGBA{G: 150, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black  = color.RGBA{A: 255}
)

// Canvas draws directly into a buffer it does not own. Use it to batch many
// shapes without copying the frame per shape.
type Canvas struct {
	pix    []byte
	width  int
	height int
}

// NewCanvas wraps pix for in-place drawing. The buffer length is not checked;
// pixels past the end of a short buffer are skipped.
func NewCanvas(pix []byte, width, height int) *Canvas {
	return &Canvas{pix: pix, width: width, height: height}
}

// Set writes one pixel; coordinates outside the frame are ignored.
func (c *Canvas) Set(x, y int, col color.RGBA) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	i := (y*c.width + x) * frame.BytesPerPixel
	if i+3 >= len(c.pix) {
		return
	}
	c.pix[i] = col.R
	c.pix[i+1] = col.G
	c.pix[i+2] = col.B
	c.pix[i+3] = col.A
}

// brush stamps a thickness-wide square centred on (x, y).
func (c *Canvas) brush(x, y, thickness int, col color.RGBA) {
	if thickness < 1 {
		thickness = 1
	}
	lo, hi := -(thickness / 2), (thickness-1)/2
	for dy := lo; dy <= hi; dy++ {
		for dx := lo; dx <= hi; dx++ {
			c.Set(x+dx, y+dy, col)
		}
	}
}

// Line draws a Bresenham path from (x1, y1) to (x2, y2).
func (c *Canvas) Line(x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	var ok bool
	if x1, y1, x2, y2, ok = c.clipSegment(x1, y1, x2, y2, thickness); !ok {
		return
	}
	dx, dy := absInt(x2-x1), absInt(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	x, y := x1, y1
	for {
		c.brush(x, y, thickness, col)
		if x == x2 && y == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

// Circle draws a filled disc or a 2-pixel ring at radius.
func (c *Canvas) Circle(cx, cy, radius int, col color.RGBA, filled bool) {
	if radius < 0 {
		return
	}
	outer := radius * radius
	inner := 0
	if !filled {
		inner = (radius - 2) * (radius - 2)
	}
	for dy := max(-radius, -cy); dy <= min(radius, c.height-1-cy); dy++ {
		for dx := max(-radius, -cx); dx <= min(radius, c.width-1-cx); dx++ {
			d := dx*dx + dy*dy
			if d <= outer && d >= inner {
				c.Set(cx+dx, cy+dy, col)
			}
		}
	}
}

const crosshairDotRadius = 3

// Crosshair draws horizontal and vertical arms of length 2*size centred on
// (x, y) plus a filled centre dot.
func (c *Canvas) Crosshair(x, y, size int, col color.RGBA, thickness int) {
	c.Line(x-size, y, x+size, y, col, thickness)
	c.Line(x, y-size, x, y+size, col, thickness)
	c.Circle(x, y, crosshairDotRadius, col, true)
}

// Rectangle outlines the axis-aligned box spanned by two corners.
func (c *Canvas) Rectangle(x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	c.Line(x1, y1, x2, y1, col, thickness)
	c.Line(x2, y1, x2, y2, col, thickness)
	c.Line(x2, y2, x1, y2, col, thickness)
	c.Line(x1, y2, x1, y1, col, thickness)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
