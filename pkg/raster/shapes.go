package raster

import (
	"image/color"

	"github.com/offlinefirst/screenframe/pkg/frame"
)

// Command is one drawable shape in pixel space.
type Command interface {
	Draw(c *Canvas)
}

// LineCmd draws a straight line.
type LineCmd struct {
	X1, Y1, X2, Y2 int
	Color          color.RGBA
	Thickness      int
}

func (l LineCmd) Draw(c *Canvas) { c.Line(l.X1, l.Y1, l.X2, l.Y2, l.Color, l.Thickness) }

// CrosshairCmd draws a crosshair with a centre dot.
type CrosshairCmd struct {
	X, Y      int
	Size      int
	Color     color.RGBA
	Thickness int
}

func (x CrosshairCmd) Draw(c *Canvas) { c.Crosshair(x.X, x.Y, x.Size, x.Color, x.Thickness) }

// CircleCmd draws a disc or ring.
type CircleCmd struct {
	X, Y   int
	Radius int
	Color  color.RGBA
	Filled bool
}

func (o CircleCmd) Draw(c *Canvas) { c.Circle(o.X, o.Y, o.Radius, o.Color, o.Filled) }

// ArrowCmd draws a line ending in a chevron.
type ArrowCmd struct {
	X1, Y1, X2, Y2 int
	Color          color.RGBA
	Thickness      int
}

func (a ArrowCmd) Draw(c *Canvas) { c.Arrow(a.X1, a.Y1, a.X2, a.Y2, a.Color, a.Thickness) }

// RectangleCmd outlines an axis-aligned box.
type RectangleCmd struct {
	X1, Y1, X2, Y2 int
	Color          color.RGBA
	Thickness      int
}

func (r RectangleCmd) Draw(c *Canvas) { c.Rectangle(r.X1, r.Y1, r.X2, r.Y2, r.Color, r.Thickness) }

// LabelCmd draws a small number.
type LabelCmd struct {
	X, Y   int
	Number int
	Color  color.RGBA
}

func (l LabelCmd) Draw(c *Canvas) { c.Label(l.X, l.Y, l.Number, l.Color) }

// Apply draws cmds onto a copy of buf and returns the copy.
func Apply(buf frame.Buffer, cmds ...Command) frame.Buffer {
	out := buf.Clone()
	canvas := NewCanvas(out.Pix, out.Size.Width, out.Size.Height)
	for _, cmd := range cmds {
		if cmd != nil {
			cmd.Draw(canvas)
		}
	}
	return out
}

// Line returns a copy of buf with a line drawn on it.
func Line(buf frame.Buffer, x1, y1, x2, y2 int, col color.RGBA, thickness int) frame.Buffer {
	return Apply(buf, LineCmd{X1: x1, Y1: y1, X2: x2, Y2: y2, Color: col, Thickness: thickness})
}

// Crosshair returns a copy of buf with a crosshair drawn on it.
func Crosshair(buf frame.Buffer, x, y, size int, col color.RGBA, thickness int) frame.Buffer {
	return Apply(buf, CrosshairCmd{X: x, Y: y, Size: size, Color: col, Thickness: thickness})
}

// Circle returns a copy of buf with a disc or ring drawn on it.
func Circle(buf frame.Buffer, x, y, radius int, col color.RGBA, filled bool) frame.Buffer {
	return Apply(buf, CircleCmd{X: x, Y: y, Radius: radius, Color: col, Filled: filled})
}

// Arrow returns a copy of buf with an arrow drawn on it.
func Arrow(buf frame.Buffer, x1, y1, x2, y2 int, col color.RGBA, thickness int) frame.Buffer {
	return Apply(buf, ArrowCmd{X1: x1, Y1: y1, X2: x2, Y2: y2, Color: col, Thickness: thickness})
}

// Rectangle returns a copy of buf with a box outline drawn on it.
func Rectangle(buf frame.Buffer, x1, y1, x2, y2 int, col color.RGBA, thickness int) frame.Buffer {
	return Apply(buf, RectangleCmd{X1: x1, Y1: y1, X2: x2, Y2: y2, Color: col, Thickness: thickness})
}

// Label returns a copy of buf with a number drawn on it.
func Label(buf frame.Buffer, x, y, n int, col color.RGBA) frame.Buffer {
	return Apply(buf, LabelCmd{X: x, Y: y, Number: n, Color: col})
}
