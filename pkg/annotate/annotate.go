// Package annotate overlays markers on transmission-order frames between
// colour conversion and encoding.
package annotate

import (
	"github.com/offlinefirst/screenframe/pkg/frame"
	"github.com/offlinefirst/screenframe/pkg/raster"
)

// Annotator draws onto a transmission-order (R,G,B,A) buffer and returns the
// buffer to encode. Implementations may modify pix in place and return it.
// The returned slice must keep the width*height*4 length; the encoder
// rejects anything else.
type Annotator interface {
	Annotate(pix []byte, width, height int) ([]byte, error)
}

// Func adapts a plain function to the Annotator interface.
type Func func(pix []byte, width, height int) ([]byte, error)

// Annotate calls f.
func (f Func) Annotate(pix []byte, width, height int) ([]byte, error) {
	if f == nil {
		return pix, nil
	}
	return f(pix, width, height)
}

type chain []Annotator

func (c chain) Annotate(pix []byte, width, height int) ([]byte, error) {
	var err error
	for _, a := range c {
		if pix, err = a.Annotate(pix, width, height); err != nil {
			return nil, err
		}
	}
	return pix, nil
}

// Chain runs annotators in order, feeding each the previous output. It stops
// at the first error. Nil entries are skipped.
func Chain(annotators ...Annotator) Annotator {
	c := make(chain, 0, len(annotators))
	for _, a := range annotators {
		if a != nil {
			c = append(c, a)
		}
	}
	return c
}

// Apply runs a over buf. A nil annotator leaves buf untouched. Errors from
// the annotator are returned as is.
func Apply(buf frame.Buffer, a Annotator) (frame.Buffer, error) {
	if a == nil {
		return buf, nil
	}
	pix, err := a.Annotate(buf.Pix, buf.Size.Width, buf.Size.Height)
	if err != nil {
		return frame.Buffer{}, err
	}
	return frame.Buffer{Pix: pix, Size: buf.Size, Order: buf.Order}, nil
}

type commands []raster.Command

func (c commands) Annotate(pix []byte, width, height int) ([]byte, error) {
	canvas := raster.NewCanvas(pix, width, height)
	for _, cmd := range c {
		if cmd != nil {
			cmd.Draw(canvas)
		}
	}
	return pix, nil
}

// Commands returns an annotator that draws cmds in place, in order.
func Commands(cmds ...raster.Command) Annotator {
	return commands(cmds)
}
