package frame

import (
	"errors"
	"fmt"
)

// ErrInvalidBuffer matches every InvalidBufferError via errors.Is.
var ErrInvalidBuffer = errors.New("invalid pixel buffer")

// ErrWrongOrder is returned when a stage receives a buffer in a channel
// order it does not accept.
var ErrWrongOrder = errors.New("unexpected channel order")

// InvalidBufferError reports a buffer whose length disagrees with its
// declared dimensions at a stage boundary.
type InvalidBufferError struct {
	Stage string
	Size  Size
	Got   int
	Want  int
}

func (e *InvalidBufferError) Error() string {
	if !e.Size.Valid() {
		return fmt.Sprintf("%s: invalid pixel buffer: dimensions %s must be positive", e.Stage, e.Size)
	}
	return fmt.Sprintf("%s: invalid pixel buffer: %d bytes for %s frame, want %d", e.Stage, e.Got, e.Size, e.Want)
}

func (e *InvalidBufferError) Is(target error) bool {
	return target == ErrInvalidBuffer
}
