package frame

import "fmt"

// BytesPerPixel is the fixed pixel stride of every buffer in the pipeline.
const BytesPerPixel = 4

// Order identifies the channel layout currently held by a buffer.
type Order uint8

const (
	// OrderNative is the layout returned by the display capture APIs (B,G,R,A).
	OrderNative Order = iota
	// OrderTransmission is the layout expected by the image encoder (R,G,B,A).
	OrderTransmission
)

func (o Order) String() string {
	switch o {
	case OrderNative:
		return "native"
	case OrderTransmission:
		return "transmission"
	default:
		return fmt.Sprintf("order(%d)", uint8(o))
	}
}

// Size holds frame dimensions in physical pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// IsZero reports whether the size is unset.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// ByteLen returns the buffer length implied by the dimensions.
func (s Size) ByteLen() int {
	return s.Width * s.Height * BytesPerPixel
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Buffer is a contiguous row-major pixel buffer with no row padding.
type Buffer struct {
	Pix   []byte
	Size  Size
	Order Order
}

// New allocates a zeroed buffer for the given size and order.
func New(size Size, order Order) Buffer {
	n := 0
	if size.Valid() {
		n = size.ByteLen()
	}
	return Buffer{Pix: make([]byte, n), Size: size, Order: order}
}

// Validate checks the length invariant, tagging failures with stage.
func (b Buffer) Validate(stage string) error {
	if !b.Size.Valid() || len(b.Pix) != b.Size.ByteLen() {
		return &InvalidBufferError{Stage: stage, Size: b.Size, Got: len(b.Pix), Want: b.Size.ByteLen()}
	}
	return nil
}

// Clone returns a deep copy of the buffer.
func (b Buffer) Clone() Buffer {
	pix := make([]byte, len(b.Pix))
	copy(pix, b.Pix)
	return Buffer{Pix: pix, Size: b.Size, Order: b.Order}
}

// Offset returns the index of the first byte of pixel (x, y), or -1 when the
// point lies outside the frame.
func (b Buffer) Offset(x, y int) int {
	if x < 0 || y < 0 || x >= b.Size.Width || y >= b.Size.Height {
		return -1
	}
	return (y*b.Size.Width + x) * BytesPerPixel
}
