package frame

import "fmt"

// OpaqueAlpha is the alpha value written by every normalising stage.
const OpaqueAlpha = 0xFF

// ToTransmissionOrder returns a new buffer with the first and third byte of
// every pixel swapped and alpha forced opaque. The input is left untouched.
func ToTransmissionOrder(b Buffer) (Buffer, error) {
	if err := b.Validate("convert"); err != nil {
		return Buffer{}, err
	}
	if b.Order != OrderNative {
		return Buffer{}, fmt.Errorf("convert: %w: got %s, want %s", ErrWrongOrder, b.Order, OrderNative)
	}

	out := make([]byte, len(b.Pix))
	src := b.Pix
	for i := 0; i < len(src); i += BytesPerPixel {
		out[i] = src[i+2]
		out[i+1] = src[i+1]
		out[i+2] = src[i]
		out[i+3] = OpaqueAlpha
	}
	return Buffer{Pix: out, Size: b.Size, Order: OrderTransmission}, nil
}

// ForceOpaque sets the alpha byte of every pixel in pix to OpaqueAlpha.
func ForceOpaque(pix []byte) {
	for i := BytesPerPixel - 1; i < len(pix); i += BytesPerPixel {
		pix[i] = OpaqueAlpha
	}
}
