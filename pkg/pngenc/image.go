package pngenc

import (
	"encoding/base64"
	"io"

	"github.com/offlinefirst/screenframe/pkg/frame"
)

// DataURLPrefix starts every string returned by Image.DataURL.
const DataURLPrefix = "data:image/png;base64,"

// Image is an encoded PNG. It is immutable once returned by an Encoder.
type Image struct {
	data []byte
	size frame.Size
}

// Bytes returns the encoded stream. Callers must not modify it.
func (i Image) Bytes() []byte { return i.data }

// Len returns the encoded size in bytes.
func (i Image) Len() int { return len(i.data) }

// Size returns the pixel dimensions declared in the header.
func (i Image) Size() frame.Size { return i.size }

// IsZero reports whether the image holds no data.
func (i Image) IsZero() bool { return len(i.data) == 0 }

// DataURL returns the image as a base64 data URL, the form expected by
// vision model HTTP APIs.
func (i Image) DataURL() string {
	return DataURLPrefix + base64.StdEncoding.EncodeToString(i.data)
}

// WriteTo implements io.WriterTo.
func (i Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(i.data)
	return int64(n), err
}
