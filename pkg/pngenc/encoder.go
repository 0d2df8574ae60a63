// Package pngenc writes truecolor-with-alpha PNG images from raw
// transmission-order pixel buffers.
package pngenc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/klauspost/compress/zlib"

	"github.com/offlinefirst/screenframe/pkg/frame"
)

// Signature is the fixed 8-byte PNG file header.
var Signature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

const (
	bitDepth        = 8
	colorTypeRGBA   = 6
	filterNone      = 0
	maxDimension    = math.MaxInt32
	ihdrPayloadSize = 13
	chunkOverhead   = 12
)

// DefaultLevel is the zlib level used by Encode.
const DefaultLevel = zlib.DefaultCompression

// Encoder produces PNG streams at a fixed zlib level. The zero value stores
// the image data uncompressed, which is still a valid PNG.
type Encoder struct {
	Level int
}

// DefaultEncoder is used by the package-level Encode.
var DefaultEncoder = Encoder{Level: DefaultLevel}

// ValidLevel reports whether level is accepted by the zlib writer.
func ValidLevel(level int) bool {
	return level >= zlib.HuffmanOnly && level <= zlib.BestCompression
}

// Encode encodes pix with DefaultEncoder.
func Encode(pix []byte, width, height int) (Image, error) {
	return DefaultEncoder.Encode(pix, width, height)
}

// Encode turns a width*height*4 R,G,B,A buffer into a PNG image. The output
// depends only on the input and the level.
func (e Encoder) Encode(pix []byte, width, height int) (Image, error) {
	size := frame.Size{Width: width, Height: height}
	if err := (frame.Buffer{Pix: pix, Size: size}).Validate("encode"); err != nil {
		return Image{}, err
	}
	if width > maxDimension || height > maxDimension {
		return Image{}, fmt.Errorf("encode: dimensions %s exceed the PNG limit", size)
	}
	if !ValidLevel(e.Level) {
		return Image{}, fmt.Errorf("encode: unsupported compression level %d", e.Level)
	}

	idat, err := e.compress(pix, width, height)
	if err != nil {
		return Image{}, err
	}

	out := bytes.NewBuffer(make([]byte, 0, len(Signature)+3*chunkOverhead+ihdrPayloadSize+len(idat)))
	out.Write(Signature[:])

	var ihdr [ihdrPayloadSize]byte
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = bitDepth
	ihdr[9] = colorTypeRGBA
	// compression, filter and interlace methods are all 0.
	writeChunk(out, "IHDR", ihdr[:])
	writeChunk(out, "IDAT", idat)
	writeChunk(out, "IEND", nil)

	return Image{data: out.Bytes(), size: size}, nil
}

// compress produces the zlib stream of filtered scanlines: one filter-type
// byte followed by the raw row, for every row.
func (e Encoder) compress(pix []byte, width, height int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, e.Level)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	stride := width * frame.BytesPerPixel
	filter := []byte{filterNone}
	for y := 0; y < height; y++ {
		if _, err := zw.Write(filter); err != nil {
			return nil, fmt.Errorf("encode: compress scanline %d: %w", y, err)
		}
		if _, err := zw.Write(pix[y*stride : (y+1)*stride]); err != nil {
			return nil, fmt.Errorf("encode: compress scanline %d: %w", y, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("encode: finish zlib stream: %w", err)
	}
	return buf.Bytes(), nil
}

// writeChunk frames payload as length, tag, payload, CRC-32(tag+payload).
func writeChunk(w *bytes.Buffer, tag string, payload []byte) {
	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(payload)))
	copy(header[4:8], tag)
	w.Write(header[:])
	w.Write(payload)

	crc := crc32.NewIEEE()
	crc.Write(header[4:8])
	crc.Write(payload)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}
