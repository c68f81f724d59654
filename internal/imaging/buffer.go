package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Buffer is a packed raster of 8-bit samples.
//
// Samples for pixel (x, y) and channel c live at Pix[y*Stride + x*Channels + c].
// Channel order follows the Go image package: gray, gray+alpha, RGB or RGBA,
// with alpha always last.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Stride   int
	Pix      []uint8
}

// NewBuffer allocates a zeroed buffer with a tightly packed stride.
func NewBuffer(width, height, channels int) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative size %dx%d", ErrDimensionMismatch, width, height)
	}
	if channels < 1 || channels > 4 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}
	stride := width * channels
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Stride:   stride,
		Pix:      make([]uint8, stride*height),
	}, nil
}

// WrapBuffer builds a Buffer over existing sample storage without copying.
// The caller keeps ownership of pix and must not mutate it concurrently with
// a filter reading it.
func WrapBuffer(pix []uint8, width, height, channels, stride int) (*Buffer, error) {
	if channels < 1 || channels > 4 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative size %dx%d", ErrDimensionMismatch, width, height)
	}
	if stride < width*channels {
		return nil, fmt.Errorf("%w: stride %d shorter than row of %d samples",
			ErrDimensionMismatch, stride, width*channels)
	}
	if height > 0 && len(pix) < stride*(height-1)+width*channels {
		return nil, fmt.Errorf("%w: %d samples cannot hold %dx%dx%d",
			ErrDimensionMismatch, len(pix), width, height, channels)
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Stride:   stride,
		Pix:      pix,
	}, nil
}

// FromImage converts a decoded image into a Buffer.
//
// 8-bit grayscale images become single-channel buffers; everything else,
// including 16-bit and paletted images, is converted to non-premultiplied RGBA.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if g, ok := img.(*image.Gray); ok {
		b, _ := NewBuffer(w, h, 1)
		for y := 0; y < h; y++ {
			start := g.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(b.Row(y), g.Pix[start:start+w])
		}
		return b
	}

	nrgba := imaging.Clone(img)
	b, _ := NewBuffer(w, h, 4)
	for y := 0; y < h; y++ {
		start := y * nrgba.Stride
		copy(b.Row(y), nrgba.Pix[start:start+w*4])
	}
	return b
}

// Image returns the buffer as an image.Image suitable for encoding.
// Single-channel buffers map to *image.Gray, everything else to *image.NRGBA.
func (b *Buffer) Image() image.Image {
	rect := image.Rect(0, 0, b.Width, b.Height)

	if b.Channels == 1 {
		out := image.NewGray(rect)
		for y := 0; y < b.Height; y++ {
			copy(out.Pix[y*out.Stride:], b.Row(y))
		}
		return out
	}

	out := image.NewNRGBA(rect)
	for y := 0; y < b.Height; y++ {
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Width; x++ {
			i := b.Offset(x, y, 0)
			d := dst[x*4 : x*4+4]
			switch b.Channels {
			case 2:
				d[0], d[1], d[2], d[3] = b.Pix[i], b.Pix[i], b.Pix[i], b.Pix[i+1]
			case 3:
				d[0], d[1], d[2], d[3] = b.Pix[i], b.Pix[i+1], b.Pix[i+2], 255
			default:
				copy(d, b.Pix[i:i+4])
			}
		}
	}
	return out
}

// Offset returns the index into Pix of channel c at (x, y).
// It panics if the coordinates fall outside the buffer.
func (b *Buffer) Offset(x, y, c int) int {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height || c < 0 || c >= b.Channels {
		panic(fmt.Sprintf("imaging: sample (%d,%d,%d) outside %dx%dx%d buffer",
			x, y, c, b.Width, b.Height, b.Channels))
	}
	return y*b.Stride + x*b.Channels + c
}

// At returns the sample of channel c at (x, y).
func (b *Buffer) At(x, y, c int) uint8 {
	return b.Pix[b.Offset(x, y, c)]
}

// Set writes the sample of channel c at (x, y).
func (b *Buffer) Set(x, y, c int, v uint8) {
	b.Pix[b.Offset(x, y, c)] = v
}

// Row returns the packed samples of row y, without stride padding.
func (b *Buffer) Row(y int) []uint8 {
	start := y * b.Stride
	return b.Pix[start : start+b.Width*b.Channels]
}

// Clone returns a deep, tightly packed copy.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Width:    b.Width,
		Height:   b.Height,
		Channels: b.Channels,
		Stride:   b.Width * b.Channels,
	}
	out.Pix = make([]uint8, out.Stride*out.Height)
	for y := 0; y < b.Height; y++ {
		copy(out.Row(y), b.Row(y))
	}
	return out
}

// SameShape reports whether o has the same width, height and channel count.
func (b *Buffer) SameShape(o *Buffer) bool {
	return o != nil && b.Width == o.Width && b.Height == o.Height && b.Channels == o.Channels
}

// CheckShape returns ErrDimensionMismatch when o does not match b.
func (b *Buffer) CheckShape(o *Buffer) error {
	if b.SameShape(o) {
		return nil
	}
	if o == nil {
		return fmt.Errorf("%w: nil buffer", ErrDimensionMismatch)
	}
	return fmt.Errorf("%w: %dx%dx%d vs %dx%dx%d", ErrDimensionMismatch,
		b.Width, b.Height, b.Channels, o.Width, o.Height, o.Channels)
}

// HasAlpha reports whether the last channel is alpha.
func (b *Buffer) HasAlpha() bool {
	return b.Channels == 2 || b.Channels == 4
}

// AlphaIndex returns the alpha channel index, or -1 when there is none.
func (b *Buffer) AlphaIndex() int {
	if b.HasAlpha() {
		return b.Channels - 1
	}
	return -1
}

// ColorChannels returns the number of non-alpha channels.
func (b *Buffer) ColorChannels() int {
	if b.HasAlpha() {
		return b.Channels - 1
	}
	return b.Channels
}

// Fill sets every pixel to the given samples, one per channel.
func (b *Buffer) Fill(samples ...uint8) {
	for y := 0; y < b.Height; y++ {
		row := b.Row(y)
		for i := range row {
			row[i] = samples[i%b.Channels]
		}
	}
}

// Saturate rounds v to the nearest integer and clamps it to [0, 255].
func Saturate(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	r := math.Round(v)
	if r <= 0 {
		return 0
	}
	if r >= 255 {
		return 255
	}
	return uint8(r)
}

// saturateInt clamps an integer sample to [0, 255].
func saturateInt(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Validate checks that b is a well-formed buffer: non-nil, 1 to 4 channels,
// and a stride and sample count large enough for its dimensions.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrDimensionMismatch)
	}
	if b.Channels < 1 || b.Channels > 4 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, b.Channels)
	}
	if b.Stride < b.Width*b.Channels {
		return fmt.Errorf("%w: stride %d shorter than row of %d samples",
			ErrDimensionMismatch, b.Stride, b.Width*b.Channels)
	}
	if b.Height > 0 && len(b.Pix) < b.Stride*(b.Height-1)+b.Width*b.Channels {
		return fmt.Errorf("%w: %d samples cannot hold %dx%dx%d",
			ErrDimensionMismatch, len(b.Pix), b.Width, b.Height, b.Channels)
	}
	return nil
}
