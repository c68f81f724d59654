package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createTestBuffer creates a buffer filled with a single color
func createTestBuffer(t *testing.T, width, height, channels int, samples ...uint8) *Buffer {
	t.Helper()

	b, err := NewBuffer(width, height, channels)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	b.Fill(samples...)
	return b
}

// createPatternBuffer creates an RGBA buffer with a deterministic pseudo-random pattern
func createPatternBuffer(t *testing.T, width, height int) *Buffer {
	t.Helper()

	b := createTestBuffer(t, width, height, 4, 0, 0, 0, 255)
	seed := uint32(2463534242)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < 3; c++ {
				seed ^= seed << 13
				seed ^= seed >> 17
				seed ^= seed << 5
				b.Set(x, y, c, uint8(seed))
			}
		}
	}
	return b
}

// createInMemoryImage creates a solid color image
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createEdgeTestBuffer creates a white RGBA buffer with a black rectangle in the center
func createEdgeTestBuffer(t *testing.T, width, height int) *Buffer {
	t.Helper()

	b := createTestBuffer(t, width, height, 4, 255, 255, 255, 255)
	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			b.Set(x, y, 0, 0)
			b.Set(x, y, 1, 0)
			b.Set(x, y, 2, 0)
		}
	}
	return b
}

// assertInterior compares two buffers on pixels at least margin away from every edge
func assertInterior(t *testing.T, got, want *Buffer, margin int) {
	t.Helper()

	if !got.SameShape(want) {
		t.Fatalf("shape: got %dx%dx%d, want %dx%dx%d",
			got.Width, got.Height, got.Channels, want.Width, want.Height, want.Channels)
	}
	for y := margin; y < got.Height-margin; y++ {
		for x := margin; x < got.Width-margin; x++ {
			for c := 0; c < got.Channels; c++ {
				if g, w := got.At(x, y, c), want.At(x, y, c); g != w {
					t.Fatalf("pixel (%d,%d) channel %d: got %d, want %d", x, y, c, g, w)
				}
			}
		}
	}
}
