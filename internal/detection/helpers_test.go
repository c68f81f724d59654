package detection

import (
	"testing"

	"github.com/ironsheep/plate-preprocess/internal/imaging"
)

// mustMatrix parses rows of '0'/'1' characters
func mustMatrix(t *testing.T, rows ...string) *BinaryMatrix {
	t.Helper()

	m, err := ParseBinaryMatrix(rows...)
	if err != nil {
		t.Fatalf("ParseBinaryMatrix failed: %v", err)
	}
	return m
}

// createTestBuffer creates an RGBA buffer filled with a single color
func createTestBuffer(t *testing.T, width, height int, r, g, b uint8) *imaging.Buffer {
	t.Helper()

	buf, err := imaging.NewBuffer(width, height, 4)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	buf.Fill(r, g, b, 255)
	return buf
}

// fillRect paints [x1,x2)×[y1,y2) of an RGBA buffer
func fillRect(buf *imaging.Buffer, x1, y1, x2, y2 int, r, g, b uint8) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			buf.Set(x, y, 0, r)
			buf.Set(x, y, 1, g)
			buf.Set(x, y, 2, b)
		}
	}
}

// createFrameBuffer creates a black buffer with a one-pixel white rectangle
// outline at [x1,x2)×[y1,y2)
func createFrameBuffer(t *testing.T, width, height, x1, y1, x2, y2 int) *imaging.Buffer {
	t.Helper()

	buf := createTestBuffer(t, width, height, 0, 0, 0)
	fillRect(buf, x1, y1, x2, y1+1, 255, 255, 255)
	fillRect(buf, x1, y2-1, x2, y2, 255, 255, 255)
	fillRect(buf, x1, y1, x1+1, y2, 255, 255, 255)
	fillRect(buf, x2-1, y1, x2, y2, 255, 255, 255)
	return buf
}
