package detection

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/plate-preprocess/internal/imaging"
	"github.com/ironsheep/plate-preprocess/internal/parallel"
)

// BinaryMatrix is a rows×cols grid of 0/1 cells.
type BinaryMatrix struct {
	Rows  int
	Cols  int
	cells []uint8
}

// NewBinaryMatrix returns an all-zero matrix. Negative sizes are treated as 0.
func NewBinaryMatrix(rows, cols int) *BinaryMatrix {
	rows = max(rows, 0)
	cols = max(cols, 0)
	return &BinaryMatrix{Rows: rows, Cols: cols, cells: make([]uint8, rows*cols)}
}

// ParseBinaryMatrix builds a matrix from rows of '0' and '1' characters.
func ParseBinaryMatrix(rows ...string) (*BinaryMatrix, error) {
	if len(rows) == 0 {
		return NewBinaryMatrix(0, 0), nil
	}
	m := NewBinaryMatrix(len(rows), len(rows[0]))
	for r, line := range rows {
		if len(line) != m.Cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", imaging.ErrDimensionMismatch, r, len(line), m.Cols)
		}
		for c, ch := range []byte(line) {
			switch ch {
			case '0':
			case '1':
				m.Set(r, c, 1)
			default:
				return nil, fmt.Errorf("invalid cell %q at row %d, column %d", ch, r, c)
			}
		}
	}
	return m, nil
}

// At returns the cell at row r, column c.
func (m *BinaryMatrix) At(r, c int) uint8 { return m.cells[r*m.Cols+c] }

// Set stores v (0 or 1) at row r, column c.
func (m *BinaryMatrix) Set(r, c int, v uint8) { m.cells[r*m.Cols+c] = v }

// Count returns the number of 1 cells.
func (m *BinaryMatrix) Count() int {
	n := 0
	for _, v := range m.cells {
		n += int(v)
	}
	return n
}

// Bytes returns the cells scaled to 0/255, row-major, for use as an 8-bit mask.
func (m *BinaryMatrix) Bytes() []byte {
	out := make([]byte, len(m.cells))
	for i, v := range m.cells {
		out[i] = v * 255
	}
	return out
}

// Predicate decides whether one pixel is foreground. px holds the pixel's
// samples in buffer channel order.
type Predicate func(px []uint8) bool

// IsWhite reports whether every color sample is 255. Alpha is ignored.
func IsWhite(px []uint8) bool {
	n := len(px)
	if n == 2 || n == 4 {
		n--
	}
	for _, v := range px[:n] {
		if v != 255 {
			return false
		}
	}
	return true
}

// NearColor returns a predicate matching pixels within maxDist of a "#rrggbb"
// color, measured as CIE Lab distance (roughly 0 to 1 over the sRGB gamut).
func NearColor(hex string, maxDist float64) (Predicate, error) {
	target, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid foreground color %q: %v", imaging.ErrInvalidSettings, hex, err)
	}
	if maxDist < 0 {
		return nil, fmt.Errorf("%w: color distance must be >= 0, got %v", imaging.ErrInvalidSettings, maxDist)
	}

	return func(px []uint8) bool {
		var c colorful.Color
		switch len(px) {
		case 1, 2:
			g := float64(px[0]) / 255
			c = colorful.Color{R: g, G: g, B: g}
		default:
			c = colorful.Color{R: float64(px[0]) / 255, G: float64(px[1]) / 255, B: float64(px[2]) / 255}
		}
		return c.DistanceLab(target) <= maxDist
	}, nil
}

// Binarize maps every pixel of b through pred. A nil pred means IsWhite.
func Binarize(b *imaging.Buffer, pred Predicate) *BinaryMatrix {
	if pred == nil {
		pred = IsWhite
	}
	m := NewBinaryMatrix(b.Height, b.Width)
	ch := b.Channels

	parallel.Rows(b.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := b.Row(y)
			for x := 0; x < b.Width; x++ {
				if pred(row[x*ch : x*ch+ch]) {
					m.cells[y*m.Cols+x] = 1
				}
			}
		}
	})
	return m
}
