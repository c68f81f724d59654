package imaging

import (
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultOutlineColor is used by Outline when the color string is empty or invalid.
const DefaultOutlineColor = "#ff0000"

// Outline returns a copy of b with rect drawn as a one-pixel frame.
//
// The frame color is a "#rrggbb" string; invalid strings fall back to
// DefaultOutlineColor. Single-channel buffers receive the color's luma. When
// label is set, the rectangle's top-left coordinates are written just inside
// the frame. rect is clipped to the buffer.
func Outline(b *Buffer, rect image.Rectangle, hexColor string, label bool) (*Buffer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	r := rect.Intersect(image.Rect(0, 0, b.Width, b.Height))
	if r.Empty() {
		return nil, fmt.Errorf("%w: outline region (%d,%d)-(%d,%d) does not overlap the image",
			ErrDimensionMismatch, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y)
	}

	fg := parseColor(hexColor, DefaultOutlineColor)
	out := b.Clone()

	for x := r.Min.X; x < r.Max.X; x++ {
		setPixel(out, x, r.Min.Y, fg)
		setPixel(out, x, r.Max.Y-1, fg)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		setPixel(out, r.Min.X, y, fg)
		setPixel(out, r.Max.X-1, y, fg)
	}

	if label {
		text := fmt.Sprintf("%d,%d", rect.Min.X, rect.Min.Y)
		drawLabel(out, r.Min.X+2, r.Min.Y+2, text, [3]uint8{255, 255, 255}, [3]uint8{0, 0, 0})
	}
	return out, nil
}

// parseColor converts a "#rrggbb" string to 8-bit RGB, using fallback when
// the string does not parse.
func parseColor(hex, fallback string) [3]uint8 {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(fallback)
	}
	r, g, bl := c.RGB255()
	return [3]uint8{r, g, bl}
}

// setPixel writes an RGB color into b, converting to luma for one and two
// channel layouts. Alpha becomes opaque.
func setPixel(b *Buffer, x, y int, rgb [3]uint8) {
	i := b.Offset(x, y, 0)
	switch b.Channels {
	case 1, 2:
		b.Pix[i] = luma(rgb[0], rgb[1], rgb[2])
	default:
		copy(b.Pix[i:i+3], rgb[:])
	}
	if a := b.AlphaIndex(); a >= 0 {
		b.Pix[i+a] = 255
	}
}

// drawLabel draws text with a simple 3x5 pixel font. Pixels outside b are skipped.
func drawLabel(b *Buffer, x, y int, text string, fg, bg [3]uint8) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
	}

	inside := func(px, py int) bool {
		return px >= 0 && px < b.Width && py >= 0 && py < b.Height
	}

	const charWidth, labelHeight = 4, 7
	labelWidth := len(text) * charWidth

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if inside(x+dx, y+dy) {
				setPixel(b, x+dx, y+dy, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' && inside(cx+col, y+row) {
					setPixel(b, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
