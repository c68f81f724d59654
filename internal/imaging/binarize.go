package imaging

import (
	"fmt"

	"github.com/anthonynsimon/bild/segment"
)

// Binarize converts src to pure black and white.
//
// Pixels whose luminance is at or above level become white (255 in every
// color channel), all others black. The channel layout is preserved and alpha
// is forced to 255 so the exact-white foreground test used by the region
// detectors applies directly to the result.
func Binarize(src *Buffer, level int) (*Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if level < 0 || level > 255 {
		return nil, fmt.Errorf("%w: binarize level must be in [0,255], got %d", ErrInvalidSettings, level)
	}

	gray := segment.Threshold(src.Image(), uint8(level))

	dst, err := NewBuffer(src.Width, src.Height, src.Channels)
	if err != nil {
		return nil, err
	}
	alpha := dst.AlphaIndex()
	for y := 0; y < dst.Height; y++ {
		row := dst.Row(y)
		g := gray.Pix[y*gray.Stride:]
		for x := 0; x < dst.Width; x++ {
			for c := 0; c < dst.Channels; c++ {
				if c == alpha {
					row[x*dst.Channels+c] = 255
					continue
				}
				row[x*dst.Channels+c] = g[x]
			}
		}
	}
	return dst, nil
}
