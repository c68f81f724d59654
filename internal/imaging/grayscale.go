package imaging

import "github.com/ironsheep/plate-preprocess/internal/parallel"

// Luma weights in percent: gray = 0.30*R + 0.59*G + 0.11*B.
const (
	lumaR = 30
	lumaG = 59
	lumaB = 11
)

// Grayscale replaces each pixel's RGB triplet with its luma, in place.
//
// The weighted sum is computed in integer hundredths and rounded, so a pixel
// that is already gray maps to itself and the conversion is idempotent. Alpha
// is left unchanged. Single-channel and gray+alpha buffers are already luma
// and are not modified.
func Grayscale(b *Buffer) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Channels < 3 {
		return nil
	}

	parallel.Rows(b.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := b.Row(y)
			for i := 0; i+2 < len(row); i += b.Channels {
				v := luma(row[i], row[i+1], row[i+2])
				row[i], row[i+1], row[i+2] = v, v, v
			}
		}
	})
	return nil
}

// GrayscaleCopy returns a converted copy and leaves src untouched.
func GrayscaleCopy(src *Buffer) (*Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	out := src.Clone()
	if err := Grayscale(out); err != nil {
		return nil, err
	}
	return out, nil
}

// luma returns the rounded weighted sum of r, g and b.
func luma(r, g, b uint8) uint8 {
	return uint8((lumaR*int(r) + lumaG*int(g) + lumaB*int(b) + 50) / 100)
}
