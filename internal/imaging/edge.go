package imaging

import (
	"math"

	"github.com/ironsheep/plate-preprocess/internal/parallel"
)

// Sobel computes the per-channel gradient magnitude of src.
//
// For every interior pixel (one pixel away from each edge) the horizontal and
// vertical responses are
//
//	Gx = [-1 0 1; -2 0 2; -1 0 1]
//	Gy = [ 1 2 1;  0 0 0; -1 -2 -1]
//
// and the output is sqrt(gx² + gy²) rounded and saturated to [0, 255]. Alpha
// is forced to 255. Border pixels are copied from src, matching Convolve.
// Images narrower or shorter than 3 pixels come back as an unchanged copy.
func Sobel(src *Buffer) (*Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	dst := src.Clone()
	if src.Width < 3 || src.Height < 3 {
		return dst, nil
	}

	gx := sobelX.Weights()
	gy := sobelY.Weights()
	alpha := src.AlphaIndex()
	ch := src.Channels

	parallel.Rows(src.Height-2, func(start, end int) {
		for y := start + 1; y < end+1; y++ {
			for x := 1; x < src.Width-1; x++ {
				out := dst.Pix[y*dst.Stride+x*ch:]
				for c := 0; c < ch; c++ {
					if c == alpha {
						out[c] = 255
						continue
					}
					var sx, sy float64
					for ky := 0; ky < 3; ky++ {
						row := src.Pix[(y+ky-1)*src.Stride:]
						for kx := 0; kx < 3; kx++ {
							v := float64(row[(x+kx-1)*ch+c])
							sx += v * gx[ky*3+kx]
							sy += v * gy[ky*3+kx]
						}
					}
					out[c] = Saturate(math.Sqrt(sx*sx + sy*sy))
				}
			}
		}
	})

	return dst, nil
}

const (
	edgeNone uint8 = iota
	edgeWeak
	edgeStrong
)

// DoubleThreshold classifies each color sample of a gradient buffer against
// the settings: samples >= HighThreshold become 255, samples >= LowThreshold
// become WeakPixel, everything else 0. Alpha is copied from src.
func DoubleThreshold(src *Buffer, s FilterSettings) (*Buffer, error) {
	return thresholdEdges(src, s, false)
}

// Hysteresis performs double-threshold edge tracking on a gradient buffer.
//
// Strong samples (>= HighThreshold) are kept at 255. Weak samples
// (>= LowThreshold) are promoted to 255 when any of their 8 neighbours is
// strong in the same channel and dropped to 0 otherwise, so the result is
// binary per channel. Alpha is copied from src.
func Hysteresis(src *Buffer, s FilterSettings) (*Buffer, error) {
	return thresholdEdges(src, s, true)
}

func thresholdEdges(src *Buffer, s FilterSettings, track bool) (*Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	w, h, ch := src.Width, src.Height, src.Channels
	alpha := src.AlphaIndex()
	class := make([]uint8, w*h*ch)

	parallel.Rows(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := src.Row(y)
			for i, v := range row {
				if i%ch == alpha {
					continue
				}
				switch fv := float64(v); {
				case fv >= s.HighThreshold:
					class[y*w*ch+i] = edgeStrong
				case fv >= s.LowThreshold:
					class[y*w*ch+i] = edgeWeak
				}
			}
		}
	})

	dst := src.Clone()
	weak := uint8(s.WeakPixel)
	parallel.Rows(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := dst.Row(y)
			for x := 0; x < w; x++ {
				for c := 0; c < ch; c++ {
					if c == alpha {
						continue
					}
					var v uint8
					switch class[(y*w+x)*ch+c] {
					case edgeStrong:
						v = 255
					case edgeWeak:
						switch {
						case !track:
							v = weak
						case hasStrongNeighbour(class, x, y, c, w, h, ch):
							v = 255
						}
					}
					row[x*ch+c] = v
				}
			}
		}
	})

	return dst, nil
}

func hasStrongNeighbour(class []uint8, x, y, c, w, h, ch int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			px := clamp(x+dx, 0, w-1)
			py := clamp(y+dy, 0, h-1)
			if class[(py*w+px)*ch+c] == edgeStrong {
				return true
			}
		}
	}
	return false
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
