package imaging

import (
	"fmt"

	"github.com/ironsheep/plate-preprocess/internal/parallel"
)

// Convolve applies k to every channel of src and returns a new buffer.
//
// Only interior pixels, those at least k.Radius() away from every edge, are
// filtered. Border pixels are copied from src unchanged; Sobel uses the same
// copy-through policy. The alpha channel of filtered pixels is forced to 255.
// Each weighted sum is rounded and saturated to [0, 255].
//
// Returns ErrInvalidKernel when k is nil, even-sized, or larger than either
// image dimension.
func Convolve(src *Buffer, k *Kernel) (*Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := checkKernel(src, k); err != nil {
		return nil, err
	}

	dst := src.Clone()
	r := k.Radius()
	size := k.Size()
	weights := k.Weights()
	alpha := src.AlphaIndex()

	parallel.Rows(src.Height-2*r, func(start, end int) {
		sums := make([]float64, src.Channels)
		for y := start + r; y < end+r; y++ {
			for x := r; x < src.Width-r; x++ {
				for c := range sums {
					sums[c] = 0
				}
				for ky := 0; ky < size; ky++ {
					row := src.Pix[(y+ky-r)*src.Stride:]
					for kx := 0; kx < size; kx++ {
						w := weights[ky*size+kx]
						if w == 0 {
							continue
						}
						base := (x + kx - r) * src.Channels
						for c := range sums {
							sums[c] += float64(row[base+c]) * w
						}
					}
				}

				out := dst.Pix[y*dst.Stride+x*dst.Channels:]
				for c, s := range sums {
					if c == alpha {
						out[c] = 255
						continue
					}
					out[c] = Saturate(s)
				}
			}
		}
	})

	return dst, nil
}

func checkKernel(src *Buffer, k *Kernel) error {
	if k == nil {
		return fmt.Errorf("%w: nil kernel", ErrInvalidKernel)
	}
	if k.Size()%2 == 0 {
		return fmt.Errorf("%w: size %d is even", ErrInvalidKernel, k.Size())
	}
	if k.Size() > src.Width || k.Size() > src.Height {
		return fmt.Errorf("%w: %dx%d kernel larger than %dx%d image",
			ErrInvalidKernel, k.Size(), k.Size(), src.Width, src.Height)
	}
	return nil
}
