package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/plate-preprocess/internal/parallel"
)

// gaussPasses is the number of box blurs that approximate one Gaussian.
const gaussPasses = 3

// maxBoxWidth bounds box widths so running sums stay exact in int64.
const maxBoxWidth = math.MaxInt32

// BoxSizesForGauss returns n box widths whose successive application
// approximates a Gaussian of standard deviation sigma. It returns nil when n
// is not positive or the widths would exceed maxBoxWidth.
//
// The ideal width sqrt(12σ²/n + 1) is floored to an odd lower width wl; the
// first m widths are wl and the rest wl+2, where m is chosen so the variance of
// the sum of boxes matches σ².
func BoxSizesForGauss(n int, sigma float64) []int {
	wl, m, ok := boxWidths(n, sigma)
	if !ok {
		return nil
	}
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = boxWidth(i, wl, m)
	}
	return sizes
}

// boxWidths returns the lower width and the count of lower widths.
func boxWidths(n int, sigma float64) (wl, m int, ok bool) {
	if n <= 0 || !(sigma > 0) {
		return 0, 0, false
	}

	s2 := 12 * sigma * sigma
	nf := float64(n)
	wIdeal := math.Sqrt(s2/nf + 1)
	if math.IsInf(wIdeal, 0) || math.IsNaN(wIdeal) || wIdeal > maxBoxWidth-2 {
		return 0, 0, false
	}
	wl = int(math.Floor(wIdeal))
	if wl%2 == 0 {
		wl--
	}

	wlf := float64(wl)
	mIdeal := (s2 - nf*wlf*wlf - 4*nf*wlf - 3*nf) / (-4*wlf - 4)
	if math.IsNaN(mIdeal) {
		return 0, 0, false
	}
	m = int(math.Max(0, math.Min(nf, math.Round(mIdeal))))
	return wl, m, true
}

func boxWidth(i, wl, m int) int {
	if i < m {
		return wl
	}
	return wl + 2
}

// GaussianBlur approximates a Gaussian blur with three successive box blurs.
//
// Widths come from BoxSizesForGauss(s.KernelSize, s.Sigma); the first three
// are used, repeating the last one when fewer were computed. Each box blur is
// a horizontal running-sum pass followed by a vertical one, with samples
// outside the image clamped to the nearest edge value.
//
// Every channel, alpha included, is split into its own plane and blurred
// concurrently. Planes are joined only after all channels finish, then
// saturated and packed into a new buffer. src is not modified.
func GaussianBlur(src *Buffer, s FilterSettings) (*Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	wl, m, ok := boxWidths(s.KernelSize, s.Sigma)
	if !ok {
		return nil, fmt.Errorf("%w: sigma %v gives box widths above %d", ErrInvalidSettings, s.Sigma, maxBoxWidth)
	}
	radii := make([]int, gaussPasses)
	for i := range radii {
		radii[i] = (boxWidth(min(i, s.KernelSize-1), wl, m) - 1) / 2
	}

	w, h := src.Width, src.Height
	planes := splitPlanes(src)

	tasks := make([]func(), len(planes))
	for c := range planes {
		plane := planes[c]
		tasks[c] = func() {
			planes[c] = gaussPlane(plane, w, h, radii)
		}
	}
	parallel.Invoke(tasks...)

	return joinPlanes(planes, w, h), nil
}

// gaussPlane runs the box passes over one channel plane and returns the plane
// holding the final result.
func gaussPlane(plane []int32, w, h int, radii []int) []int32 {
	a := plane
	b := make([]int32, len(plane))
	for _, r := range radii {
		boxBlurH(a, b, w, h, r)
		boxBlurV(b, a, w, h, r)
	}
	return a
}

// boxBlurH writes the horizontal box blur of src into dst.
func boxBlurH(src, dst []int32, w, h, r int) {
	if w == 0 {
		return
	}
	size := int64(2*r + 1)
	parallel.Rows(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := src[y*w : (y+1)*w]
			out := dst[y*w : (y+1)*w]
			slide(row, out, 1, w, r, size)
		}
	})
}

// boxBlurV writes the vertical box blur of src into dst.
func boxBlurV(src, dst []int32, w, h, r int) {
	if h == 0 {
		return
	}
	size := int64(2*r + 1)
	parallel.Rows(w, func(start, end int) {
		for x := start; x < end; x++ {
			slide(src[x:], dst[x:], w, h, r, size)
		}
	})
}

// slide computes a running-sum mean of n samples spaced step apart.
// Indices outside [0, n) read the first or last sample.
func slide(src, dst []int32, step, n, r int, size int64) {
	at := func(i int) int64 {
		if i < 0 {
			i = 0
		} else if i >= n {
			i = n - 1
		}
		return int64(src[i*step])
	}

	// Seed with the window centred on 0: r copies of the first sample, the
	// samples 0..min(r, n-1), then any taps past the end read the last sample.
	first, last := at(0), at(n-1)
	sum := int64(r) * first
	k := min(r, n-1)
	for i := 0; i <= k; i++ {
		sum += at(i)
	}
	sum += int64(r-k) * last
	half := size / 2
	for i := 0; i < n; i++ {
		dst[i*step] = int32((sum + half) / size)
		sum += at(i+r+1) - at(i-r)
	}
}

// splitPlanes copies each channel of b into its own int32 plane.
func splitPlanes(b *Buffer) [][]int32 {
	n := b.Width * b.Height
	planes := make([][]int32, b.Channels)
	for c := range planes {
		planes[c] = make([]int32, n)
	}
	parallel.Rows(b.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := b.Row(y)
			for x := 0; x < b.Width; x++ {
				for c := range planes {
					planes[c][y*b.Width+x] = int32(row[x*b.Channels+c])
				}
			}
		}
	})
	return planes
}

// joinPlanes saturates and packs channel planes into a new buffer.
func joinPlanes(planes [][]int32, w, h int) *Buffer {
	out, _ := NewBuffer(w, h, len(planes))
	parallel.Rows(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := out.Row(y)
			for x := 0; x < w; x++ {
				for c, p := range planes {
					row[x*out.Channels+c] = saturateInt(int(p[y*w+x]))
				}
			}
		}
	})
	return out
}
