package imaging

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

// Kernel is an immutable odd-sized square weight matrix.
// The center cell sits at (Radius, Radius).
type Kernel struct {
	m    *mat.Dense
	size int
}

// NewKernel builds a kernel from row-major weights. The input is copied.
func NewKernel(weights [][]float64) (*Kernel, error) {
	n := len(weights)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKernel)
	}
	if n%2 == 0 {
		return nil, fmt.Errorf("%w: size %d is even", ErrInvalidKernel, n)
	}

	data := make([]float64, 0, n*n)
	for i, row := range weights {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d weights, want %d", ErrInvalidKernel, i, len(row), n)
		}
		for _, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: non-finite weight in row %d", ErrInvalidKernel, i)
			}
		}
		data = append(data, row...)
	}

	return &Kernel{m: mat.NewDense(n, n, data), size: n}, nil
}

// mustKernel is used for the package-level kernel tables.
func mustKernel(weights [][]float64) *Kernel {
	k, err := NewKernel(weights)
	if err != nil {
		panic(err)
	}
	return k
}

// IdentityKernel returns a size×size kernel with 1 at the center.
func IdentityKernel(size int) (*Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("%w: size %d must be odd and positive", ErrInvalidKernel, size)
	}
	m := mat.NewDense(size, size, nil)
	m.Set(size/2, size/2, 1)
	return &Kernel{m: m, size: size}, nil
}

// BoxKernel returns a normalized size×size mean filter.
func BoxKernel(size int) (*Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("%w: size %d must be odd and positive", ErrInvalidKernel, size)
	}
	data := make([]float64, size*size)
	w := 1 / float64(size*size)
	for i := range data {
		data[i] = w
	}
	return &Kernel{m: mat.NewDense(size, size, data), size: size}, nil
}

// Size returns the kernel edge length.
func (k *Kernel) Size() int { return k.size }

// Radius returns the distance from the center to an edge, (Size-1)/2.
func (k *Kernel) Radius() int { return (k.size - 1) / 2 }

// At returns the weight at row r, column c.
func (k *Kernel) At(r, c int) float64 { return k.m.At(r, c) }

// Sum returns the sum of all weights.
func (k *Kernel) Sum() float64 { return mat.Sum(k.m) }

// Normalized returns a copy scaled so its weights sum to 1.
func (k *Kernel) Normalized() (*Kernel, error) {
	sum := k.Sum()
	if math.Abs(sum) < 1e-12 {
		return nil, fmt.Errorf("%w: weights sum to zero, cannot normalize", ErrInvalidKernel)
	}
	var out mat.Dense
	out.Scale(1/sum, k.m)
	return &Kernel{m: &out, size: k.size}, nil
}

// Weights returns a row-major copy of the weights.
func (k *Kernel) Weights() []float64 {
	out := make([]float64, 0, k.size*k.size)
	for r := 0; r < k.size; r++ {
		out = append(out, mat.Row(nil, r, k.m)...)
	}
	return out
}

// Fixed gradient kernels. They are never mutated and are safe to share.
var (
	sobelX = mustKernel([][]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	})
	sobelY = mustKernel([][]float64{
		{1, 2, 1},
		{0, 0, 0},
		{-1, -2, -1},
	})
)

// SobelX returns the horizontal gradient kernel.
func SobelX() *Kernel { return sobelX }

// SobelY returns the vertical gradient kernel.
func SobelY() *Kernel { return sobelY }

var (
	sharpen = mustKernel([][]float64{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	})
	emboss = mustKernel([][]float64{
		{-2, -1, 0},
		{-1, 1, 1},
		{0, 1, 2},
	})
	laplacian = mustKernel([][]float64{
		{0, 1, 0},
		{1, -4, 1},
		{0, 1, 0},
	})
)

// namedKernels maps the names accepted by KernelByName to constructors.
var namedKernels = map[string]func() (*Kernel, error){
	"identity":  func() (*Kernel, error) { return IdentityKernel(3) },
	"box3":      func() (*Kernel, error) { return BoxKernel(3) },
	"box5":      func() (*Kernel, error) { return BoxKernel(5) },
	"sharpen":   func() (*Kernel, error) { return sharpen, nil },
	"emboss":    func() (*Kernel, error) { return emboss, nil },
	"laplacian": func() (*Kernel, error) { return laplacian, nil },
	"sobel-x":   func() (*Kernel, error) { return sobelX, nil },
	"sobel-y":   func() (*Kernel, error) { return sobelY, nil },
}

// KernelByName returns one of the built-in kernels.
func KernelByName(name string) (*Kernel, error) {
	ctor, ok := namedKernels[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kernel %q (known: %v)", ErrInvalidKernel, name, KernelNames())
	}
	return ctor()
}

// KernelNames lists the names accepted by KernelByName in sorted order.
func KernelNames() []string {
	names := lo.Keys(namedKernels)
	slices.Sort(names)
	return names
}
