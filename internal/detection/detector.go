package detection

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/plate-preprocess/internal/imaging"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// (X1, Y1) is the top-left corner (inclusive) and (X2, Y2) the bottom-right
// corner (exclusive), matching image.Rectangle.
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// Rect converts b to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Width returns X2 - X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Area returns the box area in square pixels.
func (b Bounds) Area() int { return b.Width() * b.Height() }

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Region is the best candidate region a detector found in a buffer.
type Region struct {
	// Found reports whether any candidate was detected. The remaining
	// fields are zero when it is false.
	Found bool `json:"found"`

	// Bounds is the candidate's bounding box.
	Bounds Bounds `json:"bounds"`

	// Area is the candidate's size: loop length for the cycle detector,
	// pixel count for the component detector, contour area for the contour
	// detector.
	Area float64 `json:"area"`

	// Point is a diagnostic location: where the cycle detector closed its
	// loop, or the first pixel of the chosen component.
	Point *Point `json:"point,omitempty"`

	// Method names the detector that produced the result.
	Method string `json:"method"`
}

// RegionDetector finds the best candidate region in a buffer.
//
// Implementations take a preprocessed (typically binarized or grayscale)
// buffer and never modify it.
type RegionDetector interface {
	Detect(b *imaging.Buffer) (*Region, error)
}

// Detector names accepted by New.
const (
	MethodCycle     = "cycle"
	MethodComponent = "component"
	MethodContour   = "contour"
)

// ErrContourUnavailable is returned for the contour detector when the binary
// was built without the gocv build tag.
var ErrContourUnavailable = errors.New("contour detector requires a build with -tags gocv")

// Methods lists the detector names accepted by New.
func Methods() []string {
	return []string{MethodCycle, MethodComponent, MethodContour}
}

// Options configures the detector built by New.
type Options struct {
	// Predicate selects foreground pixels. Nil means IsWhite.
	Predicate Predicate

	// AnyValue lets the cycle detector report loops of background cells as
	// well as foreground ones. Other detectors ignore it.
	AnyValue bool
}

// New returns the detector registered under method.
func New(method string, opts Options) (RegionDetector, error) {
	switch method {
	case MethodCycle:
		return &CycleDetector{Predicate: opts.Predicate, ForegroundOnly: !opts.AnyValue}, nil
	case MethodComponent:
		return &ComponentDetector{Predicate: opts.Predicate, MinArea: DefaultMinArea}, nil
	case MethodContour:
		return NewContourDetector(opts.Predicate)
	default:
		return nil, fmt.Errorf("%w: unknown detector %q (known: %v)", imaging.ErrInvalidSettings, method, Methods())
	}
}
