//go:build gocv

package detection

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ironsheep/plate-preprocess/internal/imaging"
)

// ContourAvailable reports whether the OpenCV-backed contour detector is
// compiled in.
const ContourAvailable = true

// ContourDetector finds the largest contour in the binarized buffer using
// OpenCV and reports its bounding rectangle.
type ContourDetector struct {
	// Predicate selects foreground pixels. Nil means IsWhite.
	Predicate Predicate
}

// NewContourDetector returns a contour detector using pred.
func NewContourDetector(pred Predicate) (RegionDetector, error) {
	return &ContourDetector{Predicate: pred}, nil
}

// Detect implements RegionDetector.
func (d *ContourDetector) Detect(b *imaging.Buffer) (*Region, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.Width == 0 || b.Height == 0 {
		return &Region{Method: MethodContour}, nil
	}

	mask := Binarize(b, d.Predicate)
	mat, err := gocv.NewMatFromBytes(mask.Rows, mask.Cols, gocv.MatTypeCV8UC1, mask.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create mask: %w", err)
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	best := -1
	maxArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > maxArea {
			maxArea = area
			best = i
		}
	}
	if best < 0 {
		return &Region{Method: MethodContour}, nil
	}

	rect := gocv.BoundingRect(contours.At(best))
	return &Region{
		Found:  true,
		Bounds: Bounds{X1: rect.Min.X, Y1: rect.Min.Y, X2: rect.Max.X, Y2: rect.Max.Y},
		Area:   maxArea,
		Method: MethodContour,
	}, nil
}
