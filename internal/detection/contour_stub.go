//go:build !gocv

package detection

// ContourAvailable reports whether the OpenCV-backed contour detector is
// compiled in.
const ContourAvailable = false

// NewContourDetector always fails in builds without OpenCV.
func NewContourDetector(Predicate) (RegionDetector, error) {
	return nil, ErrContourUnavailable
}
