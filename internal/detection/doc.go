// Package detection locates candidate plate regions in preprocessed images.
//
// Detection works on a BinaryMatrix: a 0/1 grid produced from a buffer by a
// per-pixel Predicate. The default predicate, IsWhite, marks pixels whose
// color samples are all 255, so images are usually run through
// imaging.Binarize first. NearColor builds a tolerance-based predicate from a
// hex color using CIE Lab distance.
//
// # Detectors
//
// Three implementations of RegionDetector are available:
//
//   - CycleDetector: depth-first search for a closed loop of 4-connected
//     equal-valued cells. A loop is the structural signal for a bounded region
//     such as a plate frame, as opposed to an open edge. The search stops at
//     the first loop it finds.
//   - ComponentDetector: largest 8-connected foreground component that does
//     not touch the image edge.
//   - ContourDetector: largest OpenCV contour. Only built with -tags gocv;
//     other builds return ErrContourUnavailable.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// Matrix accessors take (row, column), i.e. (y, x).
//
// # Failure Modes
//
// Searches never fail on a well-formed matrix. An empty matrix has no cycle
// and no components. Detectors only return errors for malformed buffers.
package detection
