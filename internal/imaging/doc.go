// Package imaging implements the pixel-level preprocessing filters used ahead
// of license-plate region detection.
//
// All filters operate on Buffer, a packed raster of 8-bit samples with an
// explicit stride and 1 to 4 channels (gray, gray+alpha, RGB, RGBA). Pixel
// coordinates are 0-based with (0,0) at the top-left corner.
//
// # Filters
//
//   - Grayscale: luma reduction 0.30R + 0.59G + 0.11B, in place
//   - Convolve: generic odd-sized kernel convolution
//   - GaussianBlur: three-pass box-blur approximation of a Gaussian
//   - Sobel: 3x3 gradient magnitude
//   - DoubleThreshold, Hysteresis: edge classification on a gradient buffer
//   - Binarize: black/white cut at a luminance level
//
// CropRegion and Outline extract or mark a detected region on the source
// image.
//
// # Saturation
//
// Every sample written by a filter is rounded and clamped to [0, 255].
//
// # Borders
//
// Convolve and Sobel only filter interior pixels, those at least one kernel
// radius away from each edge. Border pixels are copied through from the
// source unchanged. GaussianBlur processes the whole image and samples past
// an edge read the nearest edge value.
//
// # Buffers and Concurrency
//
// Filters never modify their source, except Grayscale which is documented as
// in-place. Each pass writes to freshly allocated storage which is returned
// only after every worker has finished. Work is spread across rows, columns
// and channels using the bounded pool in package parallel.
//
// # Error Handling
//
// Inputs are validated before any work is done. Failures wrap one of
// ErrInvalidSettings, ErrInvalidKernel, ErrUnsupportedFormat or
// ErrDimensionMismatch and can be tested with errors.Is.
package imaging
