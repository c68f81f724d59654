package imaging

import "errors"

// Error categories returned by the filters. Errors are wrapped with context
// via fmt.Errorf("%w: ...") and should be matched with errors.Is.
var (
	// ErrInvalidSettings reports non-positive sigma or kernel size, or
	// inconsistent threshold settings.
	ErrInvalidSettings = errors.New("invalid filter settings")

	// ErrInvalidKernel reports an even, empty, non-square or oversized kernel.
	ErrInvalidKernel = errors.New("invalid kernel")

	// ErrUnsupportedFormat reports a channel layout or sample depth the
	// filters cannot interpret.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")

	// ErrDimensionMismatch reports buffers whose shape does not match what a
	// stage expects.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
