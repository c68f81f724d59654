package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropRegion extracts a rectangle from b, typically the bounding box of a
// detected candidate region, and optionally rescales it.
//
// rect uses image conventions: Min inclusive, Max exclusive. A scale of 1 (or
// any non-positive value) keeps the original size; other values resize with a
// Lanczos filter. The result always has four channels.
func CropRegion(b *Buffer, rect image.Rectangle, scale float64) (*Buffer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	bounds := image.Rect(0, 0, b.Width, b.Height)
	if !rect.In(bounds) {
		return nil, fmt.Errorf("%w: crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			ErrDimensionMismatch, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y,
			bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if rect.Empty() {
		return nil, fmt.Errorf("%w: empty crop region", ErrDimensionMismatch)
	}

	cropped := imaging.Crop(b.Image(), rect)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return FromImage(cropped), nil
}
