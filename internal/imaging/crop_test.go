package imaging

import (
	"errors"
	"image"
	"testing"
)

func TestCropRegion(t *testing.T) {
	src := createEdgeTestBuffer(t, 40, 20)

	tests := []struct {
		name       string
		rect       image.Rectangle
		scale      float64
		wantWidth  int
		wantHeight int
	}{
		{"unscaled", image.Rect(10, 5, 30, 15), 1.0, 20, 10},
		{"non-positive scale keeps size", image.Rect(10, 5, 30, 15), 0, 20, 10},
		{"upscaled", image.Rect(10, 5, 30, 15), 2.0, 40, 20},
		{"downscaled", image.Rect(0, 0, 40, 20), 0.5, 20, 10},
		{"tiny scale clamps to one pixel", image.Rect(0, 0, 4, 4), 0.01, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CropRegion(src, tt.rect, tt.scale)
			if err != nil {
				t.Fatalf("CropRegion failed: %v", err)
			}
			if got.Width != tt.wantWidth || got.Height != tt.wantHeight {
				t.Errorf("size: got %dx%d, want %dx%d", got.Width, got.Height, tt.wantWidth, tt.wantHeight)
			}
			if got.Channels != 4 {
				t.Errorf("channels: got %d, want 4", got.Channels)
			}
		})
	}
}

func TestCropRegion_Content(t *testing.T) {
	src := createEdgeTestBuffer(t, 40, 20)

	// the dark rectangle covers [10,30) x [5,15)
	got, err := CropRegion(src, image.Rect(10, 5, 30, 15), 1.0)
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}
	if got.At(0, 0, 0) != 0 || got.At(19, 9, 2) != 0 {
		t.Error("cropped rectangle should be entirely dark")
	}

	got, err = CropRegion(src, image.Rect(0, 0, 5, 5), 1.0)
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}
	if got.At(2, 2, 1) != 255 {
		t.Errorf("background crop: got %d, want 255", got.At(2, 2, 1))
	}
}

func TestCropRegion_Invalid(t *testing.T) {
	src := createTestBuffer(t, 10, 10, 3, 0, 0, 0)

	tests := []struct {
		name string
		rect image.Rectangle
	}{
		{"outside", image.Rect(5, 5, 15, 15)},
		{"negative origin", image.Rect(-1, 0, 4, 4)},
		{"empty", image.Rect(3, 3, 3, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CropRegion(src, tt.rect, 1.0); !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("got %v, want ErrDimensionMismatch", err)
			}
		})
	}
}
