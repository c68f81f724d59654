package imaging

import (
	"errors"
	"testing"
)

func TestSobel_UniformInteriorIsZero(t *testing.T) {
	src := createTestBuffer(t, 16, 12, 4, 90, 90, 90, 255)

	got, err := Sobel(src)
	if err != nil {
		t.Fatalf("Sobel failed: %v", err)
	}

	for y := 1; y < 11; y++ {
		for x := 1; x < 15; x++ {
			for c := 0; c < 3; c++ {
				if v := got.At(x, y, c); v != 0 {
					t.Fatalf("interior (%d,%d) channel %d: got %d, want 0", x, y, c, v)
				}
			}
			if got.At(x, y, 3) != 255 {
				t.Fatalf("interior (%d,%d) alpha: got %d, want 255", x, y, got.At(x, y, 3))
			}
		}
	}
	if got.At(0, 0, 0) != 90 {
		t.Errorf("border should be copied, got %d", got.At(0, 0, 0))
	}
}

func TestSobel_DetectsRectangleBorder(t *testing.T) {
	src := createEdgeTestBuffer(t, 20, 20)

	got, err := Sobel(src)
	if err != nil {
		t.Fatalf("Sobel failed: %v", err)
	}

	// rectangle spans [5,15) on both axes
	if v := got.At(5, 10, 0); v != 255 {
		t.Errorf("left edge of rectangle: got %d, want 255", v)
	}
	if v := got.At(10, 14, 1); v != 255 {
		t.Errorf("bottom edge of rectangle: got %d, want 255", v)
	}
	if v := got.At(10, 10, 2); v != 0 {
		t.Errorf("inside rectangle: got %d, want 0", v)
	}
	if v := got.At(2, 2, 0); v != 0 {
		t.Errorf("background: got %d, want 0", v)
	}
}

func TestSobel_TinyImagesCopied(t *testing.T) {
	src := createTestBuffer(t, 2, 5, 3, 1, 2, 3)

	got, err := Sobel(src)
	if err != nil {
		t.Fatalf("Sobel failed: %v", err)
	}
	assertInterior(t, got, src, 0)
}

func TestSobel_Grayscale(t *testing.T) {
	src := createTestBuffer(t, 5, 5, 1, 0)
	for y := 0; y < 5; y++ {
		src.Set(3, y, 0, 100)
		src.Set(4, y, 0, 100)
	}

	got, err := Sobel(src)
	if err != nil {
		t.Fatalf("Sobel failed: %v", err)
	}
	// gx = 100*(1+2+1) = 400, saturated
	if v := got.At(2, 2, 0); v != 255 {
		t.Errorf("step edge: got %d, want 255", v)
	}
	if v := got.At(1, 2, 0); v != 0 {
		t.Errorf("flat region: got %d, want 0", v)
	}
}

// createGradientBuffer creates a single-channel buffer with a strong pixel,
// a weak pixel next to it, an isolated weak pixel, and a sub-threshold pixel
func createGradientBuffer(t *testing.T) *Buffer {
	t.Helper()

	b := createTestBuffer(t, 10, 10, 1, 0)
	b.Set(2, 2, 0, 200)
	b.Set(3, 2, 0, 70)
	b.Set(7, 7, 0, 70)
	b.Set(5, 5, 0, 30)
	return b
}

func edgeSettings() FilterSettings {
	s := DefaultSettings()
	s.LowThreshold = 50
	s.HighThreshold = 100
	s.WeakPixel = 100
	return s
}

func TestHysteresis(t *testing.T) {
	got, err := Hysteresis(createGradientBuffer(t), edgeSettings())
	if err != nil {
		t.Fatalf("Hysteresis failed: %v", err)
	}

	tests := []struct {
		name string
		x, y int
		want uint8
	}{
		{"strong kept", 2, 2, 255},
		{"weak next to strong promoted", 3, 2, 255},
		{"isolated weak dropped", 7, 7, 0},
		{"below low dropped", 5, 5, 0},
		{"background", 0, 9, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if v := got.At(tt.x, tt.y, 0); v != tt.want {
				t.Errorf("(%d,%d): got %d, want %d", tt.x, tt.y, v, tt.want)
			}
		})
	}
}

func TestDoubleThreshold(t *testing.T) {
	got, err := DoubleThreshold(createGradientBuffer(t), edgeSettings())
	if err != nil {
		t.Fatalf("DoubleThreshold failed: %v", err)
	}

	if v := got.At(2, 2, 0); v != 255 {
		t.Errorf("strong: got %d, want 255", v)
	}
	if v := got.At(3, 2, 0); v != 100 {
		t.Errorf("weak: got %d, want 100", v)
	}
	if v := got.At(7, 7, 0); v != 100 {
		t.Errorf("isolated weak: got %d, want 100", v)
	}
	if v := got.At(5, 5, 0); v != 0 {
		t.Errorf("below low: got %d, want 0", v)
	}
}

func TestHysteresis_KeepsAlpha(t *testing.T) {
	src := createTestBuffer(t, 4, 4, 2, 200, 17)

	got, err := Hysteresis(src, edgeSettings())
	if err != nil {
		t.Fatalf("Hysteresis failed: %v", err)
	}
	if got.At(1, 1, 0) != 255 || got.At(1, 1, 1) != 17 {
		t.Errorf("got gray %d alpha %d, want 255 and 17", got.At(1, 1, 0), got.At(1, 1, 1))
	}
}

func TestHysteresis_InvalidSettings(t *testing.T) {
	s := edgeSettings()
	s.LowThreshold = 200

	if _, err := Hysteresis(createGradientBuffer(t), s); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("low above high: got %v, want ErrInvalidSettings", err)
	}
}
