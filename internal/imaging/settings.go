package imaging

import (
	"fmt"
	"math"
)

// FilterSettings holds the tunables for the blur and threshold stages.
type FilterSettings struct {
	// KernelSize is the number of box widths computed for the Gaussian
	// approximation. Must be positive.
	KernelSize int `json:"kernel_size" yaml:"kernel_size"`

	// Sigma is the Gaussian spread. Must be positive.
	Sigma float64 `json:"sigma" yaml:"sigma"`

	// LowThreshold and HighThreshold bound weak and strong gradient
	// magnitudes for hysteresis.
	LowThreshold  float64 `json:"low_threshold" yaml:"low_threshold"`
	HighThreshold float64 `json:"high_threshold" yaml:"high_threshold"`

	// WeakPixel is the intensity given to weak edge pixels (0-255).
	WeakPixel int `json:"weak_pixel" yaml:"weak_pixel"`

	// BinarizeLevel is the luminance cut used by Binarize (0-255).
	BinarizeLevel int `json:"binarize_level" yaml:"binarize_level"`
}

// DefaultSettings returns the stock settings.
func DefaultSettings() FilterSettings {
	return FilterSettings{
		KernelSize:    7,
		Sigma:         5,
		LowThreshold:  250,
		HighThreshold: 260,
		WeakPixel:     100,
		BinarizeLevel: 128,
	}
}

// Validate reports the first invalid field wrapped in ErrInvalidSettings.
func (s FilterSettings) Validate() error {
	if s.KernelSize <= 0 {
		return fmt.Errorf("%w: kernel size must be > 0, got %d", ErrInvalidSettings, s.KernelSize)
	}
	if !(s.Sigma > 0) || math.IsInf(s.Sigma, 0) {
		return fmt.Errorf("%w: sigma must be > 0, got %v", ErrInvalidSettings, s.Sigma)
	}
	if _, _, ok := boxWidths(s.KernelSize, s.Sigma); !ok {
		return fmt.Errorf("%w: sigma %v too large for kernel size %d", ErrInvalidSettings, s.Sigma, s.KernelSize)
	}
	if s.LowThreshold < 0 || s.HighThreshold < 0 {
		return fmt.Errorf("%w: thresholds must be >= 0, got %v/%v", ErrInvalidSettings, s.LowThreshold, s.HighThreshold)
	}
	if s.LowThreshold > s.HighThreshold {
		return fmt.Errorf("%w: low threshold %v above high threshold %v", ErrInvalidSettings, s.LowThreshold, s.HighThreshold)
	}
	if s.WeakPixel < 0 || s.WeakPixel > 255 {
		return fmt.Errorf("%w: weak pixel must be in [0,255], got %d", ErrInvalidSettings, s.WeakPixel)
	}
	if s.BinarizeLevel < 0 || s.BinarizeLevel > 255 {
		return fmt.Errorf("%w: binarize level must be in [0,255], got %d", ErrInvalidSettings, s.BinarizeLevel)
	}
	return nil
}
