package pipeline

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/ironsheep/plate-preprocess/internal/imaging"
)

// Stage names accepted by ParseStage. Convolution stages are written as
// "convolve:<kernel>", e.g. "convolve:sharpen".
const (
	StageGrayscale  = "grayscale"
	StageGaussian   = "gaussian"
	StageSobel      = "sobel"
	StageThreshold  = "threshold"
	StageHysteresis = "hysteresis"
	StageBinarize   = "binarize"
	StageConvolve   = "convolve"
)

// DefaultStages is the chain run when none is configured.
var DefaultStages = []string{StageGrayscale, StageGaussian}

// Stage is one named filter step. Run never modifies its input.
type Stage struct {
	Name string
	Run  func(*imaging.Buffer) (*imaging.Buffer, error)
}

// StageNames lists the accepted stage names, with the convolution form last.
func StageNames() []string {
	return []string{
		StageGrayscale, StageGaussian, StageSobel, StageThreshold,
		StageHysteresis, StageBinarize, StageConvolve + ":<kernel>",
	}
}

// ParseStage resolves a stage name using s for the stages that take settings.
func ParseStage(name string, s imaging.FilterSettings) (Stage, error) {
	base, arg, hasArg := strings.Cut(strings.TrimSpace(strings.ToLower(name)), ":")

	if hasArg && base != StageConvolve {
		return Stage{}, fmt.Errorf("%w: stage %q takes no argument", imaging.ErrInvalidSettings, name)
	}

	var run func(*imaging.Buffer) (*imaging.Buffer, error)
	switch base {
	case StageGrayscale:
		run = imaging.GrayscaleCopy
	case StageGaussian:
		run = func(b *imaging.Buffer) (*imaging.Buffer, error) { return imaging.GaussianBlur(b, s) }
	case StageSobel:
		run = imaging.Sobel
	case StageThreshold:
		run = func(b *imaging.Buffer) (*imaging.Buffer, error) { return imaging.DoubleThreshold(b, s) }
	case StageHysteresis:
		run = func(b *imaging.Buffer) (*imaging.Buffer, error) { return imaging.Hysteresis(b, s) }
	case StageBinarize:
		run = func(b *imaging.Buffer) (*imaging.Buffer, error) { return imaging.Binarize(b, s.BinarizeLevel) }
	case StageConvolve:
		if arg == "" {
			return Stage{}, fmt.Errorf("%w: stage %q needs a kernel name, one of %v",
				imaging.ErrInvalidSettings, name, imaging.KernelNames())
		}
		k, err := imaging.KernelByName(arg)
		if err != nil {
			return Stage{}, err
		}
		run = func(b *imaging.Buffer) (*imaging.Buffer, error) { return imaging.Convolve(b, k) }
	default:
		return Stage{}, fmt.Errorf("%w: unknown stage %q (known: %v)", imaging.ErrInvalidSettings, name, StageNames())
	}

	canonical := base
	if hasArg {
		canonical = base + ":" + arg
	}
	return Stage{Name: canonical, Run: run}, nil
}

// ParseStages resolves every name, failing on the first invalid one. Blank
// names are skipped.
func ParseStages(names []string, s imaging.FilterSettings) ([]Stage, error) {
	names = lo.Filter(names, func(n string, _ int) bool { return strings.TrimSpace(n) != "" })

	stages := make([]Stage, 0, len(names))
	for _, n := range names {
		st, err := ParseStage(n, s)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, nil
}
