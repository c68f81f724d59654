// Package config loads run settings from an optional YAML file and PLATE_*
// environment variables on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/plate-preprocess/internal/detection"
	"github.com/ironsheep/plate-preprocess/internal/fileio"
	"github.com/ironsheep/plate-preprocess/internal/imaging"
	"github.com/ironsheep/plate-preprocess/internal/parallel"
	"github.com/ironsheep/plate-preprocess/internal/pipeline"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PLATE_"

// Config is the full set of run options.
type Config struct {
	Filter imaging.FilterSettings `yaml:"filter"`

	// Stages is the filter chain, see pipeline.ParseStage.
	Stages []string `yaml:"stages"`

	// Detector is a detection method name, or "none".
	Detector string `yaml:"detector"`

	// ForegroundColor switches detection from exact white to a Lab
	// distance match against this hex color when set.
	ForegroundColor string  `yaml:"foreground_color"`
	ColorDistance   float64 `yaml:"color_distance"`

	// CycleAnyValue makes the cycle detector accept loops of background
	// cells too. By default only foreground loops count.
	CycleAnyValue bool `yaml:"cycle_any_value"`

	Extensions []string `yaml:"extensions"`
	Recursive  bool     `yaml:"recursive"`
	Overwrite  bool     `yaml:"overwrite"`

	// Workers caps the filter worker pool. 0 keeps the default.
	Workers int `yaml:"workers"`

	LogLevel string `yaml:"log_level"`
}

// DetectorNone disables the detection step.
const DetectorNone = "none"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Filter:        imaging.DefaultSettings(),
		Stages:        append([]string(nil), pipeline.DefaultStages...),
		Detector:      detection.MethodCycle,
		ColorDistance: 0.1,
		Extensions:    append([]string(nil), fileio.DefaultExtensions...),
		LogLevel:      "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Fields missing from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PLATE_* variables found through lookup,
// normally os.LookupEnv. Unset and empty variables are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	var errs []error
	parseInt := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	parseFloat := func(name string, dst *float64) {
		if v, ok := get(name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	parseBool := func(name string, dst *bool) {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("DETECTOR"); ok {
		c.Detector = v
	}
	if v, ok := get("STAGES"); ok {
		c.Stages = splitList(v)
	}
	if v, ok := get("EXTENSIONS"); ok {
		c.Extensions = splitList(v)
	}
	if v, ok := get("FOREGROUND_COLOR"); ok {
		c.ForegroundColor = v
	}
	parseInt("WORKERS", &c.Workers)
	parseInt("KERNEL_SIZE", &c.Filter.KernelSize)
	parseInt("BINARIZE_LEVEL", &c.Filter.BinarizeLevel)
	parseFloat("SIGMA", &c.Filter.Sigma)
	parseFloat("COLOR_DISTANCE", &c.ColorDistance)
	parseBool("OVERWRITE", &c.Overwrite)
	parseBool("RECURSIVE", &c.Recursive)
	parseBool("CYCLE_ANY_VALUE", &c.CycleAnyValue)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	parts := lo.Map(strings.Split(v, ","), func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Compact(parts)
}

// Validate checks every field, including stage and detector names.
func (c Config) Validate() error {
	if err := c.Filter.Validate(); err != nil {
		return err
	}
	if _, err := pipeline.ParseStages(c.Stages, c.Filter); err != nil {
		return err
	}
	if c.Detector != DetectorNone && !lo.Contains(detection.Methods(), c.Detector) {
		return fmt.Errorf("%w: unknown detector %q (known: %v, %s)",
			imaging.ErrInvalidSettings, c.Detector, detection.Methods(), DetectorNone)
	}
	if c.ForegroundColor != "" {
		if _, err := detection.NearColor(c.ForegroundColor, c.ColorDistance); err != nil {
			return err
		}
	}
	if c.Workers < 0 || c.Workers > parallel.MaxWorkers {
		return fmt.Errorf("%w: workers must be in [0,%d], got %d",
			imaging.ErrInvalidSettings, parallel.MaxWorkers, c.Workers)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", imaging.ErrInvalidSettings, err)
	}
	return nil
}

// Predicate returns the foreground test selected by ForegroundColor.
func (c Config) Predicate() (detection.Predicate, error) {
	if c.ForegroundColor == "" {
		return detection.IsWhite, nil
	}
	return detection.NearColor(c.ForegroundColor, c.ColorDistance)
}

// NewDetector builds the configured detector, or nil for "none".
func (c Config) NewDetector() (detection.RegionDetector, error) {
	if c.Detector == DetectorNone {
		return nil, nil
	}
	pred, err := c.Predicate()
	if err != nil {
		return nil, err
	}
	return detection.New(c.Detector, detection.Options{Predicate: pred, AnyValue: c.CycleAnyValue})
}

// PipelineOptions converts c into options for pipeline.New.
func (c Config) PipelineOptions(log logrus.FieldLogger) (pipeline.Options, error) {
	d, err := c.NewDetector()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Stages:   c.Stages,
		Settings: c.Filter,
		Detector: d,
		Logger:   log,
	}, nil
}

// DirOptions converts c into options for Pipeline.ProcessDir.
func (c Config) DirOptions() pipeline.DirOptions {
	return pipeline.DirOptions{
		Extensions: c.Extensions,
		Recursive:  c.Recursive,
		Overwrite:  c.Overwrite,
	}
}
