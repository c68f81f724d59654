package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-preprocess/internal/config"
	"github.com/ironsheep/plate-preprocess/internal/detection"
	"github.com/ironsheep/plate-preprocess/internal/fileio"
	"github.com/ironsheep/plate-preprocess/internal/imaging"
	"github.com/ironsheep/plate-preprocess/internal/pipeline"
)

// errNoRegion is returned by plate_crop_region when detection finds nothing
// to crop.
var errNoRegion = errors.New("no candidate region found")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plate_load", "plate_sobel").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Merges optional parameters over the server configuration
//  3. Loads images from cache as needed
//  4. Calls the appropriate imaging/detection/pipeline function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "plate_load":
		return s.handleLoad(args)

	// Filters
	case "plate_grayscale":
		return s.handleFilter(args, func(b *imaging.Buffer, _ imaging.FilterSettings) (*imaging.Buffer, error) {
			return imaging.GrayscaleCopy(b)
		})
	case "plate_gaussian_blur":
		return s.handleFilter(args, imaging.GaussianBlur)
	case "plate_convolve":
		return s.handleConvolve(args)
	case "plate_sobel":
		return s.handleFilter(args, func(b *imaging.Buffer, _ imaging.FilterSettings) (*imaging.Buffer, error) {
			return imaging.Sobel(b)
		})
	case "plate_hysteresis":
		return s.handleFilter(args, imaging.Hysteresis)
	case "plate_binarize":
		return s.handleFilter(args, func(b *imaging.Buffer, fs imaging.FilterSettings) (*imaging.Buffer, error) {
			return imaging.Binarize(b, fs.BinarizeLevel)
		})

	// Regions
	case "plate_detect_region":
		return s.handleDetectRegion(ctx, args)
	case "plate_crop_region":
		return s.handleCropRegion(ctx, args)

	// Batch
	case "plate_process":
		return s.handleProcess(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// encodePNG renders b as base64-encoded PNG.
func encodePNG(b *imaging.Buffer) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, b.Image()); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// === Shared argument handling ===

// filterArgs are the optional per-call overrides of the configured filter
// settings. Nil fields keep the server's values.
type filterArgs struct {
	KernelSize    *int     `json:"kernel_size"`
	Sigma         *float64 `json:"sigma"`
	LowThreshold  *float64 `json:"low_threshold"`
	HighThreshold *float64 `json:"high_threshold"`
	WeakPixel     *int     `json:"weak_pixel"`
	BinarizeLevel *int     `json:"binarize_level"`
}

// settings merges a over base and validates the result.
func (a filterArgs) settings(base imaging.FilterSettings) (imaging.FilterSettings, error) {
	fs := base
	if a.KernelSize != nil {
		fs.KernelSize = *a.KernelSize
	}
	if a.Sigma != nil {
		fs.Sigma = *a.Sigma
	}
	if a.LowThreshold != nil {
		fs.LowThreshold = *a.LowThreshold
	}
	if a.HighThreshold != nil {
		fs.HighThreshold = *a.HighThreshold
	}
	if a.WeakPixel != nil {
		fs.WeakPixel = *a.WeakPixel
	}
	if a.BinarizeLevel != nil {
		fs.BinarizeLevel = *a.BinarizeLevel
	}
	return fs, fs.Validate()
}

// detectArgs override the configured pipeline and detector.
type detectArgs struct {
	filterArgs
	Stages          []string `json:"stages"`
	Method          string   `json:"method"`
	ForegroundColor string   `json:"foreground_color"`
	ColorDistance   float64  `json:"color_distance"`
	AnyValue        *bool    `json:"any_value"`
}

// config returns the server configuration with a applied.
func (a detectArgs) config(base config.Config) (config.Config, error) {
	cfg := base
	fs, err := a.filterArgs.settings(base.Filter)
	if err != nil {
		return cfg, err
	}
	cfg.Filter = fs
	if a.Stages != nil {
		cfg.Stages = a.Stages
	}
	if a.Method != "" {
		cfg.Detector = a.Method
	}
	if a.ForegroundColor != "" {
		cfg.ForegroundColor = a.ForegroundColor
	}
	if a.ColorDistance > 0 {
		cfg.ColorDistance = a.ColorDistance
	}
	if a.AnyValue != nil {
		cfg.CycleAnyValue = *a.AnyValue
	}
	return cfg, cfg.Validate()
}

// newPipeline builds a pipeline from a over the server configuration.
func (s *Server) newPipeline(a detectArgs) (*pipeline.Pipeline, error) {
	cfg, err := a.config(s.cfg)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.PipelineOptions(s.log)
	if err != nil {
		return nil, err
	}
	return pipeline.New(opts)
}

// === Image Information ===

type loadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleLoad(args json.RawMessage) (interface{}, error) {
	var a loadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return fileio.LoadInfo(s.cache, a.Path)
}

// === Filters ===

// ImageResult is returned by the filter tools.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Channels    int    `json:"channels"`
	ImageBase64 string `json:"image_base64"`

	// Output is set when the result was also written to disk.
	Output string `json:"output,omitempty"`
}

type filterToolArgs struct {
	filterArgs
	Path      string `json:"path"`
	Output    string `json:"output"`
	Overwrite bool   `json:"overwrite"`
}

type filterFunc func(*imaging.Buffer, imaging.FilterSettings) (*imaging.Buffer, error)

func (s *Server) handleFilter(args json.RawMessage, fn filterFunc) (interface{}, error) {
	var a filterToolArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	fs, err := a.settings(s.cfg.Filter)
	if err != nil {
		return nil, err
	}
	buf, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := fn(buf, fs)
	if err != nil {
		return nil, err
	}
	return s.imageResult(out, a.Output, a.Overwrite)
}

func (s *Server) imageResult(b *imaging.Buffer, output string, overwrite bool) (*ImageResult, error) {
	encoded, err := encodePNG(b)
	if err != nil {
		return nil, err
	}
	res := &ImageResult{
		Width:       b.Width,
		Height:      b.Height,
		Channels:    b.Channels,
		ImageBase64: encoded,
	}
	if output != "" {
		if err := fileio.Save(b, output, overwrite); err != nil {
			return nil, err
		}
		res.Output = output
	}
	return res, nil
}

type convolveArgs struct {
	filterToolArgs
	Kernel  string      `json:"kernel"`
	Weights [][]float64 `json:"weights"`
}

func (s *Server) handleConvolve(args json.RawMessage) (interface{}, error) {
	var a convolveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var (
		k   *imaging.Kernel
		err error
	)
	switch {
	case a.Weights != nil:
		k, err = imaging.NewKernel(a.Weights)
	case a.Kernel != "":
		k, err = imaging.KernelByName(a.Kernel)
	default:
		err = fmt.Errorf("%w: kernel or weights required", imaging.ErrInvalidKernel)
	}
	if err != nil {
		return nil, err
	}

	buf, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out, err := imaging.Convolve(buf, k)
	if err != nil {
		return nil, err
	}
	return s.imageResult(out, a.Output, a.Overwrite)
}

// === Regions ===

// DetectResult is returned by plate_detect_region.
type DetectResult struct {
	Region  *detection.Region      `json:"region"`
	Stages  []string               `json:"stages"`
	Timings []pipeline.StageTiming `json:"timings,omitempty"`

	// AnnotatedBase64 is the source image with the region outlined, set
	// when annotate was requested and a region was found.
	AnnotatedBase64 string `json:"annotated_base64,omitempty"`
}

type detectRegionArgs struct {
	detectArgs
	Path     string `json:"path"`
	Annotate bool   `json:"annotate"`
	Color    string `json:"color"`
}

func (s *Server) handleDetectRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Method == config.DetectorNone {
		return nil, fmt.Errorf("%w: plate_detect_region needs a detection method", imaging.ErrInvalidSettings)
	}

	src, region, p, timings, err := s.detect(ctx, a.detectArgs, a.Path)
	if err != nil {
		return nil, err
	}

	res := &DetectResult{Region: region, Stages: p.StageNames(), Timings: timings}
	if a.Annotate && region.Found {
		color := lo.Ternary(a.Color != "", a.Color, imaging.DefaultOutlineColor)
		marked, err := imaging.Outline(src, region.Bounds.Rect(), color, true)
		if err != nil {
			return nil, err
		}
		if res.AnnotatedBase64, err = encodePNG(marked); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// detect loads path, runs the configured pipeline on it, and returns the
// untouched source along with the detected region.
func (s *Server) detect(ctx context.Context, a detectArgs, path string) (*imaging.Buffer, *detection.Region, *pipeline.Pipeline, []pipeline.StageTiming, error) {
	if a.Method == "" && s.cfg.Detector == config.DetectorNone {
		a.Method = detection.MethodCycle
	}
	p, err := s.newPipeline(a)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	src, err := s.cache.Load(path)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	res, err := p.Run(ctx, src)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	s.log.WithFields(logrus.Fields{
		"path":  path,
		"found": res.Region.Found,
	}).Debug("region detection")
	return src, res.Region, p, res.Timings, nil
}

// CropResult is returned by plate_crop_region.
type CropResult struct {
	Bounds      detection.Bounds `json:"bounds"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	ImageBase64 string           `json:"image_base64"`
	Output      string           `json:"output,omitempty"`
}

type cropRegionArgs struct {
	detectArgs
	Path      string            `json:"path"`
	Region    *detection.Bounds `json:"region"`
	Scale     float64           `json:"scale"`
	Output    string            `json:"output"`
	Overwrite bool              `json:"overwrite"`
}

func (s *Server) handleCropRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a cropRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	var (
		src    *imaging.Buffer
		bounds detection.Bounds
		err    error
	)
	if a.Region != nil {
		bounds = *a.Region
		if src, err = s.cache.Load(a.Path); err != nil {
			return nil, err
		}
	} else {
		if a.Method == config.DetectorNone {
			return nil, fmt.Errorf("%w: region or detection method required", imaging.ErrInvalidSettings)
		}
		var region *detection.Region
		src, region, _, _, err = s.detect(ctx, a.detectArgs, a.Path)
		if err != nil {
			return nil, err
		}
		if !region.Found {
			return nil, errNoRegion
		}
		bounds = region.Bounds
	}

	out, err := imaging.CropRegion(src, bounds.Rect(), a.Scale)
	if err != nil {
		return nil, err
	}
	img, err := s.imageResult(out, a.Output, a.Overwrite)
	if err != nil {
		return nil, err
	}
	return &CropResult{
		Bounds:      bounds,
		Width:       img.Width,
		Height:      img.Height,
		ImageBase64: img.ImageBase64,
		Output:      img.Output,
	}, nil
}

// === Batch ===

// ProcessResult is returned by plate_process.
type ProcessResult struct {
	Processed int                   `json:"processed"`
	Failed    int                   `json:"failed"`
	Files     []pipeline.FileResult `json:"files"`
	Stages    []string              `json:"stages"`
}

type processArgs struct {
	detectArgs
	Dir        string   `json:"dir"`
	Extensions []string `json:"extensions"`
	Recursive  *bool    `json:"recursive"`
	Overwrite  *bool    `json:"overwrite"`
}

func (s *Server) handleProcess(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a processArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	cfg, err := a.config(s.cfg)
	if err != nil {
		return nil, err
	}
	if a.Extensions != nil {
		cfg.Extensions = a.Extensions
	}
	if a.Recursive != nil {
		cfg.Recursive = *a.Recursive
	}
	if a.Overwrite != nil {
		cfg.Overwrite = *a.Overwrite
	}

	opts, err := cfg.PipelineOptions(s.log)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(opts)
	if err != nil {
		return nil, err
	}

	files, err := p.ProcessDir(ctx, a.Dir, cfg.DirOptions())
	if err != nil {
		return nil, err
	}

	failed := lo.CountBy(files, func(f pipeline.FileResult) bool { return f.Error != "" })
	return &ProcessResult{
		Processed: len(files) - failed,
		Failed:    failed,
		Files:     files,
		Stages:    p.StageNames(),
	}, nil
}
