package server

import (
	"strings"

	"github.com/samber/lo"

	"github.com/ironsheep/plate-preprocess/internal/detection"
	"github.com/ironsheep/plate-preprocess/internal/imaging"
	"github.com/ironsheep/plate-preprocess/internal/pipeline"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// objectSchema builds an object schema from properties and required names.
func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

// withProps merges property sets; later sets win.
func withProps(sets ...map[string]interface{}) map[string]interface{} {
	return lo.Assign(sets...)
}

// filterProps are accepted by every tool that runs filters.
func filterProps() map[string]interface{} {
	return map[string]interface{}{
		"kernel_size":    prop("integer", "Number of box widths for the Gaussian approximation. Default 7"),
		"sigma":          prop("number", "Gaussian spread. Default 5"),
		"low_threshold":  prop("number", "Weak edge threshold for hysteresis"),
		"high_threshold": prop("number", "Strong edge threshold for hysteresis"),
		"weak_pixel":     prop("integer", "Intensity given to weak edge pixels (0-255)"),
		"binarize_level": prop("integer", "Luminance cut for binarization (0-255). Default 128"),
	}
}

// imageProps describe the source path and optional output file.
func imageProps() map[string]interface{} {
	return map[string]interface{}{
		"path":      prop("string", "Absolute path to the image file"),
		"output":    prop("string", "Optional path to also save the result to"),
		"overwrite": prop("boolean", "Replace output if it already exists. Default false"),
	}
}

// detectProps select the pipeline and detector for region tools.
func detectProps() map[string]interface{} {
	return withProps(filterProps(), map[string]interface{}{
		"stages": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Filter chain run before detection. Known stages: " + strings.Join(pipeline.StageNames(), ", "),
		},
		"method": map[string]interface{}{
			"type":        "string",
			"enum":        detection.Methods(),
			"description": "Region detector. Default cycle",
		},
		"foreground_color": prop("string", "Hex color treated as foreground instead of exact white, e.g. #ffcc00"),
		"color_distance":   prop("number", "Maximum Lab distance to foreground_color. Default 0.1"),
		"any_value":        prop("boolean", "Let the cycle detector also report loops of background cells"),
	})
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "plate_load",
			Description: "Load an image file and return its dimensions, channel count, and format. The decoded image is cached for subsequent calls.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", "Absolute path to the image file"),
			}, "path"),
		},

		// Filters
		{
			Name:        "plate_grayscale",
			Description: "Convert an image to grayscale using integer luma weights (30% red, 59% green, 11% blue). Returns base64-encoded PNG.",
			InputSchema: objectSchema(imageProps(), "path"),
		},
		{
			Name:        "plate_gaussian_blur",
			Description: "Approximate a Gaussian blur with three successive box blurs. Returns base64-encoded PNG.",
			InputSchema: objectSchema(withProps(imageProps(), filterProps()), "path"),
		},
		{
			Name:        "plate_convolve",
			Description: "Convolve an image with a named kernel or explicit odd-sized square weights. Border pixels are copied unchanged.",
			InputSchema: objectSchema(withProps(imageProps(), map[string]interface{}{
				"kernel": map[string]interface{}{
					"type":        "string",
					"enum":        imaging.KernelNames(),
					"description": "Named kernel",
				},
				"weights": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "number"}},
					"description": "Square kernel weights with odd size; takes precedence over kernel",
				},
			}), "path"),
		},
		{
			Name:        "plate_sobel",
			Description: "Sobel edge magnitude per color channel. Border pixels are copied unchanged. Returns base64-encoded PNG.",
			InputSchema: objectSchema(imageProps(), "path"),
		},
		{
			Name:        "plate_hysteresis",
			Description: "Classify gradient magnitudes as strong, weak, or none and keep weak pixels only next to strong ones. Typically applied to plate_sobel output.",
			InputSchema: objectSchema(withProps(imageProps(), filterProps()), "path"),
		},
		{
			Name:        "plate_binarize",
			Description: "Threshold an image to pure black and white at binarize_level.",
			InputSchema: objectSchema(withProps(imageProps(), filterProps()), "path"),
		},

		// Regions
		{
			Name:        "plate_detect_region",
			Description: "Run a filter chain and a region detector on an image and return the candidate plate region's bounding box.",
			InputSchema: objectSchema(withProps(detectProps(), map[string]interface{}{
				"path":     prop("string", "Absolute path to the image file"),
				"annotate": prop("boolean", "Return the source image with the region outlined and labelled"),
				"color":    prop("string", "Outline color as hex. Default "+imaging.DefaultOutlineColor),
			}), "path"),
		},
		{
			Name:        "plate_crop_region",
			Description: "Crop a region from the source image. Without an explicit region the candidate region is detected first.",
			InputSchema: objectSchema(withProps(detectProps(), withProps(imageProps(), map[string]interface{}{
				"region": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"x1": map[string]interface{}{"type": "integer"},
						"y1": map[string]interface{}{"type": "integer"},
						"x2": map[string]interface{}{"type": "integer"},
						"y2": map[string]interface{}{"type": "integer"},
					},
					"required": []string{"x1", "y1", "x2", "y2"},
				},
				"scale": map[string]interface{}{
					"type":        "number",
					"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
					"default":     1.0,
				},
			})), "path"),
		},

		// Batch
		{
			Name:        "plate_process",
			Description: "Process every image in a directory through the filter chain and save results under its Processed subdirectory.",
			InputSchema: objectSchema(withProps(detectProps(), map[string]interface{}{
				"dir": prop("string", "Absolute path to the input directory"),
				"extensions": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "File extensions to include. Default .jpg, .jpeg, .png",
				},
				"recursive": prop("boolean", "Also process subdirectories"),
				"overwrite": prop("boolean", "Replace existing processed files"),
			}), "dir"),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
