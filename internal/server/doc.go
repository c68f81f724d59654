// Package server implements the MCP (Model Context Protocol) server for the
// plate preprocessing tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the filters,
// region detectors and batch pipeline to MCP-compatible clients.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Information:
//   - plate_load: Load image and get metadata
//
// Filters (each returns a base64-encoded PNG and can also save to disk):
//   - plate_grayscale: Integer luma conversion
//   - plate_gaussian_blur: Three-pass box blur approximation
//   - plate_convolve: Named or explicit kernel convolution
//   - plate_sobel: Sobel gradient magnitude
//   - plate_hysteresis: Double threshold with weak edge tracking
//   - plate_binarize: Black and white threshold
//
// Regions:
//   - plate_detect_region: Run a filter chain and a detector
//   - plate_crop_region: Crop an explicit or detected region
//
// Batch:
//   - plate_process: Process a directory into its Processed subdirectory
//
// Filter settings, stages and the detector default to the configuration the
// server was created with; every tool accepts per-call overrides.
//
// # Image Caching
//
// Decoded images are cached by path and reused across tool calls. Tools
// receive copies, so filters never alter the cached source.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure), -32602 (malformed params) or
//     -32601 (unknown method)
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(config.Default(), logger, version)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal(err)
//	}
package server
