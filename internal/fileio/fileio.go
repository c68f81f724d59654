// Package fileio reads source images into buffers, finds them in directories,
// and writes processed results next to them.
//
// Processed output for /photos/car.jpg lands in /photos/Processed/car_processed.jpg.
// Decoders for PNG, JPEG, GIF, BMP, TIFF and WebP are registered on import.
// WebP can be read but not written, so WebP sources are saved as PNG.
package fileio

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/samber/lo"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	pimg "github.com/ironsheep/plate-preprocess/internal/imaging"
)

// ProcessedDir is the subdirectory that receives processed images.
const ProcessedDir = "Processed"

// ErrOutputExists is returned by Save when the target exists and overwrite
// was not requested.
var ErrOutputExists = errors.New("output file already exists")

// DefaultExtensions are the file extensions scanned when none are configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png"}

// ImageFile is a decoded source image together with where it came from.
type ImageFile struct {
	// Path is the source file path as given.
	Path string
	// Dir is the directory holding the source file.
	Dir string
	// Name is the file name without extension.
	Name string
	// Ext is the lower-case extension without the leading dot.
	Ext string
	// Buffer holds the decoded pixels.
	Buffer *pimg.Buffer
}

// ProcessedPath returns where the processed version of this file is written.
func (f *ImageFile) ProcessedPath() string {
	return ProcessedPath(f.Path)
}

// ProcessedPath maps a source path to <dir>/Processed/<name>_processed.<ext>.
// Extensions that cannot be encoded map to .png.
func ProcessedPath(path string) string {
	dir := filepath.Dir(path)
	ext := strings.ToLower(filepath.Ext(path))
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if _, err := imaging.FormatFromExtension(ext); err != nil {
		ext = ".png"
	}
	return filepath.Join(dir, ProcessedDir, name+"_processed"+ext)
}

// Decode reads and decodes an image file into a buffer.
//
// EXIF orientation is applied for JPEG sources. Grayscale images decode to a
// single-channel buffer; everything else decodes to RGBA.
func Decode(path string) (*pimg.Buffer, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		return nil, fmt.Errorf("%w: failed to decode image %s: %v", pimg.ErrUnsupportedFormat, path, err)
	}
	return pimg.FromImage(img), nil
}

// Read decodes path and records its location.
func Read(path string) (*ImageFile, error) {
	buf, err := Decode(path)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return &ImageFile{
		Path:   path,
		Dir:    filepath.Dir(path),
		Name:   strings.TrimSuffix(base, ext),
		Ext:    strings.TrimPrefix(strings.ToLower(ext), "."),
		Buffer: buf,
	}, nil
}

// Scan lists image files in dir whose extension is in exts, sorted by path.
//
// Extensions are compared case-insensitively and may be given with or without
// the leading dot. An empty exts uses DefaultExtensions. With recursive set,
// subdirectories are searched too, except Processed directories so earlier
// output is never picked up as input.
func Scan(dir string, exts []string, recursive bool) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	wanted := lo.Map(exts, func(e string, _ int) string {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		return e
	})

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to scan directory: %s is not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !recursive || d.Name() == ProcessedDir {
				return filepath.SkipDir
			}
			return nil
		}
		if lo.Contains(wanted, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	slices.Sort(files)
	return files, nil
}

// Save encodes b to path, creating parent directories as needed.
//
// If path already exists it is replaced when overwrite is true; otherwise
// ErrOutputExists is returned and nothing is written.
func Save(b *pimg.Buffer, path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing output: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := imaging.Save(b.Image(), path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// SaveProcessed writes b to f's processed path and returns that path.
func SaveProcessed(f *ImageFile, b *pimg.Buffer, overwrite bool) (string, error) {
	out := f.ProcessedPath()
	if err := Save(b, out, overwrite); err != nil {
		return "", err
	}
	return out, nil
}

// Info contains metadata about an image file.
type Info struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Channels is the decoded buffer's channel count: 1 for grayscale
	// sources, 4 otherwise.
	Channels int `json:"channels"`

	// Format is the format name reported by the decoder, e.g. "png" or "jpeg".
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadInfo loads path through cache and returns its metadata.
func LoadInfo(cache *Cache, path string) (*Info, error) {
	buf, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &Info{
		Width:         buf.Width,
		Height:        buf.Height,
		Channels:      buf.Channels,
		Format:        detectFormat(path),
		FileSizeBytes: stat.Size(),
	}, nil
}

// detectFormat sniffs the file header; it falls back to "unknown".
func detectFormat(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "unknown"
	}
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return "unknown"
	}
	return format
}
