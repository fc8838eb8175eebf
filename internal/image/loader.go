// Package image provides utilities for loading and validating images.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/huescheme/internal/security"
)

const (
	// MaxFileSize is the default upload and file size limit.
	MaxFileSize = 5 * 1024 * 1024

	// DefaultMaxPixels bounds decoded dimensions. Well-compressed images can
	// pass the byte limit and still decode to very large rasters.
	DefaultMaxPixels = 12_000_000
)

var (
	// ErrTooLarge is returned when an image exceeds the byte or pixel limit.
	ErrTooLarge = errors.New("image exceeds size limit")

	// ErrUnsupportedFormat is returned for anything other than JPEG, PNG or WebP.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// allowedFormats are the decoder names accepted by Decode.
var allowedFormats = []string{"jpeg", "png", "webp"}

// allowedContentTypes are the MIME types accepted for uploads.
var allowedContentTypes = []string{"image/jpeg", "image/png", "image/webp"}

// IsAllowedContentType reports whether a declared MIME type is accepted.
// Parameters such as "; charset=" are ignored.
func IsAllowedContentType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return slices.Contains(allowedContentTypes, strings.ToLower(strings.TrimSpace(mediaType)))
}

// Decode reads at most maxBytes from r and decodes a JPEG, PNG or WebP
// image of at most maxPixels pixels. Zero limits mean MaxFileSize and
// DefaultMaxPixels.
func Decode(r io.Reader, maxBytes int64, maxPixels int) (image.Image, string, error) {
	if maxBytes <= 0 {
		maxBytes = MaxFileSize
	}

	data, err := io.ReadAll(security.NewLimitedReader(r, maxBytes))
	if err != nil {
		if errors.Is(err, security.ErrLimitExceeded) {
			return nil, "", fmt.Errorf("%w: limit %d bytes", ErrTooLarge, maxBytes)
		}
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	return DecodeBytes(data, maxPixels)
}

// DecodeBytes decodes an in-memory image after checking its format and
// dimensions. A maxPixels of zero means DefaultMaxPixels.
func DecodeBytes(data []byte, maxPixels int) (image.Image, string, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupportedFormat
		}
		return nil, "", fmt.Errorf("failed to decode image config: %w", err)
	}
	if !slices.Contains(allowedFormats, format) {
		return nil, format, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > int64(maxPixels) {
		return nil, format, fmt.Errorf("%w: %dx%d is over %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}
	return img, format, nil
}

// Loader loads images from local files and HTTPS URLs.
type Loader struct {
	// MaxBytes limits file and download sizes. Zero means MaxFileSize.
	MaxBytes int64

	// MaxPixels limits decoded dimensions. Zero means DefaultMaxPixels.
	MaxPixels int

	// CacheDir is where remote images are downloaded. Empty means the
	// default image cache directory.
	CacheDir string

	// ValidateURL vets remote URLs before download. Nil means
	// security.ValidateHTTPURL.
	ValidateURL func(string) error
}

// NewLoader creates a Loader with default limits.
func NewLoader() *Loader {
	return &Loader{MaxBytes: MaxFileSize, MaxPixels: DefaultMaxPixels}
}

// Load loads an image from either a local file path or an HTTP(S) URL.
func (l *Loader) Load(ctx context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	if security.IsRemote(path) {
		local, err := l.download(ctx, path)
		if err != nil {
			return nil, err
		}
		path = local
	}

	return l.loadFile(path)
}

func (l *Loader) maxBytes() int64 {
	if l.MaxBytes <= 0 {
		return MaxFileSize
	}
	return l.MaxBytes
}

// loadFile opens and decodes a local image.
func (l *Loader) loadFile(path string) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if info.Size() > l.maxBytes() {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, _, err := Decode(file, l.maxBytes(), l.MaxPixels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".webp"}
}

// isImageFile checks if a file has a supported image extension.
func isImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}

// ScanDirectoryForImages scans a directory and returns all valid image files
// in name order. It does not recurse into subdirectories, but follows symlinks.
func ScanDirectoryForImages(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// For symlinks, stat the target to determine if it's a file.
		info, err := os.Stat(fullPath)
		if err != nil {
			// Skip entries we can't stat (broken symlinks, permission issues).
			continue
		}
		if info.IsDir() {
			continue
		}

		if isImageFile(entry.Name()) {
			imageFiles = append(imageFiles, fullPath)
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no supported image files found in directory: %s", dirPath)
	}

	return imageFiles, nil
}

// ExpandPaths replaces each directory argument with the images it contains.
// Files and URLs are passed through unchanged, keeping argument order.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if p == "" {
			return nil, fmt.Errorf("image path cannot be empty")
		}
		if security.IsRemote(p) {
			out = append(out, p)
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("image file or directory not found: %s", p)
			}
			return nil, fmt.Errorf("failed to access image path: %w", err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}

		files, err := ScanDirectoryForImages(p)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}
