package image

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/jmylchreest/huescheme/internal/security"
	httputil "github.com/jmylchreest/huescheme/internal/util/http"
)

// cacheSubdir is joined onto the user cache directory.
var cacheSubdir = filepath.Join("huescheme", "images")

// defaultCacheDir is the per-user directory for downloaded images.
func defaultCacheDir() (string, error) {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, cacheSubdir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine cache directory: %w", err)
	}
	return filepath.Join(home, ".cache", cacheSubdir), nil
}

// cacheName maps a URL to a stable file name. The extension of the URL
// path is kept when it names a supported image type so the decoder and
// directory scans recognise the file.
func cacheName(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	ext := ".img"
	if u, err := url.Parse(rawURL); err == nil && isImageFile(u.Path) {
		ext = path.Ext(u.Path)
	}
	return hex.EncodeToString(sum[:16]) + ext
}

// download validates a remote image and stores it in the cache directory,
// returning the local path. A URL already in the cache is not fetched again.
func (l *Loader) download(ctx context.Context, rawURL string) (string, error) {
	validate := l.ValidateURL
	if validate == nil {
		validate = security.ValidateHTTPURL
	}
	if err := validate(rawURL); err != nil {
		return "", fmt.Errorf("refusing to fetch %s: %w", rawURL, err)
	}

	dir := l.CacheDir
	if dir == "" {
		var err error
		if dir, err = defaultCacheDir(); err != nil {
			return "", err
		}
	}
	local := filepath.Join(dir, cacheName(rawURL))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	data, err := httputil.Fetch(ctx, rawURL, httputil.FetchOptions{MaxBytes: l.maxBytes()})
	if err != nil {
		if errors.Is(err, httputil.ErrTooLarge) {
			return "", fmt.Errorf("%w: %s", ErrTooLarge, rawURL)
		}
		return "", fmt.Errorf("failed to fetch image from URL: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(local, data, 0o644); err != nil { // #nosec G306 - Cache files need standard read permissions
		return "", fmt.Errorf("failed to write cached image: %w", err)
	}
	return local, nil
}
