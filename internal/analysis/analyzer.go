// Package analysis runs the image-to-theme pipeline: colour extraction,
// palette composition and export rendering.
package analysis

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/huescheme/internal/colour"
	"github.com/jmylchreest/huescheme/internal/export"
)

// Result is the outcome of analysing one image.
type Result struct {
	Palette        colour.Palette `json:"palette"`
	TailwindConfig string         `json:"tailwindConfig"`
	CSSVariables   string         `json:"cssVariables"`
}

// Options configures an Analyzer.
type Options struct {
	Algorithm colour.Algorithm
	Quantizer colour.QuantizerConfig
	Logger    hclog.Logger
}

// DefaultOptions returns options for the deterministic Lab pipeline.
func DefaultOptions() Options {
	return Options{
		Algorithm: colour.AlgorithmLab,
		Quantizer: colour.DefaultQuantizerConfig(),
	}
}

// Analyzer turns images into theme palettes. It holds only configuration
// and is safe for concurrent use.
type Analyzer struct {
	algorithm colour.Algorithm
	quantizer colour.QuantizerConfig
	extractor colour.Extractor
	logger    hclog.Logger
}

// New creates an Analyzer, validating the options.
func New(opts Options) (*Analyzer, error) {
	if opts.Algorithm == "" {
		opts.Algorithm = colour.AlgorithmLab
	}
	// The palette always has five slots regardless of what was configured.
	opts.Quantizer.Count = colour.PaletteSize

	extractor, err := colour.NewExtractor(opts.Algorithm, opts.Quantizer)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Analyzer{
		algorithm: opts.Algorithm,
		quantizer: opts.Quantizer,
		extractor: extractor,
		logger:    logger.Named("analysis"),
	}, nil
}

// Algorithm returns the configured extraction algorithm.
func (a *Analyzer) Algorithm() colour.Algorithm {
	return a.algorithm
}

// Fingerprint identifies the options that affect the result, for use in
// cache keys.
func (a *Analyzer) Fingerprint() string {
	return fmt.Sprintf("%s:%d:%s:%s", a.algorithm, a.quantizer.MaxIterations, a.quantizer.Seeding, a.quantizer.EmptyCluster)
}

// AnalyzeImage extracts a palette from a decoded image.
func (a *Analyzer) AnalyzeImage(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	a.logger.Debug("extracting colours", "algorithm", a.algorithm, "width", bounds.Dx(), "height", bounds.Dy())

	start := time.Now()
	centroids, err := a.extractor.Extract(img, colour.PaletteSize)
	if err != nil {
		return nil, fmt.Errorf("failed to extract colours: %w", err)
	}
	a.logger.Debug("extraction complete", "elapsed", time.Since(start))

	return a.compose(centroids)
}

// AnalyzePixels extracts a palette from a flattened pixel list. Only the
// Lab algorithm can work on bare pixels; other algorithms need an image.
func (a *Analyzer) AnalyzePixels(ctx context.Context, pixels []colour.RGB) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lab, ok := a.extractor.(*colour.LabExtractor)
	if !ok {
		return nil, fmt.Errorf("algorithm %s requires a decoded image", a.algorithm)
	}

	a.logger.Debug("quantizing pixels", "pixels", len(pixels))
	centroids, err := lab.ExtractPixels(pixels, colour.PaletteSize)
	if err != nil {
		return nil, fmt.Errorf("failed to extract colours: %w", err)
	}

	return a.compose(centroids)
}

// AnalyzeRGBA extracts a palette from a flat width*height*4 RGBA buffer.
func (a *Analyzer) AnalyzeRGBA(ctx context.Context, buf []byte, width, height int) (*Result, error) {
	pixels, err := colour.PixelsFromRGBA(buf, width, height)
	if err != nil {
		return nil, err
	}
	return a.AnalyzePixels(ctx, pixels)
}

func (a *Analyzer) compose(centroids []colour.RGB) (*Result, error) {
	palette, err := colour.Compose(centroids)
	if err != nil {
		return nil, fmt.Errorf("failed to compose palette: %w", err)
	}

	tailwind, err := export.TailwindConfig(palette)
	if err != nil {
		return nil, fmt.Errorf("failed to render tailwind config: %w", err)
	}
	css, err := export.CSSVariables(palette)
	if err != nil {
		return nil, fmt.Errorf("failed to render CSS variables: %w", err)
	}

	a.logger.Debug("palette composed",
		"primary", palette.Primary.Hex,
		"secondary", palette.Secondary.Hex,
		"accent", palette.Accent.Hex,
		"background", palette.Background.Hex,
		"text", palette.Text.Hex,
	)

	return &Result{
		Palette:        *palette,
		TailwindConfig: tailwind,
		CSSVariables:   css,
	}, nil
}
