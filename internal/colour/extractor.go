package colour

import (
	"fmt"
	"image"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// Extractor defines the interface for colour extraction algorithms.
type Extractor interface {
	// Extract returns exactly count colours representing the image.
	Extract(img image.Image, count int) ([]RGB, error)
}

// Algorithm represents the colour extraction algorithm type.
type Algorithm string

const (
	// AlgorithmLab runs deterministic k-means with Lab distance over every pixel.
	AlgorithmLab Algorithm = "lab"

	// AlgorithmDominant uses weighted dominant colours from a downscaled image.
	AlgorithmDominant Algorithm = "dominant"

	// AlgorithmKMeans uses randomly seeded k-means in RGB space, ordered by
	// cluster population.
	AlgorithmKMeans Algorithm = "kmeans"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{AlgorithmLab, AlgorithmDominant, AlgorithmKMeans}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	return slices.Contains(ValidAlgorithms(), alg)
}

// NewExtractor creates a new Extractor based on the specified algorithm.
// The quantizer configuration only applies to AlgorithmLab.
func NewExtractor(alg Algorithm, config QuantizerConfig) (Extractor, error) {
	switch alg {
	case AlgorithmLab:
		return NewLabExtractor(config)
	case AlgorithmDominant:
		return DominantExtractor{}, nil
	case AlgorithmKMeans:
		return KMeansExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", alg, ValidAlgorithms())
	}
}

// LabExtractor adapts a Quantizer to the Extractor interface.
type LabExtractor struct {
	config QuantizerConfig
}

// NewLabExtractor validates config and returns a LabExtractor.
func NewLabExtractor(config QuantizerConfig) (*LabExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &LabExtractor{config: config}, nil
}

// Extract flattens the image and quantizes every pixel.
func (e *LabExtractor) Extract(img image.Image, count int) ([]RGB, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	return e.ExtractPixels(PixelsFromImage(img), count)
}

// ExtractPixels quantizes an already flattened pixel list.
func (e *LabExtractor) ExtractPixels(pixels []RGB, count int) ([]RGB, error) {
	cfg := e.config
	cfg.Count = count
	q, err := NewQuantizer(cfg)
	if err != nil {
		return nil, err
	}
	return q.Quantize(pixels)
}

// DominantExtractor picks the heaviest colours found by dominantcolor.
type DominantExtractor struct{}

// Extract returns count colours by descending weight. When fewer distinct
// colours exist the last one is repeated.
func (DominantExtractor) Extract(img image.Image, count int) ([]RGB, error) {
	if err := checkImage(img, count); err != nil {
		return nil, err
	}

	found := dominantcolor.FindWeight(img, count)
	if len(found) == 0 {
		return nil, fmt.Errorf("no dominant colours found")
	}
	slices.SortStableFunc(found, func(a, b dominantcolor.Color) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return 0
	})

	colours := make([]RGB, 0, count)
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		colours = append(colours, fromColorful(col))
	}
	return padColours(colours, count), nil
}

// KMeansExtractor clusters pixels in normalised RGB with muesli/kmeans.
type KMeansExtractor struct{}

// Extract partitions every pixel into count clusters and returns their
// centres, most populated first.
func (KMeansExtractor) Extract(img image.Image, count int) ([]RGB, error) {
	if err := checkImage(img, count); err != nil {
		return nil, err
	}

	pixels := PixelsFromImage(img)
	dataset := make(clusters.Observations, 0, len(pixels))
	for _, p := range pixels {
		dataset = append(dataset, clusters.Coordinates{
			float64(p.R) / 255,
			float64(p.G) / 255,
			float64(p.B) / 255,
		})
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, count)
	if err != nil {
		return nil, fmt.Errorf("failed to partition pixels: %w", err)
	}

	slices.SortStableFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	colours := make([]RGB, 0, count)
	for _, c := range cc {
		colours = append(colours, fromColorful(colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}))
	}
	return padColours(colours, count), nil
}

func checkImage(img image.Image, count int) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}
	if count < 1 {
		return fmt.Errorf("colour count must be at least 1, got %d", count)
	}
	if n := img.Bounds().Dx() * img.Bounds().Dy(); n < count {
		return &InsufficientPixelsError{Have: n, Want: count}
	}
	return nil
}

func fromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// padColours truncates or pads colours to exactly count entries.
func padColours(colours []RGB, count int) []RGB {
	if len(colours) > count {
		return colours[:count]
	}
	for len(colours) < count {
		colours = append(colours, colours[len(colours)-1])
	}
	return colours
}
