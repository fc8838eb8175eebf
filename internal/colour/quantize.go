package colour

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientPixels is matched by InsufficientPixelsError via errors.Is.
var ErrInsufficientPixels = errors.New("insufficient pixels")

// InsufficientPixelsError reports a pixel population smaller than the
// requested number of clusters.
type InsufficientPixelsError struct {
	Have int
	Want int
}

func (e *InsufficientPixelsError) Error() string {
	return fmt.Sprintf("insufficient pixels: have %d, need at least %d", e.Have, e.Want)
}

// Is allows errors.Is(err, ErrInsufficientPixels).
func (e *InsufficientPixelsError) Is(target error) bool {
	return target == ErrInsufficientPixels
}

// Seeding selects how initial centroids are chosen.
type Seeding string

const (
	// SeedFirstPixels uses the first k pixels in scan order.
	SeedFirstPixels Seeding = "first"

	// SeedFarthestPoint starts from the first pixel and repeatedly adds the
	// pixel farthest from every centroid chosen so far.
	SeedFarthestPoint Seeding = "farthest"
)

// EmptyClusterPolicy selects what happens to a centroid that receives no
// pixels in a round.
type EmptyClusterPolicy string

const (
	// EmptyClusterZero collapses the centroid to black. This can inject a
	// black swatch into palettes of images with few distinct colours.
	EmptyClusterZero EmptyClusterPolicy = "zero"

	// EmptyClusterReseed moves the centroid to the pixel farthest from its
	// nearest populated centroid.
	EmptyClusterReseed EmptyClusterPolicy = "reseed"
)

// QuantizerConfig holds configuration for Lab k-means quantization.
type QuantizerConfig struct {
	Count         int
	MaxIterations int
	Seeding       Seeding
	EmptyCluster  EmptyClusterPolicy
}

// DefaultQuantizerConfig returns the default quantizer configuration.
func DefaultQuantizerConfig() QuantizerConfig {
	return QuantizerConfig{
		Count:         PaletteSize,
		MaxIterations: 20,
		Seeding:       SeedFirstPixels,
		EmptyCluster:  EmptyClusterReseed,
	}
}

// Validate validates the quantizer configuration.
func (c QuantizerConfig) Validate() error {
	if c.Count < 1 {
		return fmt.Errorf("colour count must be at least 1, got %d", c.Count)
	}
	if c.Count > 256 {
		return fmt.Errorf("colour count too large: %d (maximum: 256)", c.Count)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.MaxIterations)
	}
	switch c.Seeding {
	case SeedFirstPixels, SeedFarthestPoint:
	default:
		return fmt.Errorf("unknown seeding strategy: %q (valid: %s, %s)", c.Seeding, SeedFirstPixels, SeedFarthestPoint)
	}
	switch c.EmptyCluster {
	case EmptyClusterZero, EmptyClusterReseed:
	default:
		return fmt.Errorf("unknown empty cluster policy: %q (valid: %s, %s)", c.EmptyCluster, EmptyClusterZero, EmptyClusterReseed)
	}
	return nil
}

// Quantizer reduces a pixel population to a fixed number of representative
// colours using Lloyd iterations with Lab distance. It holds no state
// between calls and is safe for concurrent use.
type Quantizer struct {
	config QuantizerConfig
}

// NewQuantizer creates a Quantizer, returning an error for invalid configuration.
func NewQuantizer(config QuantizerConfig) (*Quantizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Quantizer{config: config}, nil
}

// Config returns the quantizer configuration.
func (q *Quantizer) Config() QuantizerConfig {
	return q.config
}

// Quantize returns exactly Count centroids in centroid order. Every run
// performs MaxIterations rounds; there is no early exit.
//
// Assignment depends only on colour, so the rounds run over the distinct
// colours weighted by their pixel counts.
func (q *Quantizer) Quantize(pixels []RGB) ([]RGB, error) {
	k := q.config.Count
	if len(pixels) < k {
		return nil, &InsufficientPixelsError{Have: len(pixels), Want: k}
	}

	hist := newHistogram(pixels)

	var centroids []RGB
	switch q.config.Seeding {
	case SeedFarthestPoint:
		centroids = seedFarthest(hist, k)
	default:
		centroids = make([]RGB, k)
		copy(centroids, pixels[:k])
	}

	assignments := make([]int, len(hist.colours))
	centroidLabs := make([]Lab, k)
	for range q.config.MaxIterations {
		for i, c := range centroids {
			centroidLabs[i] = ToLab(c)
		}

		for i, point := range hist.labs {
			assignments[i] = nearest(point, centroidLabs)
		}

		centroids = q.update(hist, assignments, k)
	}

	return centroids, nil
}

// update recomputes every centroid as the rounded mean of its pixels.
func (q *Quantizer) update(hist *histogram, assignments []int, k int) []RGB {
	sums := make([][3]float64, k)
	counts := make([]int, k)
	for i, c := range hist.colours {
		a := assignments[i]
		n := hist.counts[i]
		sums[a][0] += float64(c.R) * float64(n)
		sums[a][1] += float64(c.G) * float64(n)
		sums[a][2] += float64(c.B) * float64(n)
		counts[a] += n
	}

	centroids := make([]RGB, k)
	var empty []int
	for i := range k {
		if counts[i] == 0 {
			empty = append(empty, i)
			continue
		}
		n := float64(counts[i])
		centroids[i] = RGB{
			R: channel(sums[i][0] / n),
			G: channel(sums[i][1] / n),
			B: channel(sums[i][2] / n),
		}
	}

	if len(empty) == 0 || q.config.EmptyCluster != EmptyClusterReseed {
		// Empty centroids stay at the zero value, (0,0,0).
		return centroids
	}

	// Each reseeded centroid joins the set so that two empty clusters do not
	// land on the same outlier.
	anchors := make([]Lab, 0, k)
	for i := range k {
		if counts[i] > 0 {
			anchors = append(anchors, ToLab(centroids[i]))
		}
	}
	for _, i := range empty {
		idx := farthestFrom(hist.labs, anchors)
		centroids[i] = hist.colours[idx]
		anchors = append(anchors, hist.labs[idx])
	}
	return centroids
}

// nearest returns the index of the closest centroid; ties go to the lowest index.
func nearest(point Lab, centroids []Lab) int {
	minDist := math.Inf(1)
	best := 0
	for i, c := range centroids {
		if d := point.Distance(c); d < minDist {
			minDist = d
			best = i
		}
	}
	return best
}

// farthestFrom returns the index of the point with the greatest distance to
// its nearest anchor; ties go to the earliest point.
func farthestFrom(points []Lab, anchors []Lab) int {
	best := 0
	bestDist := -1.0
	for i, p := range points {
		d := math.Inf(1)
		for _, a := range anchors {
			d = math.Min(d, p.Distance(a))
		}
		if d > bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// seedFarthest performs deterministic farthest-point seeding.
func seedFarthest(hist *histogram, k int) []RGB {
	centroids := make([]RGB, 0, k)
	anchors := make([]Lab, 0, k)

	centroids = append(centroids, hist.colours[0])
	anchors = append(anchors, hist.labs[0])
	for len(centroids) < k {
		idx := farthestFrom(hist.labs, anchors)
		centroids = append(centroids, hist.colours[idx])
		anchors = append(anchors, hist.labs[idx])
	}
	return centroids
}

// histogram holds the distinct colours of a pixel population in order of
// first occurrence, with their pixel counts and Lab values. Ordering by
// first occurrence keeps "earliest pixel" tie-breaks intact.
type histogram struct {
	colours []RGB
	counts  []int
	labs    []Lab
}

func newHistogram(pixels []RGB) *histogram {
	index := make(map[RGB]int)
	h := &histogram{}
	for _, p := range pixels {
		if i, ok := index[p]; ok {
			h.counts[i]++
			continue
		}
		index[p] = len(h.colours)
		h.colours = append(h.colours, p)
		h.counts = append(h.counts, 1)
		h.labs = append(h.labs, ToLab(p))
	}
	return h
}
