package analysis

import (
	"context"
	"errors"
	"image"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/huescheme/internal/colour"
)

var hexPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func newAnalyzer(t *testing.T, opts Options) *Analyzer {
	t.Helper()
	a, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func solidImage(w, h int, c colour.RGB) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c.Color())
		}
	}
	return img
}

func stripedImage(w, h int) *image.NRGBA {
	stripes := []colour.RGB{{230, 57, 70}, {29, 53, 87}, {241, 250, 238}, {168, 218, 220}, {69, 123, 157}}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, stripes[(x+y)%len(stripes)].Color())
		}
	}
	return img
}

func TestAnalyzeUniformRed(t *testing.T) {
	a := newAnalyzer(t, DefaultOptions())

	result, err := a.AnalyzeImage(context.Background(), solidImage(10, 10, colour.RGB{R: 255}))
	if err != nil {
		t.Fatalf("AnalyzeImage() error = %v", err)
	}

	if result.Palette.Primary.RGB != (colour.RGB{R: 255}) {
		t.Errorf("primary = %v, want red", result.Palette.Primary.RGB)
	}
	if result.Palette.Primary.Name != "Red" {
		t.Errorf("primary name = %s, want Red", result.Palette.Primary.Name)
	}
	// Luma 76 < 128, so the background is not darkened.
	if result.Palette.Primary.Hex != "#ff0000" {
		t.Errorf("primary hex = %s, want #ff0000", result.Palette.Primary.Hex)
	}
	if !strings.Contains(result.TailwindConfig, "DEFAULT: '#ff0000'") {
		t.Error("tailwind config missing primary swatch")
	}
	if !strings.Contains(result.CSSVariables, "--color-primary: #ff0000;") {
		t.Error("CSS variables missing primary swatch")
	}
}

func TestAnalyzeUniformRedAllSlots(t *testing.T) {
	a := newAnalyzer(t, DefaultOptions())

	result, err := a.AnalyzeImage(context.Background(), solidImage(10, 10, colour.RGB{R: 255}))
	if err != nil {
		t.Fatalf("AnalyzeImage() error = %v", err)
	}

	for role := range result.Palette.All() {
		q := result.Palette.Quantized(role)
		if q.RGB != (colour.RGB{R: 255}) || q.Name != "Red" {
			t.Errorf("%s quantized = %+v, want Red (255,0,0)", role, q)
		}
	}
	if result.Palette.Background.Hex != "#ff0000" {
		t.Errorf("background hex = %s, want #ff0000", result.Palette.Background.Hex)
	}
}

func TestAnalyzeUniformRedZeroPolicy(t *testing.T) {
	// With collapsing empty clusters only the primary slot sees red.
	opts := DefaultOptions()
	opts.Quantizer.EmptyCluster = colour.EmptyClusterZero
	a := newAnalyzer(t, opts)

	result, err := a.AnalyzeImage(context.Background(), solidImage(10, 10, colour.RGB{R: 255}))
	if err != nil {
		t.Fatalf("AnalyzeImage() error = %v", err)
	}

	if result.Palette.Primary.Hex != "#ff0000" {
		t.Errorf("primary hex = %s, want #ff0000", result.Palette.Primary.Hex)
	}
	if result.Palette.Background.Hex != "#000000" {
		t.Errorf("background hex = %s, want #000000", result.Palette.Background.Hex)
	}
	if result.Palette.Text.Hex != "#e6e6e6" {
		t.Errorf("text hex = %s, want #e6e6e6", result.Palette.Text.Hex)
	}
}

func TestAnalyzeInsufficientPixels(t *testing.T) {
	a := newAnalyzer(t, DefaultOptions())

	_, err := a.AnalyzeImage(context.Background(), solidImage(2, 1, colour.RGB{G: 255}))
	if !errors.Is(err, colour.ErrInsufficientPixels) {
		t.Errorf("AnalyzeImage() error = %v, want ErrInsufficientPixels", err)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := newAnalyzer(t, DefaultOptions())
	img := stripedImage(20, 20)

	first, err := a.AnalyzeImage(context.Background(), img)
	if err != nil {
		t.Fatalf("AnalyzeImage() error = %v", err)
	}
	second, err := a.AnalyzeImage(context.Background(), img)
	if err != nil {
		t.Fatalf("AnalyzeImage() error = %v", err)
	}

	if diff := cmp.Diff(first, second, cmp.AllowUnexported(colour.Palette{})); diff != "" {
		t.Errorf("AnalyzeImage() mismatch (-first +second):\n%s", diff)
	}
}

func TestAnalyzeHexInvariant(t *testing.T) {
	a := newAnalyzer(t, DefaultOptions())

	result, err := a.AnalyzeImage(context.Background(), stripedImage(12, 9))
	if err != nil {
		t.Fatalf("AnalyzeImage() error = %v", err)
	}

	count := 0
	for role, c := range result.Palette.All() {
		count++
		if !hexPattern.MatchString(c.Hex) {
			t.Errorf("%s hex %q does not match %s", role, c.Hex, hexPattern)
		}
		if c.Usage == "" {
			t.Errorf("%s has no usage", role)
		}
	}
	if count != colour.PaletteSize {
		t.Errorf("palette has %d entries, want %d", count, colour.PaletteSize)
	}
}

func TestAnalyzePixelsMatchesImage(t *testing.T) {
	a := newAnalyzer(t, DefaultOptions())
	img := stripedImage(10, 10)

	fromImage, err := a.AnalyzeImage(context.Background(), img)
	if err != nil {
		t.Fatalf("AnalyzeImage() error = %v", err)
	}
	fromRGBA, err := a.AnalyzeRGBA(context.Background(), img.Pix, 10, 10)
	if err != nil {
		t.Fatalf("AnalyzeRGBA() error = %v", err)
	}

	if diff := cmp.Diff(fromImage, fromRGBA, cmp.AllowUnexported(colour.Palette{})); diff != "" {
		t.Errorf("results differ (-image +rgba):\n%s", diff)
	}
}

func TestAnalyzeRGBABadBuffer(t *testing.T) {
	a := newAnalyzer(t, DefaultOptions())
	if _, err := a.AnalyzeRGBA(context.Background(), make([]byte, 10), 2, 2); err == nil {
		t.Error("AnalyzeRGBA() expected error for mismatched buffer")
	}
}

func TestAnalyzePixelsRequiresLab(t *testing.T) {
	opts := DefaultOptions()
	opts.Algorithm = colour.AlgorithmDominant
	a := newAnalyzer(t, opts)

	if _, err := a.AnalyzePixels(context.Background(), make([]colour.RGB, 10)); err == nil {
		t.Error("AnalyzePixels() expected error for non-lab algorithm")
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	a := newAnalyzer(t, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.AnalyzeImage(ctx, solidImage(4, 4, colour.RGB{})); !errors.Is(err, context.Canceled) {
		t.Errorf("AnalyzeImage() error = %v, want context.Canceled", err)
	}
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	opts := DefaultOptions()
	opts.Algorithm = "mediancut"
	if _, err := New(opts); err == nil {
		t.Error("New() expected error for unknown algorithm")
	}
}

func TestFingerprint(t *testing.T) {
	a := newAnalyzer(t, DefaultOptions())
	opts := DefaultOptions()
	opts.Quantizer.EmptyCluster = colour.EmptyClusterZero
	b := newAnalyzer(t, opts)

	if a.Fingerprint() == b.Fingerprint() {
		t.Errorf("Fingerprint() should differ: %s", a.Fingerprint())
	}
	if a.Fingerprint() != "lab:20:first:reseed" {
		t.Errorf("Fingerprint() = %s, want lab:20:first:reseed", a.Fingerprint())
	}
}
