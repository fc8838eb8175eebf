package colour

import (
	"fmt"
	"image"
	"math"
)

// PixelsFromImage flattens an image into RGB pixels in row-major scan order.
// Alpha is dropped, not composited.
func PixelsFromImage(img image.Image) []RGB {
	if img == nil {
		return nil
	}

	bounds := img.Bounds()
	pixels := make([]RGB, 0, bounds.Dx()*bounds.Dy())

	// Fast path for the layouts the standard decoders produce.
	switch src := img.(type) {
	case *image.NRGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := src.PixOffset(bounds.Min.X, y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				pixels = append(pixels, RGB{R: src.Pix[off], G: src.Pix[off+1], B: src.Pix[off+2]})
				off += 4
			}
		}
		return pixels
	case *image.RGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := src.PixOffset(bounds.Min.X, y)
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				pixels = append(pixels, RGB{R: src.Pix[off], G: src.Pix[off+1], B: src.Pix[off+2]})
				off += 4
			}
		}
		return pixels
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixels = append(pixels, ToRGB(img.At(x, y)))
		}
	}
	return pixels
}

// PixelsFromRGBA flattens a width*height*4 RGBA byte buffer into RGB pixels.
func PixelsFromRGBA(buf []byte, width, height int) ([]RGB, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}
	if width != 0 && height > math.MaxInt/4/width {
		return nil, fmt.Errorf("dimensions %dx%d overflow the buffer size", width, height)
	}
	if want := width * height * 4; len(buf) != want {
		return nil, fmt.Errorf("RGBA buffer has %d bytes, want %d for %dx%d", len(buf), want, width, height)
	}

	pixels := make([]RGB, 0, width*height)
	for i := 0; i < len(buf); i += 4 {
		pixels = append(pixels, RGB{R: buf[i], G: buf[i+1], B: buf[i+2]})
	}
	return pixels, nil
}
