package colour

const (
	shadeFactor      = 0.2
	backgroundDarken = 0.15
	textLighten      = 0.9
	lumaMidpoint     = 128
)

// Lighten scales every channel up by 20%, clamped to 255.
func Lighten(c RGB) RGB {
	return RGB{
		R: channel(float64(c.R) * (1 + shadeFactor)),
		G: channel(float64(c.G) * (1 + shadeFactor)),
		B: channel(float64(c.B) * (1 + shadeFactor)),
	}
}

// Darken scales every channel down by 20%.
func Darken(c RGB) RGB {
	return RGB{
		R: channel(float64(c.R) * (1 - shadeFactor)),
		G: channel(float64(c.G) * (1 - shadeFactor)),
		B: channel(float64(c.B) * (1 - shadeFactor)),
	}
}

// AdjustForBackground darkens a light colour by 15% so it can sit behind
// light text. Colours with luma <= 128 are returned unchanged.
func AdjustForBackground(c RGB) RGB {
	if c.Luma() <= lumaMidpoint {
		return c
	}
	return RGB{
		R: channel(float64(c.R) * (1 - backgroundDarken)),
		G: channel(float64(c.G) * (1 - backgroundDarken)),
		B: channel(float64(c.B) * (1 - backgroundDarken)),
	}
}

// AdjustForText blends a dark colour 90% of the way towards white.
// Colours with luma >= 128 are returned unchanged.
func AdjustForText(c RGB) RGB {
	if c.Luma() >= lumaMidpoint {
		return c
	}
	return RGB{
		R: channel(float64(c.R) + (255-float64(c.R))*textLighten),
		G: channel(float64(c.G) + (255-float64(c.G))*textLighten),
		B: channel(float64(c.B) + (255-float64(c.B))*textLighten),
	}
}
