package colour

import "math"

// D65 reference white, scaled to Y = 100.
const (
	whiteX = 95.047
	whiteY = 100.0
	whiteZ = 108.883
)

// labEpsilon is (6/29)^3, the threshold between the cube-root and linear
// segments of the Lab transfer function.
var labEpsilon = math.Pow(6.0/29.0, 3)

// Lab represents a colour in CIE L*a*b* space.
type Lab struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// ToLab converts an sRGB colour to CIE L*a*b* using the D65 white point.
func ToLab(c RGB) Lab {
	r := linearise(float64(c.R) / 255)
	g := linearise(float64(c.G) / 255)
	b := linearise(float64(c.B) / 255)

	x := (r*0.4124 + g*0.3576 + b*0.1805) * 100
	y := (r*0.2126 + g*0.7152 + b*0.0722) * 100
	z := (r*0.0193 + g*0.1192 + b*0.9505) * 100

	fx := labF(x / whiteX)
	fy := labF(y / whiteY)
	fz := labF(z / whiteZ)

	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

// Distance returns the Euclidean distance between two colours in Lab space.
func Distance(c1, c2 RGB) float64 {
	return ToLab(c1).Distance(ToLab(c2))
}

// Distance returns the Euclidean distance between two Lab colours.
func (l Lab) Distance(other Lab) float64 {
	dl := other.L - l.L
	da := other.A - l.A
	db := other.B - l.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

// linearise decodes an sRGB gamma-encoded channel in [0, 1].
func linearise(v float64) float64 {
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return (1.0/3.0)*math.Pow(29.0/6.0, 2)*t + 4.0/29.0
}
