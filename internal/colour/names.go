package colour

import "math"

// NamedColour is a reference colour used for human-readable naming.
type NamedColour struct {
	Name string
	RGB  RGB
}

// referenceColours is searched in order; the first of equally close entries wins.
var referenceColours = []NamedColour{
	{"Red", RGB{255, 0, 0}},
	{"Green", RGB{0, 255, 0}},
	{"Blue", RGB{0, 0, 255}},
	{"Yellow", RGB{255, 255, 0}},
	{"Cyan", RGB{0, 255, 255}},
	{"Magenta", RGB{255, 0, 255}},
	{"White", RGB{255, 255, 255}},
	{"Black", RGB{0, 0, 0}},
	{"Gray", RGB{128, 128, 128}},
	{"Orange", RGB{255, 165, 0}},
	{"Purple", RGB{128, 0, 128}},
	{"Brown", RGB{165, 42, 42}},
	{"Pink", RGB{255, 192, 203}},
	{"Navy", RGB{0, 0, 128}},
	{"Teal", RGB{0, 128, 128}},
	{"Maroon", RGB{128, 0, 0}},
	{"Olive", RGB{128, 128, 0}},
	{"Silver", RGB{192, 192, 192}},
	{"Gold", RGB{255, 215, 0}},
	{"Indigo", RGB{75, 0, 130}},
	{"Violet", RGB{238, 130, 238}},
	{"Beige", RGB{245, 245, 220}},
	{"Coral", RGB{255, 127, 80}},
	{"Crimson", RGB{220, 20, 60}},
}

// ReferenceColours returns a copy of the named reference colours.
func ReferenceColours() []NamedColour {
	out := make([]NamedColour, len(referenceColours))
	copy(out, referenceColours)
	return out
}

// NearestName returns the name of the reference colour closest to c in Lab
// space, along with its distance.
func NearestName(c RGB) (string, float64) {
	lab := ToLab(c)
	name := ""
	minDist := math.Inf(1)
	for _, ref := range referenceColours {
		d := lab.Distance(ToLab(ref.RGB))
		if d < minDist {
			minDist = d
			name = ref.Name
		}
	}
	return name, minDist
}
