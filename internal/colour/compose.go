package colour

import (
	"fmt"
	"strings"
)

// PaletteSize is the number of role slots in a Palette.
const PaletteSize = 5

// Role identifies a semantic slot in a theme palette.
type Role int

const (
	RolePrimary Role = iota
	RoleSecondary
	RoleAccent
	RoleBackground
	RoleText
)

var roleNames = [PaletteSize]string{"primary", "secondary", "accent", "background", "text"}

var roleUsage = [PaletteSize]string{
	"Primary brand color, gradient starts",
	"Secondary color, gradient ends",
	"Accents and highlights",
	"Page and card backgrounds",
	"Typography and content",
}

// Roles returns every role in slot order.
func Roles() []Role {
	return []Role{RolePrimary, RoleSecondary, RoleAccent, RoleBackground, RoleText}
}

// String returns the lowercase role name.
func (r Role) String() string {
	if r < 0 || int(r) >= PaletteSize {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// Usage returns the static description of what the role is for.
func (r Role) Usage() string {
	if r < 0 || int(r) >= PaletteSize {
		return ""
	}
	return roleUsage[r]
}

// Color is a palette swatch.
type Color struct {
	Hex   string `json:"hex"`
	RGB   RGB    `json:"rgb"`
	Name  string `json:"name"`
	Usage string `json:"usage,omitempty"`
}

// NewColor builds a named swatch from an RGB value.
func NewColor(rgb RGB) Color {
	name, _ := NearestName(rgb)
	return Color{
		Hex:  rgb.Hex(),
		RGB:  rgb,
		Name: name,
	}
}

// withRGB replaces the colour value while keeping name and usage.
func (c Color) withRGB(rgb RGB) Color {
	c.RGB = rgb
	c.Hex = rgb.Hex()
	return c
}

// Palette holds the five role swatches of a theme.
type Palette struct {
	Primary    Color `json:"primary"`
	Secondary  Color `json:"secondary"`
	Accent     Color `json:"accent"`
	Background Color `json:"background"`
	Text       Color `json:"text"`

	// quantized holds the swatches before role adjustments.
	quantized [PaletteSize]Color
}

// Get returns the swatch for a role.
func (p *Palette) Get(role Role) Color {
	switch role {
	case RolePrimary:
		return p.Primary
	case RoleSecondary:
		return p.Secondary
	case RoleAccent:
		return p.Accent
	case RoleBackground:
		return p.Background
	case RoleText:
		return p.Text
	}
	return Color{}
}

// Quantized returns the swatch for a role as it came out of quantization,
// before background or text adjustment.
func (p *Palette) Quantized(role Role) Color {
	if role < 0 || int(role) >= PaletteSize {
		return Color{}
	}
	return p.quantized[role]
}

// All returns an iterator over the palette roles in slot order.
func (p *Palette) All() func(func(Role, Color) bool) {
	return func(yield func(Role, Color) bool) {
		for _, role := range Roles() {
			if !yield(role, p.Get(role)) {
				return
			}
		}
	}
}

// String returns a human-readable representation of the palette.
func (p *Palette) String() string {
	var sb strings.Builder
	for role, c := range p.All() {
		fmt.Fprintf(&sb, "%-10s %s %-8s %s\n", role, c.Hex, c.Name, c.RGB)
	}
	return sb.String()
}

// Compose assigns five centroids positionally to the palette roles.
// The background swatch is darkened when light and the text swatch is
// lightened when dark. Names come from the unadjusted centroid.
func Compose(centroids []RGB) (*Palette, error) {
	if len(centroids) != PaletteSize {
		return nil, fmt.Errorf("palette requires exactly %d colours, got %d", PaletteSize, len(centroids))
	}

	p := &Palette{}
	for i, rgb := range centroids {
		c := NewColor(rgb)
		c.Usage = Role(i).Usage()
		p.quantized[i] = c
	}

	p.Primary = p.quantized[RolePrimary]
	p.Secondary = p.quantized[RoleSecondary]
	p.Accent = p.quantized[RoleAccent]

	bg := p.quantized[RoleBackground]
	p.Background = bg.withRGB(AdjustForBackground(bg.RGB))

	text := p.quantized[RoleText]
	p.Text = text.withRGB(AdjustForText(text.RGB))

	return p, nil
}
