// Package export renders a theme palette as Tailwind configuration and CSS
// custom properties.
package export

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/jmylchreest/huescheme/internal/colour"
)

//go:embed *.tmpl
var templates embed.FS

const (
	tailwindTemplate = "tailwind.config.js.tmpl"
	cssTemplate      = "variables.css.tmpl"
)

// Format identifies an export format.
type Format string

const (
	// FormatTailwind is a tailwind.config.js theme extension.
	FormatTailwind Format = "tailwind"

	// FormatCSS is a :root block of CSS custom properties.
	FormatCSS Format = "css"
)

// templateData holds the swatches the templates render. Values are the
// quantized colours, before background and text adjustment.
type templateData struct {
	Primary      colour.Color
	Secondary    colour.Color
	Accent       colour.Color
	Background   colour.Color
	Content      colour.Color
	ContentMuted colour.Color
}

// TailwindConfig renders the palette as a Tailwind theme configuration.
func TailwindConfig(p *colour.Palette) (string, error) {
	return render(tailwindTemplate, p)
}

// CSSVariables renders the palette as CSS custom properties.
func CSSVariables(p *colour.Palette) (string, error) {
	return render(cssTemplate, p)
}

// Render renders the palette in the given format.
func Render(format Format, p *colour.Palette) (string, error) {
	switch format {
	case FormatTailwind:
		return TailwindConfig(p)
	case FormatCSS:
		return CSSVariables(p)
	default:
		return "", fmt.Errorf("unsupported export format: %s (supported: %s, %s)", format, FormatTailwind, FormatCSS)
	}
}

func render(name string, p *colour.Palette) (string, error) {
	if p == nil {
		return "", fmt.Errorf("palette cannot be nil")
	}

	tmplContent, err := templates.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}

	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(string(tmplContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	text := p.Quantized(colour.RoleText)
	data := templateData{
		Primary:      p.Quantized(colour.RolePrimary),
		Secondary:    p.Quantized(colour.RoleSecondary),
		Accent:       p.Quantized(colour.RoleAccent),
		Background:   p.Quantized(colour.RoleBackground),
		Content:      text,
		ContentMuted: colour.NewColor(colour.AdjustForText(text.RGB)),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"lighten": func(c colour.Color) string { return colour.Lighten(c.RGB).Hex() },
		"darken":  func(c colour.Color) string { return colour.Darken(c.RGB).Hex() },
	}
}
