package cli

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/huescheme/internal/colour"
)

func newNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "name <hex>...",
		Short: "Name colours and show their shades",
		Long: `Look up the nearest reference colour name for each hex colour, with its
brightness and the lighter and darker shades used by generated themes.

Examples:
  huescheme name "#6496c8"
  huescheme name ff0000 0f0 "#333333"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runName,
	}
}

func runName(cmd *cobra.Command, args []string) error {
	table := NewTable([]string{"INPUT", "HEX", "NAME", "DISTANCE", "LUMA", "LIGHTER", "DARKER"})
	for _, arg := range args {
		rgb, err := parseHex(arg)
		if err != nil {
			return err
		}

		name, distance := colour.NearestName(rgb)
		table.AddRow([]string{
			arg,
			rgb.Hex(),
			name,
			fmt.Sprintf("%.2f", distance),
			fmt.Sprintf("%.1f", rgb.Luma()),
			colour.Lighten(rgb).Hex(),
			colour.Darken(rgb).Hex(),
		})
	}

	fmt.Fprint(cmd.OutOrStdout(), table.Render())
	return nil
}

// parseHex accepts #rgb and #rrggbb colours, with or without the leading #.
func parseHex(s string) (colour.RGB, error) {
	h := strings.TrimSpace(s)
	if !strings.HasPrefix(h, "#") {
		h = "#" + h
	}
	c, err := colorful.Hex(h)
	if err != nil {
		return colour.RGB{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return colour.RGB{R: r, G: g, B: b}, nil
}
