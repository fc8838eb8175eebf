package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/huescheme/internal/colour"
)

// swatchWidth is the number of cells in a colour swatch.
const swatchWidth = 4

// previewRenderer returns a renderer for colour swatches, or nil when the
// output is a file or not a terminal.
func previewRenderer(cmd *cobra.Command, logger hclog.Logger, outputPath string) *lipgloss.Renderer {
	if outputPath != "" {
		logger.Warn("colour previews are not written to files, ignoring --preview")
		return nil
	}

	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { // #nosec G115 - file descriptors fit in int
		logger.Warn("output is not a terminal, ignoring --preview")
		return nil
	}
	return lipgloss.NewRenderer(f)
}

// swatch renders a block of the given colour.
func swatch(r *lipgloss.Renderer, c colour.RGB) string {
	return r.NewStyle().
		Background(lipgloss.Color(c.Hex())).
		Width(swatchWidth).
		Render("")
}
