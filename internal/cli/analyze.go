package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/huescheme/internal/analysis"
	"github.com/jmylchreest/huescheme/internal/colour"
	"github.com/jmylchreest/huescheme/internal/export"
	"github.com/jmylchreest/huescheme/internal/image"
)

// Limits for local files and downloads. The upload limits of the HTTP
// service do not apply to local analysis.
const (
	cliMaxImageBytes = 64 * 1024 * 1024
	cliMaxPixels     = 50_000_000
)

// Output formats for the analyze command.
const (
	formatJSON     = "json"
	formatText     = "text"
	formatTailwind = string(export.FormatTailwind)
	formatCSS      = string(export.FormatCSS)
)

var analyzeFormats = []string{formatJSON, formatText, formatTailwind, formatCSS}

type analyzeOptions struct {
	format       string
	output       string
	algorithm    string
	iterations   int
	seeding      string
	emptyCluster string
	jobs         int
	preview      bool
}

// sourcedResult tags a result with the image it came from in batch output.
type sourcedResult struct {
	Source string `json:"source"`
	*analysis.Result
}

func newAnalyzeCmd(a *app) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <image|dir|url>...",
		Short: "Extract a theme palette from images",
		Long: `Extract a five-colour theme palette from one or more images.

Directories expand to the JPEG, PNG and WebP images they contain. HTTPS
URLs are downloaded into the image cache before analysis.

Examples:
  # Print the palette and generated artifacts as JSON
  huescheme analyze wallpaper.jpg

  # Show the palette as a table with colour swatches
  huescheme analyze --format text --preview wallpaper.png

  # Write a Tailwind configuration
  huescheme analyze -f tailwind -o tailwind.config.js hero.webp

  # Analyse a directory with four workers using farthest-point seeding
  huescheme analyze -j 4 --seeding farthest ./images`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, a, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.format, "format", "f", formatJSON, "output format ("+strings.Join(analyzeFormats, ", ")+")")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	flags.StringVarP(&opts.algorithm, "algorithm", "a", string(colour.AlgorithmLab), fmt.Sprintf("extraction algorithm %v", colour.ValidAlgorithms()))
	defaults := colour.DefaultQuantizerConfig()
	flags.IntVar(&opts.iterations, "iterations", defaults.MaxIterations, "k-means iterations for the lab algorithm")
	flags.StringVar(&opts.seeding, "seeding", string(defaults.Seeding), "centroid seeding for the lab algorithm (first, farthest)")
	flags.StringVar(&opts.emptyCluster, "empty-cluster", string(defaults.EmptyCluster), "empty cluster policy for the lab algorithm (reseed, zero)")
	flags.IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "number of images analysed concurrently")
	flags.BoolVar(&opts.preview, "preview", false, "show colour swatches in text output")

	return cmd
}

// applyAnalysisFlags overrides the analysis config with explicitly set flags.
func applyAnalysisFlags(flags *pflag.FlagSet, a *app, opts *analyzeOptions) error {
	if flags.Changed("algorithm") {
		a.config.Analysis.Algorithm = opts.algorithm
	}
	if flags.Changed("iterations") {
		a.config.Analysis.Iterations = opts.iterations
	}
	if flags.Changed("seeding") {
		a.config.Analysis.Seeding = opts.seeding
	}
	if flags.Changed("empty-cluster") {
		a.config.Analysis.EmptyCluster = opts.emptyCluster
	}
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// newAnalyzer builds an analyzer from the loaded configuration.
func (a *app) newAnalyzer() (*analysis.Analyzer, error) {
	quantizer, err := a.config.Analysis.Quantizer()
	if err != nil {
		return nil, err
	}
	return analysis.New(analysis.Options{
		Algorithm: colour.Algorithm(a.config.Analysis.Algorithm),
		Quantizer: quantizer,
		Logger:    a.logger,
	})
}

func runAnalyze(cmd *cobra.Command, a *app, opts *analyzeOptions, args []string) error {
	if !isAnalyzeFormat(opts.format) {
		return fmt.Errorf("invalid format: %s (valid: %s)", opts.format, strings.Join(analyzeFormats, ", "))
	}
	if opts.jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", opts.jobs)
	}
	if err := applyAnalysisFlags(cmd.Flags(), a, opts); err != nil {
		return err
	}

	analyzer, err := a.newAnalyzer()
	if err != nil {
		return err
	}

	paths, err := image.ExpandPaths(args)
	if err != nil {
		return err
	}
	a.logger.Debug("analysing images", "count", len(paths), "jobs", opts.jobs, "options", analyzer.Fingerprint())

	loader := &image.Loader{MaxBytes: cliMaxImageBytes, MaxPixels: cliMaxPixels}
	results := make([]*analysis.Result, len(paths))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(opts.jobs)
	for i, path := range paths {
		g.Go(func() error {
			img, err := loader.Load(ctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			result, err := analyzer.AnalyzeImage(ctx, img)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			a.logger.Debug("analysed image", "path", path, "primary", result.Palette.Primary.Hex)
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var out strings.Builder
	var preview *lipgloss.Renderer
	if opts.preview {
		preview = previewRenderer(cmd, a.logger, opts.output)
	}
	if err := writeResults(&out, opts.format, paths, results, preview); err != nil {
		return err
	}

	if opts.output != "" {
		a.logger.Debug("writing output", "path", opts.output)
		if err := os.WriteFile(opts.output, []byte(out.String()), 0o644); err != nil { // #nosec G306 - generated theme files are meant to be shared
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}

	_, err = io.WriteString(cmd.OutOrStdout(), out.String())
	return err
}

func isAnalyzeFormat(format string) bool {
	return slices.Contains(analyzeFormats, format)
}

// writeResults renders results in the requested format. A single image
// produces a bare result; several are labelled with their source.
func writeResults(w io.Writer, format string, paths []string, results []*analysis.Result, preview *lipgloss.Renderer) error {
	batch := len(results) > 1

	switch format {
	case formatJSON:
		var v any = results[0]
		if batch {
			tagged := make([]sourcedResult, len(results))
			for i, r := range results {
				tagged[i] = sourcedResult{Source: paths[i], Result: r}
			}
			v = tagged
		}
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to convert to JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err

	case formatText:
		for i, r := range results {
			if batch {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "%s\n\n", paths[i])
			}
			fmt.Fprint(w, paletteTable(&r.Palette, preview))
		}
		return nil

	default:
		for i, r := range results {
			rendered := r.TailwindConfig
			if format == formatCSS {
				rendered = r.CSSVariables
			}
			if batch {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "/* %s */\n", paths[i])
			}
			fmt.Fprint(w, rendered)
			if !strings.HasSuffix(rendered, "\n") {
				fmt.Fprintln(w)
			}
		}
		return nil
	}
}

// paletteTable formats a palette as a table of roles. A non-nil renderer
// adds a swatch column.
func paletteTable(p *colour.Palette, preview *lipgloss.Renderer) string {
	headers := []string{"ROLE", "HEX", "RGB", "NAME", "USAGE"}
	if preview != nil {
		headers = append([]string{""}, headers...)
	}

	table := NewTable(headers)
	for role, c := range p.All() {
		row := []string{role.String(), c.Hex, c.RGB.String(), c.Name, c.Usage}
		if preview != nil {
			row = append([]string{swatch(preview, c.RGB)}, row...)
		}
		table.AddRow(row)
	}
	return table.Render()
}
