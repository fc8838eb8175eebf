// Package cli provides the command-line interface for huescheme.
package cli

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/huescheme/internal/config"
	"github.com/jmylchreest/huescheme/internal/version"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	verbose    bool
	quiet      bool
	logLevel   string
	logJSON    bool
	configPath string
}

// app is the state assembled before a subcommand runs.
type app struct {
	opts   globalOptions
	config config.Config
	logger hclog.Logger
}

// NewRootCmd builds the huescheme command tree. Each call returns an
// independent tree so tests can run commands in isolation.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "huescheme",
		Short: "Generate website colour themes from images",
		Long: `huescheme extracts a five-colour theme palette from an image and renders it
as a Tailwind configuration and CSS custom properties.

Each palette has a primary, secondary, accent, background and text colour.
Backgrounds are darkened and text is lightened where needed so the theme
stays readable.`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&a.opts.quiet, "quiet", "q", false, "suppress non-error output")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&a.opts.logJSON, "log-json", false, "emit logs as JSON")
	flags.StringVar(&a.opts.configPath, "config", "", "config file (default: $"+config.EnvConfigPath+" or the user config directory)")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newAnalyzeCmd(a))
	rootCmd.AddCommand(newNameCmd())
	rootCmd.AddCommand(newServeCmd(a))

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup builds the logger and loads configuration.
func (a *app) setup(cmd *cobra.Command) error {
	logger, err := newLogger(a.opts, cmd)
	if err != nil {
		return err
	}
	a.logger = logger

	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.config = cfg
	return nil
}

// newLogger creates the root logger writing to the command's stderr.
func newLogger(opts globalOptions, cmd *cobra.Command) (hclog.Logger, error) {
	level := hclog.Info
	switch {
	case opts.logLevel != "":
		level = hclog.LevelFromString(opts.logLevel)
		if level == hclog.NoLevel {
			return nil, fmt.Errorf("invalid log level: %s", opts.logLevel)
		}
	case opts.verbose:
		level = hclog.Debug
	case opts.quiet:
		level = hclog.Error
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       "huescheme",
		Output:     cmd.ErrOrStderr(),
		Level:      level,
		JSONFormat: opts.logJSON,
	}), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		// Version output needs neither config nor logging.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
