// Package cmd provides the CLI commands for cuse.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/cuse/internal/config"
	cerrors "github.com/Aman-CERP/cuse/internal/errors"
	"github.com/Aman-CERP/cuse/internal/logging"
	"github.com/Aman-CERP/cuse/pkg/version"
)

// rootOptions holds persistent flags and the state they produce.
type rootOptions struct {
	dir     string
	dataDir string
	backend string
	debug   bool

	projectDir     string
	cfg            *config.Config
	logger         *slog.Logger
	loggingCleanup func()
}

// NewRootCmd creates the root command for the cuse CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cuse",
		Short: "Register records and search them by field",
		Long: `cuse stores records in named indexes and searches them with
field filters and raw query fragments.

Records are written to a local index (SQLite FTS5 or Bleve) and to a
record database used to hydrate search results.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/cuse/config.yaml)
  3. Project config (.cuse.yaml)
  4. Environment variables (CUSE_*)
  5. Command-line flags`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("cuse version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.dir, "dir", "", "Project directory to read .cuse.yaml from (default: current directory)")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Override index.data_dir")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Override index.backend: sqlite, bleve")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to ~/.cuse/logs/")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return opts.setup(cmd.ErrOrStderr())
	}
	cmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		opts.close()
		return nil
	}

	cmd.AddCommand(newPutCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newGetCmd(opts))
	cmd.AddCommand(newDeleteCmd(opts))
	cmd.AddCommand(newIndexesCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newLogsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup loads configuration, applies flag overrides and starts logging.
func (o *rootOptions) setup(stderr io.Writer) error {
	dir := o.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	o.projectDir = dir

	cfg, err := config.Load(dir)
	if err != nil {
		return cerrors.ConfigError(fmt.Sprintf("failed to load configuration: %v", err), err).
			WithSuggestion("run 'cuse config show' after fixing the file, or 'cuse config init --force'")
	}
	if o.dataDir != "" {
		cfg.Index.DataDir = o.dataDir
	}
	if o.backend != "" {
		cfg.Index.Backend = o.backend
		if err := cfg.Validate(); err != nil {
			return cerrors.ConfigError(fmt.Sprintf("invalid --backend: %v", err), err)
		}
	}
	o.cfg = cfg

	logCfg := logging.Config{
		Level:     cfg.Logging.Level,
		FilePath:  cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
		Stderr:    stderr,
	}
	if o.debug {
		logCfg.Level = "debug"
		if logCfg.FilePath == "" {
			logCfg.FilePath = logging.DefaultLogPath()
		}
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	o.logger = logger
	o.loggingCleanup = cleanup
	slog.SetDefault(logger)

	if o.debug {
		logger.Debug("debug_logging_enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("version", version.Short()))
	}
	return nil
}

// close stops logging. Safe to call more than once.
func (o *rootOptions) close() {
	if o.loggingCleanup != nil {
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
}

// Execute runs the root command and prints errors in CLI format.
func Execute() error {
	opts := &rootOptions{}
	defer opts.close()

	root := newRootCmd(opts)
	err := root.Execute()
	if err != nil {
		_, _ = fmt.Fprint(root.ErrOrStderr(), cerrors.FormatForCLI(err))
	}
	return err
}
