package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tabula-cli/internal/config"
	"github.com/KaramelBytes/tabula-cli/internal/datasets"
	"github.com/KaramelBytes/tabula-cli/internal/logging"
	"github.com/KaramelBytes/tabula-cli/internal/store"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	flagDataDir  string
	flagLogLevel string

	// Loaded configuration
	cfg *cfgpkg.Global

	logger   = logging.Discard()
	closeLog = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "tabula",
	Short: "Tabula CLI: upload spreadsheets, browse rows, chart columns",
	Long: `Tabula stores CSV/TSV/XLSX uploads as typed datasets with an inferred schema,
pages through them with search and sort, and aggregates columns for charts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeLog()
	if err != nil {
		errorLine(os.Stderr, "Error: %v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabula/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "dataset directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		warnLine(os.Stderr, "Warning: failed to load config: %v", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("data-dir") && flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if debug {
		cfg.LogLevel = slog.LevelDebug.String()
	}

	closeLog()
	l, cleanup, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, SeqURL: cfg.SeqURL})
	if err != nil {
		warnLine(os.Stderr, "Warning: %v; logging disabled", err)
		logger, closeLog = logging.Discard(), func() {}
		return
	}
	logger, closeLog = l, cleanup
}

// newService opens the file store under the configured data directory.
func newService() (*datasets.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("no configuration loaded")
	}
	st, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	svc := datasets.New(st, logger.With("component", "datasets"))
	svc.InferSample = cfg.InferSampleRows
	svc.Workers = cfg.Workers
	return svc, nil
}
