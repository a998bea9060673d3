// Package main provides the snpcrawl command-line tool: an incremental
// importer that joins a consumer genotype file with SNPedia annotation in a
// local DuckDB dataset.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:     "snpcrawl",
		Short:   "Incrementally annotate a personal genotype file with SNPedia",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Long: `snpcrawl walks a 23andMe raw data file or a VCF, fetches the SNPedia page
for each variant under a polite per-run batch cap, and accumulates the joined
result in a local dataset. Runs resume where the previous one stopped.`,
		Example: `  # first run: import up to 100 variants
  snpcrawl import genome.txt

  # later runs pick up where the previous one stopped
  snpcrawl import genome.txt --batch 250

  # inspect the accumulated dataset
  snpcrawl show --min-magnitude 2`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("data-dir", "", "Data directory (default: ~/.snpcrawl)")
	viper.BindPFlag("data_dir", cmd.PersistentFlags().Lookup("data-dir"))

	cmd.AddCommand(newImportCmd(&verbose))
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig loads ~/.snpcrawl.yaml when present and sets defaults.
func initConfig() error {
	viper.SetConfigName(".snpcrawl")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	viper.SetDefault("import.batch", 100)
	viper.SetDefault("import.pace_ms", 500)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// dataDir resolves the data directory from config or its default.
func dataDir() (string, error) {
	if dir := viper.GetString("data_dir"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".snpcrawl"), nil
}

// storePath is the DuckDB dataset location inside the data directory.
func storePath(dir string) string {
	return filepath.Join(dir, "snpcrawl.duckdb")
}

// newLogger builds the CLI logger. Debug runs get the development encoder.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	return cfg.Build()
}
